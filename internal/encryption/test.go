package encryption

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"pm-go/internal/pm"
)

// testMagic opens every envelope sealed by TestEncryptor. It is followed by
// the payload length as a big-endian uint64 and the masked payload.
var testMagic = []byte("PMENC1\n")

// testMask is XORed over the payload so sealed snapshots never contain the
// ledger text verbatim.
const testMask = 0x5a

var errBadEnvelope = errors.New("not a test envelope")

// TestEncryptor seals snapshots in a keyless envelope. It mirrors the
// passphrase rules of AgeEncryptor: an empty passphrase never unlocks, and
// after Setup only the passphrase given there does.
type TestEncryptor struct {
	passphrase string
}

var _ pm.Encryptor = (*TestEncryptor)(nil)

// NewTestEncryptor creates a TestEncryptor that unlocks with any non-empty passphrase.
func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{}
}

func (e *TestEncryptor) Setup(passphrase string) error {
	if passphrase == "" {
		return fmt.Errorf("passphrase must not be empty")
	}
	e.passphrase = passphrase
	return nil
}

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	payload, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading plaintext: %w", err)
	}

	var header [8]byte
	binary.BigEndian.PutUint64(header[:], uint64(len(payload)))
	mask(payload)

	for _, part := range [][]byte{testMagic, header[:], payload} {
		if _, err := w.Write(part); err != nil {
			return fmt.Errorf("writing envelope: %w", err)
		}
	}
	return nil
}

func (e *TestEncryptor) Unlock(passphrase string) (pm.DecryptionContext, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase must not be empty")
	}
	if e.passphrase != "" && passphrase != e.passphrase {
		return nil, fmt.Errorf("wrong passphrase")
	}
	return &TestDecryptionContext{}, nil
}

func (e *TestEncryptor) IsConfigured() bool {
	return true
}

// TestDecryptionContext opens envelopes sealed by TestEncryptor.
type TestDecryptionContext struct{}

var _ pm.DecryptionContext = (*TestDecryptionContext)(nil)

func (c *TestDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	magic := make([]byte, len(testMagic))
	if _, err := io.ReadFull(r, magic); err != nil || !bytes.Equal(magic, testMagic) {
		return errBadEnvelope
	}

	var header [8]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return fmt.Errorf("%w: short header", errBadEnvelope)
	}

	payload, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading envelope: %w", err)
	}
	if want := binary.BigEndian.Uint64(header[:]); uint64(len(payload)) != want {
		return fmt.Errorf("%w: payload is %d bytes, header says %d", errBadEnvelope, len(payload), want)
	}

	mask(payload)
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("writing plaintext: %w", err)
	}
	return nil
}

func mask(b []byte) {
	for i := range b {
		b[i] ^= testMask
	}
}
