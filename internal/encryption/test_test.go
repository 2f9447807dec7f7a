package encryption

import (
	"bytes"
	"errors"
	"testing"
)

func TestTestEncryptor_EncryptDecrypt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "ledger text", input: []byte("0cc175b9c0f1b6a831c399e269772661 2024/01/01/000000_00.jpg\n")},
		{name: "empty", input: []byte{}},
		{name: "zstd frame", input: []byte{0x28, 0xb5, 0x2f, 0xfd}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := NewTestEncryptor()
			var sealed bytes.Buffer
			if err := e.Encrypt(bytes.NewReader(tt.input), &sealed); err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}
			if !bytes.HasPrefix(sealed.Bytes(), testMagic) {
				t.Error("sealed output does not start with the envelope magic")
			}
			if len(tt.input) > 0 && bytes.Contains(sealed.Bytes(), tt.input) {
				t.Error("sealed output contains the plaintext")
			}

			ctx, err := e.Unlock("any-passphrase")
			if err != nil {
				t.Fatalf("Unlock() error = %v", err)
			}
			var opened bytes.Buffer
			if err := ctx.Decrypt(bytes.NewReader(sealed.Bytes()), &opened); err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if !bytes.Equal(opened.Bytes(), tt.input) {
				t.Errorf("round-trip failed: got %q, want %q", opened.Bytes(), tt.input)
			}
		})
	}
}

func TestTestEncryptor_Unlock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		setup   string
		unlock  string
		wantErr bool
	}{
		{name: "any passphrase before setup", unlock: "whatever"},
		{name: "empty passphrase", unlock: "", wantErr: true},
		{name: "setup passphrase", setup: "secret", unlock: "secret"},
		{name: "wrong passphrase after setup", setup: "secret", unlock: "guess", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := NewTestEncryptor()
			if tt.setup != "" {
				if err := e.Setup(tt.setup); err != nil {
					t.Fatalf("Setup() error = %v", err)
				}
			}
			_, err := e.Unlock(tt.unlock)
			if (err != nil) != tt.wantErr {
				t.Errorf("Unlock(%q) error = %v, wantErr %v", tt.unlock, err, tt.wantErr)
			}
		})
	}
}

func TestTestDecryptionContext_BadInput(t *testing.T) {
	t.Parallel()

	var sealed bytes.Buffer
	if err := NewTestEncryptor().Encrypt(bytes.NewReader([]byte("abc 2023/05/01/080000_00.jpg\n")), &sealed); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "wrong magic", input: []byte("NOT_VALID_HEADER_data")},
		{name: "truncated magic", input: []byte("PM")},
		{name: "short length header", input: append(append([]byte{}, testMagic...), 0, 0, 1)},
		{name: "truncated payload", input: sealed.Bytes()[:sealed.Len()-3]},
		{name: "empty", input: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var out bytes.Buffer
			err := (&TestDecryptionContext{}).Decrypt(bytes.NewReader(tt.input), &out)
			if !errors.Is(err, errBadEnvelope) {
				t.Errorf("Decrypt() error = %v, want errBadEnvelope", err)
			}
		})
	}
}
