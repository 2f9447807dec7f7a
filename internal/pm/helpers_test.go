package pm_test

import (
	"path/filepath"
	"testing"

	"pm-go/internal/hashindex"
)

func newIndex(t *testing.T, root string) *hashindex.Index {
	t.Helper()
	idx, err := hashindex.Open(filepath.Join(root, hashindex.DefaultName))
	if err != nil {
		t.Fatalf("opening index: %v", err)
	}
	return idx
}
