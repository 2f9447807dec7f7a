package testutil

import "pm-go/internal/pm"

// RejectingIndex wraps an index and refuses mutations on demand.
type RejectingIndex struct {
	pm.Index

	RejectAdd    bool
	RejectRename bool
}

func (r *RejectingIndex) Add(path, hash string, overwrite bool) bool {
	if r.RejectAdd {
		return false
	}
	return r.Index.Add(path, hash, overwrite)
}

func (r *RejectingIndex) Rename(oldPath, newPath string, overwrite bool) bool {
	if r.RejectRename {
		return false
	}
	return r.Index.Rename(oldPath, newPath, overwrite)
}
