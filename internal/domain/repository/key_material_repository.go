package repository

import (
	vo "ikedadada/go-onionctl/internal/domain/value_object"
)

// KeyMaterialRepository persists and restores onion service key material.
type KeyMaterialRepository interface {
	// Load returns the stored blob, or the zero KeyBlob when nothing is stored.
	Load(ref vo.KeyRef) (vo.KeyBlob, error)

	// Save replaces whatever is stored at ref with blob.
	Save(ref vo.KeyRef, blob vo.KeyBlob) error

	// Delete removes any stored blob. Deleting nothing is not an error.
	Delete(ref vo.KeyRef) error
}
