package repository

import (
	vo "ikedadada/go-onionctl/internal/domain/value_object"
)

// ServiceDirRepository manages the directory a legacy daemon keeps a hidden
// service's hostname and private key in.
type ServiceDirRepository interface {
	// Prepare makes sure dir exists with private permissions. When cache is
	// false any private key left from an earlier run is removed.
	Prepare(dir string, cache bool) error

	// Materialize writes blob into dir under the file names the daemon reads.
	Materialize(dir string, blob vo.KeyBlob) error

	// ReadBack returns the daemon-written hostname and, when cache is true,
	// the private key.
	ReadBack(dir string, cache bool) (hostname string, privateKey string, err error)
}
