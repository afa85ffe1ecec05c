package service

import (
	"strings"

	vo "ikedadada/go-onionctl/internal/domain/value_object"
)

// DefaultLegacyMarkers match daemon versions that predate ADD_ONION.
var DefaultLegacyMarkers = []string{"0.2.3.", "0.2.4.", "0.2.5.", "0.2.6."}

// DialectNegotiator asks the daemon for its version and picks a dialect.
type DialectNegotiator interface {
	// Query sends the version request.
	Query(ch ControlChannel) error
	// Select maps a reported version string to a dialect.
	Select(version string) vo.Dialect
}

type dialectNegotiator struct {
	legacy []string
}

// NewDialectNegotiator treats versions containing any of legacyMarkers as
// directory-config daemons. With no markers DefaultLegacyMarkers is used.
func NewDialectNegotiator(legacyMarkers ...string) DialectNegotiator {
	if len(legacyMarkers) == 0 {
		legacyMarkers = DefaultLegacyMarkers
	}
	return &dialectNegotiator{legacy: legacyMarkers}
}

func (n *dialectNegotiator) Query(ch ControlChannel) error {
	return ch.WriteLine("GETINFO version")
}

func (n *dialectNegotiator) Select(version string) vo.Dialect {
	for _, m := range n.legacy {
		if m != "" && strings.Contains(version, m) {
			return vo.DialectDirectoryConfig
		}
	}
	return vo.DialectDirect
}
