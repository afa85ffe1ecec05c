package value_object

import "fmt"

// Dialect selects which command family publishes the hidden service.
type Dialect byte

const (
	DialectUnset Dialect = iota
	// DialectDirect uses ADD_ONION, available since daemon 0.2.7.
	DialectDirect
	// DialectDirectoryConfig points the daemon at a service directory via SETCONF.
	DialectDirectoryConfig
)

func (d Dialect) String() string {
	switch d {
	case DialectUnset:
		return "unset"
	case DialectDirect:
		return "direct"
	case DialectDirectoryConfig:
		return "directory-config"
	default:
		return fmt.Sprintf("unknown(%d)", byte(d))
	}
}

func (d Dialect) IsValid() bool {
	return d == DialectDirect || d == DialectDirectoryConfig
}
