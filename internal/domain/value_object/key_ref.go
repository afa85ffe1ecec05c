package value_object

import (
	"fmt"
	"io"
)

// KeyRef points at where key material is kept: a file path or a stream the
// caller already opened. Exactly one of the two is set.
type KeyRef struct {
	path   string
	stream io.ReadWriter
}

func KeyRefFromPath(path string) KeyRef        { return KeyRef{path: path} }
func KeyRefFromStream(rw io.ReadWriter) KeyRef { return KeyRef{stream: rw} }

func (r KeyRef) Path() string          { return r.path }
func (r KeyRef) Stream() io.ReadWriter { return r.stream }
func (r KeyRef) IsZero() bool          { return r.path == "" && r.stream == nil }

func (r KeyRef) String() string {
	if r.stream != nil {
		return fmt.Sprintf("stream(%T)", r.stream)
	}
	return r.path
}
