package service

import "fmt"

// ProtocolViolationError reports a reply line that does not fit the
// attachment sequence. Line is the raw line for diagnostics.
type ProtocolViolationError struct {
	Line   string
	Reason string
}

func (e *ProtocolViolationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("control protocol violation: %q", e.Line)
	}
	return fmt.Sprintf("control protocol violation: %s: %q", e.Reason, e.Line)
}

func violation(line string, format string, args ...any) error {
	return &ProtocolViolationError{Line: line, Reason: fmt.Sprintf(format, args...)}
}
