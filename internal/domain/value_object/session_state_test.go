package value_object_test

import (
	"testing"

	vo "ikedadada/go-onionctl/internal/domain/value_object"
)

func TestSessionState_CanTransition_Table(t *testing.T) {
	tests := []struct {
		from, to vo.SessionState
		ok       bool
	}{
		{vo.StateIdle, vo.StateConnecting, true},
		{vo.StateConnecting, vo.StateNegotiating, true},
		{vo.StateConnecting, vo.StateFailed, true},
		{vo.StateNegotiating, vo.StateAttaching, true},
		{vo.StateAttaching, vo.StateAttached, true},
		{vo.StateAttached, vo.StateClosed, true},
		{vo.StateAttached, vo.StateFailed, true},
		{vo.StateFailed, vo.StateClosed, true},
		{vo.StateIdle, vo.StateAttached, false},
		{vo.StateNegotiating, vo.StateConnecting, false},
		{vo.StateAttaching, vo.StateClosed, false},
		{vo.StateClosed, vo.StateFailed, false},
		{vo.StateFailed, vo.StateAttached, false},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.ok {
				t.Errorf("CanTransition = %v, want %v", got, tt.ok)
			}
		})
	}
	if !vo.StateClosed.IsTerminal() || vo.StateFailed.IsTerminal() {
		t.Errorf("terminal state mismatch")
	}
}

func TestDialect_String(t *testing.T) {
	if vo.DialectDirect.String() != "direct" || vo.DialectDirectoryConfig.String() != "directory-config" {
		t.Errorf("unexpected dialect names")
	}
	if vo.DialectUnset.IsValid() {
		t.Errorf("unset dialect must not be valid")
	}
}
