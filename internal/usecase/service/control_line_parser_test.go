package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	vo "ikedadada/go-onionctl/internal/domain/value_object"
	"ikedadada/go-onionctl/internal/usecase/service"
)

func TestControlLineParser_Table(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		kind  vo.EventKind
		value string
		raw   string
	}{
		{"version", "250-version=0.4.8.9 (git-abc)", vo.EventVersionInfo, "0.4.8.9 (git-abc)", "250-version=0.4.8.9 (git-abc)"},
		{"version crlf", "250-version=0.2.7.x\r\n", vo.EventVersionInfo, "0.2.7.x", "250-version=0.2.7.x"},
		{"service id", "250-ServiceID=abc123", vo.EventServiceID, "abc123", "250-ServiceID=abc123"},
		{"private key", "250-PrivateKey=ED25519-V3:AAAA \r", vo.EventPrivateKey, "ED25519-V3:AAAA", "250-PrivateKey=ED25519-V3:AAAA "},
		{"ok", "250 OK", vo.EventCommandOK, "", "250 OK"},
		{"ok cr", "250 OK\r", vo.EventCommandOK, "", "250 OK"},
		{"error", "551 Internal error", vo.EventUnrecognized, "", "551 Internal error"},
		{"other 250 line", "250-onions/current=abc", vo.EventUnrecognized, "", "250-onions/current=abc"},
		{"empty", "", vo.EventUnrecognized, "", ""},
	}
	p := service.NewControlLineParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := p.Parse(tt.line)
			assert.Equal(t, tt.kind, ev.Kind)
			assert.Equal(t, tt.value, ev.Value)
			assert.Equal(t, tt.raw, ev.Raw)
		})
	}
}
