package service

import (
	"strings"

	vo "ikedadada/go-onionctl/internal/domain/value_object"
)

// Reply prefixes understood by the attachment sequence.
const (
	PrefixVersion    = "250-version="
	PrefixServiceID  = "250-ServiceID="
	PrefixPrivateKey = "250-PrivateKey="
	PrefixCommandOK  = "250 OK"
)

// ControlLineParser classifies one control reply line.
type ControlLineParser interface {
	Parse(line string) vo.ControlEvent
}

type controlLineParser struct{}

// NewControlLineParser returns the stateless prefix classifier.
func NewControlLineParser() ControlLineParser { return controlLineParser{} }

func (controlLineParser) Parse(line string) vo.ControlEvent {
	raw := strings.TrimRight(line, "\r\n")
	ev := vo.ControlEvent{Kind: vo.EventUnrecognized, Raw: raw}
	switch {
	case strings.HasPrefix(raw, PrefixVersion):
		ev.Kind, ev.Value = vo.EventVersionInfo, strings.TrimSpace(raw[len(PrefixVersion):])
	case strings.HasPrefix(raw, PrefixServiceID):
		ev.Kind, ev.Value = vo.EventServiceID, strings.TrimSpace(raw[len(PrefixServiceID):])
	case strings.HasPrefix(raw, PrefixPrivateKey):
		ev.Kind, ev.Value = vo.EventPrivateKey, strings.TrimSpace(raw[len(PrefixPrivateKey):])
	case strings.HasPrefix(raw, PrefixCommandOK):
		ev.Kind = vo.EventCommandOK
	}
	return ev
}
