package service

import (
	"ikedadada/go-onionctl/internal/domain/entity"
	vo "ikedadada/go-onionctl/internal/domain/value_object"
)

// AttachRequest is the per-session input shared by all strategies.
type AttachRequest struct {
	// LocalPort is the port of the locally bound listener.
	LocalPort uint16
	Options   vo.OnionOptions
	// Stored is previously persisted key material; zero when there is none.
	Stored vo.KeyBlob
}

// AttachmentStrategy publishes a hidden service in one dialect.
type AttachmentStrategy interface {
	Dialect() vo.Dialect
	// Attach prepares local state and returns the command lines to send.
	Attach(sess *entity.ControlSession, req AttachRequest) ([]string, error)
	// Handle consumes one reply event and reports true once the service is
	// published and sess carries its address.
	Handle(sess *entity.ControlSession, req AttachRequest, ev vo.ControlEvent) (bool, error)
}
