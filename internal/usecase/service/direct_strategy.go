package service

import (
	"fmt"
	"log/slog"
	"strings"

	"ikedadada/go-onionctl/internal/domain/entity"
	"ikedadada/go-onionctl/internal/domain/repository"
	vo "ikedadada/go-onionctl/internal/domain/value_object"
)

const newKeyRequest = "NEW:BEST"

type directStrategy struct {
	keys   repository.KeyMaterialRepository
	logger *slog.Logger
}

// NewDirectStrategy publishes services with ADD_ONION.
func NewDirectStrategy(keys repository.KeyMaterialRepository, logger *slog.Logger) AttachmentStrategy {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &directStrategy{keys: keys, logger: logger}
}

func (s *directStrategy) Dialect() vo.Dialect { return vo.DialectDirect }

func (s *directStrategy) Attach(sess *entity.ControlSession, req AttachRequest) ([]string, error) {
	key := newKeyRequest
	if !req.Stored.IsEmpty() {
		ck, err := req.Stored.ControlKey()
		if err != nil {
			s.logger.Warn("stored key material unusable, requesting a new identity", "session", sess.ID().String(), "err", err)
		} else {
			key = ck
		}
	}

	var b strings.Builder
	b.WriteString("ADD_ONION ")
	b.WriteString(key)
	if !req.Options.CacheKeyMaterial {
		b.WriteString(" Flags=DiscardPK")
	}
	fmt.Fprintf(&b, " Port=%d,%d", sess.Port(), req.LocalPort)
	return []string{b.String()}, nil
}

func (s *directStrategy) Handle(sess *entity.ControlSession, req AttachRequest, ev vo.ControlEvent) (bool, error) {
	switch ev.Kind {
	case vo.EventServiceID:
		id := vo.ServiceIDFromString(ev.Value)
		if id.IsZero() {
			return false, violation(ev.Raw, "empty service id")
		}
		if err := id.Verify(); err != nil {
			s.logger.Warn("service id did not verify", "session", sess.ID().String(), "err", err)
		}
		if name := req.Stored.Name(); !name.IsZero() && !name.Equal(id) {
			s.logger.Warn("daemon published a different service id than stored", "session", sess.ID().String(), "stored", name.String(), "published", id.String())
		}
		if err := sess.SetAddress(vo.NewOnionAddress(id, sess.Port())); err != nil {
			return false, violation(ev.Raw, "%v", err)
		}
		return false, nil

	case vo.EventPrivateKey:
		if !req.Options.CacheKeyMaterial {
			s.logger.Warn("private key received although discard was requested, not storing", "session", sess.ID().String())
			return false, nil
		}
		addr, ok := sess.Address()
		if !ok {
			return false, violation(ev.Raw, "private key before service id")
		}
		if err := s.keys.Save(req.Options.KeyRef, vo.NewRawKeyBlob(ev.Value, addr.ServiceID())); err != nil {
			return false, err
		}
		return false, nil

	case vo.EventCommandOK:
		if _, ok := sess.Address(); !ok {
			return false, violation(ev.Raw, "ADD_ONION accepted without a service id")
		}
		return true, nil

	default:
		return false, violation(ev.Raw, "unexpected %s reply to ADD_ONION", ev.Kind)
	}
}
