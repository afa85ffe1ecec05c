package service

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"

	"ikedadada/go-onionctl/internal/domain/entity"
	"ikedadada/go-onionctl/internal/domain/repository"
	vo "ikedadada/go-onionctl/internal/domain/value_object"
)

type directoryStrategy struct {
	keys   repository.KeyMaterialRepository
	dirs   repository.ServiceDirRepository
	logger *slog.Logger
}

// NewDirectoryStrategy publishes services by pointing the daemon at a
// service directory with SETCONF, for daemons without ADD_ONION.
func NewDirectoryStrategy(keys repository.KeyMaterialRepository, dirs repository.ServiceDirRepository, logger *slog.Logger) AttachmentStrategy {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &directoryStrategy{keys: keys, dirs: dirs, logger: logger}
}

func (s *directoryStrategy) Dialect() vo.Dialect { return vo.DialectDirectoryConfig }

// serviceDir is absolute: the daemon resolves paths against its own cwd.
func serviceDir(req AttachRequest) (string, error) {
	if req.Options.ServiceDir == "" {
		return "", errors.New("service directory not configured")
	}
	return filepath.Abs(req.Options.ServiceDir)
}

func (s *directoryStrategy) Attach(sess *entity.ControlSession, req AttachRequest) ([]string, error) {
	dir, err := serviceDir(req)
	if err != nil {
		return nil, err
	}
	if err := s.dirs.Prepare(dir, req.Options.CacheKeyMaterial); err != nil {
		return nil, err
	}
	if req.Options.CacheKeyMaterial && !req.Stored.IsEmpty() {
		err := s.dirs.Materialize(dir, req.Stored)
		switch {
		case errors.Is(err, vo.ErrUnsupportedKey):
			s.logger.Warn("stored key material cannot be used by this daemon, a new identity will be created", "session", sess.ID().String(), "err", err)
		case err != nil:
			return nil, err
		}
	}

	// One SETCONF: the daemon rejects a service directory without a port.
	line := fmt.Sprintf("SETCONF HiddenServiceDir=%s HiddenServicePort=\"%d 127.0.0.1:%d\"",
		strconv.Quote(dir), sess.Port(), req.LocalPort)
	return []string{line}, nil
}

func (s *directoryStrategy) Handle(sess *entity.ControlSession, req AttachRequest, ev vo.ControlEvent) (bool, error) {
	if ev.Kind != vo.EventCommandOK {
		return false, violation(ev.Raw, "unexpected %s reply to SETCONF", ev.Kind)
	}
	dir, err := serviceDir(req)
	if err != nil {
		return false, err
	}
	hostname, key, err := s.dirs.ReadBack(dir, req.Options.CacheKeyMaterial)
	if err != nil {
		return false, err
	}
	id := vo.ServiceIDFromString(hostname)
	if err := sess.SetAddress(vo.NewOnionAddress(id, sess.Port())); err != nil {
		return false, violation(ev.Raw, "%v", err)
	}
	if req.Options.CacheKeyMaterial {
		if err := s.keys.Save(req.Options.KeyRef, vo.NewDirectoryKeyBlob(id, key)); err != nil {
			return false, err
		}
	}
	return true, nil
}
