package repository

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	repoif "ikedadada/go-onionctl/internal/domain/repository"
	vo "ikedadada/go-onionctl/internal/domain/value_object"
)

// keyRecord is the on-disk form of a KeyBlob. Files holding only a bare
// "<type>:<base64>" blob are still read as kind raw.
type keyRecord struct {
	Kind vo.KeyKind `yaml:"kind"`
	Key  string     `yaml:"key"`
	Name string     `yaml:"name,omitempty"`
}

type keyMaterialRepositoryImpl struct {
	logger *slog.Logger
}

// NewKeyMaterialRepository stores key material in files or caller-provided streams.
func NewKeyMaterialRepository(logger *slog.Logger) repoif.KeyMaterialRepository {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &keyMaterialRepositoryImpl{logger: logger}
}

func (r *keyMaterialRepositoryImpl) Load(ref vo.KeyRef) (vo.KeyBlob, error) {
	var (
		data []byte
		err  error
	)
	switch {
	case ref.Stream() != nil:
		if err := rewind(ref.Stream()); err != nil {
			return vo.KeyBlob{}, fmt.Errorf("%w: rewind %s: %v", repoif.ErrCredentialIO, ref, err)
		}
		data, err = io.ReadAll(ref.Stream())
	case ref.Path() != "":
		data, err = os.ReadFile(ref.Path())
		if errors.Is(err, fs.ErrNotExist) {
			r.logger.Debug("no stored key material", "ref", ref.String())
			return vo.KeyBlob{}, nil
		}
	default:
		return vo.KeyBlob{}, fmt.Errorf("%w: empty key reference", repoif.ErrCredentialIO)
	}
	if err != nil {
		return vo.KeyBlob{}, fmt.Errorf("%w: read %s: %v", repoif.ErrCredentialIO, ref, err)
	}
	return decodeKeyBlob(data)
}

func (r *keyMaterialRepositoryImpl) Save(ref vo.KeyRef, blob vo.KeyBlob) error {
	if blob.IsEmpty() {
		return fmt.Errorf("%w: refusing to save empty key material", repoif.ErrCredentialIO)
	}
	data, err := yaml.Marshal(keyRecord{Kind: blob.Kind(), Key: blob.Key(), Name: blob.Name().String()})
	if err != nil {
		return fmt.Errorf("%w: encode: %v", repoif.ErrCredentialIO, err)
	}

	switch {
	case ref.Stream() != nil:
		err = writeStream(ref.Stream(), data)
	case ref.Path() != "":
		err = os.WriteFile(ref.Path(), data, 0o600)
	default:
		return fmt.Errorf("%w: empty key reference", repoif.ErrCredentialIO)
	}
	if err != nil {
		return fmt.Errorf("%w: write %s: %v", repoif.ErrCredentialIO, ref, err)
	}
	r.logger.Info("stored key material", "ref", ref.String(), "kind", string(blob.Kind()), "service_id", blob.Name().String())
	return nil
}

func (r *keyMaterialRepositoryImpl) Delete(ref vo.KeyRef) error {
	switch {
	case ref.Stream() != nil:
		t, ok := ref.Stream().(truncater)
		if !ok {
			r.logger.Debug("key stream cannot be truncated, leaving content", "ref", ref.String())
			return nil
		}
		if err := t.Truncate(0); err != nil {
			return fmt.Errorf("%w: truncate %s: %v", repoif.ErrCredentialIO, ref, err)
		}
	case ref.Path() != "":
		err := os.Remove(ref.Path())
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: remove %s: %v", repoif.ErrCredentialIO, ref, err)
		}
	default:
		return nil
	}
	r.logger.Info("removed cached key material", "ref", ref.String())
	return nil
}

func decodeKeyBlob(data []byte) (vo.KeyBlob, error) {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return vo.KeyBlob{}, nil
	}
	var rec keyRecord
	if err := yaml.Unmarshal(data, &rec); err != nil || (rec.Kind == "" && rec.Key == "") {
		return vo.NewRawKeyBlob(text, vo.ServiceID{}), nil
	}
	name := vo.ServiceIDFromString(rec.Name)
	switch rec.Kind {
	case vo.KeyKindRaw, "":
		return vo.NewRawKeyBlob(rec.Key, name), nil
	case vo.KeyKindDirectory:
		return vo.NewDirectoryKeyBlob(name, rec.Key), nil
	default:
		return vo.KeyBlob{}, fmt.Errorf("%w: unknown key kind %q", repoif.ErrCredentialIO, rec.Kind)
	}
}

type truncater interface {
	Truncate(size int64) error
}

func rewind(s io.ReadWriter) error {
	if sk, ok := s.(io.Seeker); ok {
		_, err := sk.Seek(0, io.SeekStart)
		return err
	}
	return nil
}

// writeStream replaces the stream content and releases it.
func writeStream(s io.ReadWriter, data []byte) error {
	if err := rewind(s); err != nil {
		return err
	}
	if t, ok := s.(truncater); ok {
		if err := t.Truncate(0); err != nil {
			return err
		}
	}
	if _, err := s.Write(data); err != nil {
		return err
	}
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
