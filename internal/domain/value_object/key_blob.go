package value_object

import (
	"crypto/sha512"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/ed25519"
)

// Key type prefixes used by the control protocol.
const (
	KeyTypeED25519V3 = "ED25519-V3"
	KeyTypeRSA1024   = "RSA1024"
)

const rsaPEMType = "RSA PRIVATE KEY"

// ErrUnsupportedKey is returned when a stored key cannot be expressed in the
// form a dialect needs.
var ErrUnsupportedKey = errors.New("unsupported key material")

// KeyKind tags the two stored forms of key material.
type KeyKind string

const (
	// KeyKindRaw holds a control-protocol key blob ("<type>:<base64>").
	KeyKindRaw KeyKind = "raw"
	// KeyKindDirectory holds the contents of a service directory's private_key file.
	KeyKindDirectory KeyKind = "directory"
)

// KeyBlob is stored credential material, optionally paired with the service
// id it was published under. The zero value means "no credential".
type KeyBlob struct {
	kind KeyKind
	key  string
	name ServiceID
}

func NewRawKeyBlob(key string, name ServiceID) KeyBlob {
	return KeyBlob{kind: KeyKindRaw, key: strings.TrimSpace(key), name: name}
}

func NewDirectoryKeyBlob(name ServiceID, privateKey string) KeyBlob {
	return KeyBlob{kind: KeyKindDirectory, key: privateKey, name: name}
}

// NewED25519V3KeyBlob encodes priv the way the daemon expects ED25519-V3 keys:
// the clamped SHA-512 expansion of the seed.
func NewED25519V3KeyBlob(priv ed25519.PrivateKey) KeyBlob {
	h := sha512.Sum512(priv.Seed())
	h[0] &= 248
	h[31] &= 127
	h[31] |= 64
	key := KeyTypeED25519V3 + ":" + base64.StdEncoding.EncodeToString(h[:])
	return NewRawKeyBlob(key, ServiceIDFromPublicKey(priv.Public().(ed25519.PublicKey)))
}

func (b KeyBlob) Kind() KeyKind   { return b.kind }
func (b KeyBlob) Key() string     { return b.key }
func (b KeyBlob) Name() ServiceID { return b.name }
func (b KeyBlob) IsEmpty() bool   { return b.key == "" }

// ControlKey returns the key in the "<type>:<base64>" form accepted by ADD_ONION.
func (b KeyBlob) ControlKey() (string, error) {
	switch b.kind {
	case KeyKindRaw:
		if !strings.Contains(b.key, ":") {
			return "", fmt.Errorf("%w: raw key without type prefix", ErrUnsupportedKey)
		}
		return b.key, nil
	case KeyKindDirectory:
		blk, _ := pem.Decode([]byte(b.key))
		if blk == nil || blk.Type != rsaPEMType {
			return "", fmt.Errorf("%w: directory key is not an RSA PEM block", ErrUnsupportedKey)
		}
		return KeyTypeRSA1024 + ":" + base64.StdEncoding.EncodeToString(blk.Bytes), nil
	default:
		return "", fmt.Errorf("%w: kind %q", ErrUnsupportedKey, b.kind)
	}
}

// DirectoryKey returns the key as the PEM text a service directory holds.
func (b KeyBlob) DirectoryKey() (string, error) {
	switch b.kind {
	case KeyKindDirectory:
		return b.key, nil
	case KeyKindRaw:
		typ, body, ok := strings.Cut(b.key, ":")
		if !ok || typ != KeyTypeRSA1024 {
			return "", fmt.Errorf("%w: %q keys cannot be placed in a service directory", ErrUnsupportedKey, typ)
		}
		der, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnsupportedKey, err)
		}
		return string(pem.EncodeToMemory(&pem.Block{Type: rsaPEMType, Bytes: der})), nil
	default:
		return "", fmt.Errorf("%w: kind %q", ErrUnsupportedKey, b.kind)
	}
}
