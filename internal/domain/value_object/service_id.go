package value_object

import (
	"encoding/base32"
	"fmt"
	"strings"

	"golang.org/x/crypto/ed25519"
	"golang.org/x/crypto/sha3"
)

const (
	onionSuffix    = ".onion"
	v2ServiceIDLen = 16
	v3ServiceIDLen = 56
	v3Version      = 0x03
)

// ServiceID is the name part of an onion address, without the ".onion" suffix.
type ServiceID struct{ val string }

// ServiceIDFromPublicKey derives the v3 service id for an ed25519 identity key.
func ServiceIDFromPublicKey(pub ed25519.PublicKey) ServiceID {
	sum := v3Checksum(pub)
	raw := make([]byte, 0, ed25519.PublicKeySize+3)
	raw = append(raw, pub...)
	raw = append(raw, sum[0], sum[1], v3Version)
	return ServiceID{val: strings.ToLower(base32.StdEncoding.EncodeToString(raw))}
}

// ServiceIDFromString accepts a name as reported by the daemon. A trailing
// ".onion" is stripped.
func ServiceIDFromString(s string) ServiceID {
	return ServiceID{val: strings.TrimSuffix(strings.TrimSpace(s), onionSuffix)}
}

func (s ServiceID) String() string         { return s.val }
func (s ServiceID) Hostname() string       { return s.val + onionSuffix }
func (s ServiceID) IsZero() bool           { return s.val == "" }
func (s ServiceID) Equal(o ServiceID) bool { return strings.EqualFold(s.val, o.val) }

// Version reports 2 or 3 based on the id length, 0 if neither.
func (s ServiceID) Version() int {
	switch len(s.val) {
	case v2ServiceIDLen:
		return 2
	case v3ServiceIDLen:
		return 3
	default:
		return 0
	}
}

// Verify checks the embedded checksum of a v3 id. v2 ids carry no checksum
// and only get a length and alphabet check.
func (s ServiceID) Verify() error {
	switch s.Version() {
	case 2:
		if _, err := base32.StdEncoding.DecodeString(strings.ToUpper(s.val)); err != nil {
			return fmt.Errorf("service id %q: %w", s.val, err)
		}
		return nil
	case 3:
		raw, err := base32.StdEncoding.DecodeString(strings.ToUpper(s.val))
		if err != nil {
			return fmt.Errorf("service id %q: %w", s.val, err)
		}
		pub := raw[:ed25519.PublicKeySize]
		if raw[len(raw)-1] != v3Version {
			return fmt.Errorf("service id %q: unknown version %d", s.val, raw[len(raw)-1])
		}
		sum := v3Checksum(pub)
		if raw[32] != sum[0] || raw[33] != sum[1] {
			return fmt.Errorf("service id %q: checksum mismatch", s.val)
		}
		return nil
	default:
		return fmt.Errorf("service id %q: unexpected length %d", s.val, len(s.val))
	}
}

func v3Checksum(pub []byte) [32]byte {
	h := sha3.New256()
	h.Write([]byte(".onion checksum"))
	h.Write(pub)
	h.Write([]byte{v3Version})
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
