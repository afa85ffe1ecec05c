package value_object_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"strings"
	"testing"

	vo "ikedadada/go-onionctl/internal/domain/value_object"

	"golang.org/x/crypto/ed25519"
)

func TestNewED25519V3KeyBlob(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	blob := vo.NewED25519V3KeyBlob(priv)
	if blob.Kind() != vo.KeyKindRaw {
		t.Errorf("unexpected kind %s", blob.Kind())
	}
	typ, body, ok := strings.Cut(blob.Key(), ":")
	if !ok || typ != vo.KeyTypeED25519V3 {
		t.Fatalf("unexpected key %s", blob.Key())
	}
	raw, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(raw) != 64 {
		t.Errorf("expanded key should be 64 bytes, got %d", len(raw))
	}
	if raw[0]&7 != 0 || raw[31]&128 != 0 || raw[31]&64 == 0 {
		t.Errorf("expanded key is not clamped")
	}
	if !blob.Name().Equal(vo.ServiceIDFromPublicKey(pub)) {
		t.Errorf("name does not match public key")
	}
	ck, err := blob.ControlKey()
	if err != nil || ck != blob.Key() {
		t.Errorf("ControlKey = %q, %v", ck, err)
	}
	if _, err := blob.DirectoryKey(); !errors.Is(err, vo.ErrUnsupportedKey) {
		t.Errorf("expected ErrUnsupportedKey, got %v", err)
	}
}

func TestKeyBlob_RSARoundTrip(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der := x509.MarshalPKCS1PrivateKey(key)
	pemText := string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: der}))

	dir := vo.NewDirectoryKeyBlob(vo.ServiceIDFromString("abcdefghijklmnop"), pemText)
	ck, err := dir.ControlKey()
	if err != nil {
		t.Fatalf("ControlKey: %v", err)
	}
	if ck != "RSA1024:"+base64.StdEncoding.EncodeToString(der) {
		t.Errorf("unexpected control key %s", ck)
	}

	raw := vo.NewRawKeyBlob(ck, dir.Name())
	back, err := raw.DirectoryKey()
	if err != nil {
		t.Fatalf("DirectoryKey: %v", err)
	}
	if back != pemText {
		t.Errorf("PEM mismatch after round trip")
	}
}

func TestKeyBlob_Errors_Table(t *testing.T) {
	tests := []struct {
		name string
		blob vo.KeyBlob
	}{
		{"raw without prefix", vo.NewRawKeyBlob("deadbeef", vo.ServiceID{})},
		{"directory not pem", vo.NewDirectoryKeyBlob(vo.ServiceID{}, "not pem")},
		{"zero", vo.KeyBlob{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.blob.ControlKey(); !errors.Is(err, vo.ErrUnsupportedKey) {
				t.Errorf("expected ErrUnsupportedKey, got %v", err)
			}
		})
	}
	if !(vo.KeyBlob{}).IsEmpty() {
		t.Errorf("zero blob should be empty")
	}
}
