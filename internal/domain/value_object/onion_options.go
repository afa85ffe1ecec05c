package value_object

import (
	"fmt"
	"math/rand/v2"
	"path/filepath"
)

const (
	// DefaultKeyFileName is created in the working directory unless configured.
	DefaultKeyFileName = ".onionservice"
	// DefaultServiceDirName is the directory handed to legacy daemons.
	DefaultServiceDirName = ".onionservice.d"

	maxPort = 65535
)

// OnionOptions configures one attachment.
type OnionOptions struct {
	// RequestedPort is the public port; 0 picks one at random.
	RequestedPort int
	// KeyRef is where key material is persisted and restored.
	KeyRef KeyRef
	// CacheKeyMaterial keeps the private key. When false the daemon is asked to
	// discard it and any local copy is removed.
	CacheKeyMaterial bool
	// ServiceDir is used only by the directory-config dialect.
	ServiceDir string
}

// DefaultOnionOptions returns options rooted at workDir.
func DefaultOnionOptions(workDir string) OnionOptions {
	return OnionOptions{
		KeyRef:           KeyRefFromPath(filepath.Join(workDir, DefaultKeyFileName)),
		CacheKeyMaterial: true,
		ServiceDir:       filepath.Join(workDir, DefaultServiceDirName),
	}
}

func (o OnionOptions) Validate() error {
	if o.RequestedPort < 0 || o.RequestedPort > maxPort {
		return fmt.Errorf("requested port %d out of range [0, %d]", o.RequestedPort, maxPort)
	}
	if o.KeyRef.IsZero() {
		return fmt.Errorf("key material reference is empty")
	}
	return nil
}

// ResolvePort returns the requested port, or a uniformly random one in
// [0, 65535] when none was requested. Call once per session.
func (o OnionOptions) ResolvePort() uint16 {
	if o.RequestedPort == 0 {
		return uint16(rand.IntN(maxPort + 1))
	}
	return uint16(o.RequestedPort)
}
