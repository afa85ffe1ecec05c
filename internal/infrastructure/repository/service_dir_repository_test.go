package repository_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"os/user"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	repoif "ikedadada/go-onionctl/internal/domain/repository"
	vo "ikedadada/go-onionctl/internal/domain/value_object"
	repoImpl "ikedadada/go-onionctl/internal/infrastructure/repository"
)

func currentGroup(t *testing.T) string {
	t.Helper()
	u, err := user.Current()
	require.NoError(t, err)
	g, err := user.LookupGroupId(u.Gid)
	if err != nil {
		t.Skipf("lookup group: %v", err)
	}
	return g.Name
}

func TestServiceDirRepo_PrepareCreatesPrivateDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "hs")
	repo := repoImpl.NewServiceDirRepository(nil, "no-such-group-for-tests", currentGroup(t))

	require.NoError(t, repo.Prepare(dir, true))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())

	// A second prepare of an existing directory is fine.
	require.NoError(t, repo.Prepare(dir, true))
}

func TestServiceDirRepo_PrepareWithoutKnownAccount(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "hs")
	repo := repoImpl.NewServiceDirRepository(nil, "no-such-group-for-tests")
	require.NoError(t, repo.Prepare(dir, true))
}

func TestServiceDirRepo_PrepareWithoutCacheRemovesKey(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "hs")
	repo := repoImpl.NewServiceDirRepository(nil, "no-such-group-for-tests")
	require.NoError(t, repo.Prepare(dir, true))
	keyPath := filepath.Join(dir, "private_key")
	require.NoError(t, os.WriteFile(keyPath, []byte("old"), 0o600))

	require.NoError(t, repo.Prepare(dir, false))
	_, err := os.Stat(keyPath)
	assert.True(t, os.IsNotExist(err))
}

func TestServiceDirRepo_MaterializeReadBack(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)
	pemText := string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}))

	dir := filepath.Join(t.TempDir(), "hs")
	repo := repoImpl.NewServiceDirRepository(nil, "no-such-group-for-tests")
	require.NoError(t, repo.Prepare(dir, true))

	blob := vo.NewDirectoryKeyBlob(vo.ServiceIDFromString("abcdefghijklmnop"), pemText)
	require.NoError(t, repo.Materialize(dir, blob))

	host, priv, err := repo.ReadBack(dir, true)
	require.NoError(t, err)
	assert.Equal(t, "abcdefghijklmnop.onion", host)
	assert.Equal(t, pemText, priv)

	host, priv, err = repo.ReadBack(dir, false)
	require.NoError(t, err)
	assert.Equal(t, "abcdefghijklmnop.onion", host)
	assert.Empty(t, priv)
}

func TestServiceDirRepo_MaterializeRejectsED25519(t *testing.T) {
	dir := t.TempDir()
	repo := repoImpl.NewServiceDirRepository(nil)
	err := repo.Materialize(dir, vo.NewRawKeyBlob(testKey, vo.ServiceID{}))
	assert.ErrorIs(t, err, vo.ErrUnsupportedKey)
}

func TestServiceDirRepo_ReadBackMissing(t *testing.T) {
	_, _, err := repoImpl.NewServiceDirRepository(nil).ReadBack(t.TempDir(), false)
	assert.ErrorIs(t, err, repoif.ErrCredentialIO)
}
