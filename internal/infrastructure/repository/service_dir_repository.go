package repository

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"

	repoif "ikedadada/go-onionctl/internal/domain/repository"
	vo "ikedadada/go-onionctl/internal/domain/value_object"
)

const (
	hostnameFile   = "hostname"
	privateKeyFile = "private_key"

	serviceDirMode = 0o700
	keyFileMode    = 0o600
)

// DefaultDaemonAccounts are the group names control daemons run under on
// common distributions, in lookup order.
var DefaultDaemonAccounts = []string{"debian-tor", "_tor", "tor", "toranon"}

type serviceDirRepositoryImpl struct {
	logger   *slog.Logger
	accounts []string
}

// NewServiceDirRepository manages legacy service directories. accounts
// overrides DefaultDaemonAccounts when given.
func NewServiceDirRepository(logger *slog.Logger, accounts ...string) repoif.ServiceDirRepository {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if len(accounts) == 0 {
		accounts = DefaultDaemonAccounts
	}
	return &serviceDirRepositoryImpl{logger: logger, accounts: accounts}
}

func (r *serviceDirRepositoryImpl) Prepare(dir string, cache bool) error {
	created := false
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(dir, serviceDirMode); err != nil {
			return fmt.Errorf("%w: create %s: %v", repoif.ErrCredentialIO, dir, err)
		}
		created = true
	} else if err != nil {
		return fmt.Errorf("%w: stat %s: %v", repoif.ErrCredentialIO, dir, err)
	}
	if err := os.Chmod(dir, serviceDirMode); err != nil {
		return fmt.Errorf("%w: chmod %s: %v", repoif.ErrCredentialIO, dir, err)
	}
	if created {
		r.assignGroup(dir)
	}

	if !cache {
		err := os.Remove(filepath.Join(dir, privateKeyFile))
		switch {
		case err == nil:
			r.logger.Info("removed cached private key", "dir", dir)
		case !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("%w: remove private key: %v", repoif.ErrCredentialIO, err)
		}
	}
	return nil
}

// assignGroup hands the directory to the first daemon account that exists.
// Not finding one is not fatal; the daemon may run as the current user.
func (r *serviceDirRepositoryImpl) assignGroup(dir string) {
	for _, name := range r.accounts {
		g, err := user.LookupGroup(name)
		if err != nil {
			continue
		}
		gid, err := strconv.Atoi(g.Gid)
		if err != nil {
			r.logger.Warn("daemon group has non-numeric gid", "group", name, "gid", g.Gid)
			continue
		}
		if err := os.Chown(dir, -1, gid); err != nil {
			r.logger.Warn("could not assign service directory group", "dir", dir, "group", name, "err", err)
			return
		}
		r.logger.Info("assigned service directory group", "dir", dir, "group", name)
		return
	}
	r.logger.Warn("no recognized daemon account, keeping directory ownership", "dir", dir, "tried", strings.Join(r.accounts, ","))
}

func (r *serviceDirRepositoryImpl) Materialize(dir string, blob vo.KeyBlob) error {
	key, err := blob.DirectoryKey()
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, privateKeyFile), []byte(key), keyFileMode); err != nil {
		return fmt.Errorf("%w: write private key: %v", repoif.ErrCredentialIO, err)
	}
	if !blob.Name().IsZero() {
		if err := os.WriteFile(filepath.Join(dir, hostnameFile), []byte(blob.Name().Hostname()+"\n"), keyFileMode); err != nil {
			return fmt.Errorf("%w: write hostname: %v", repoif.ErrCredentialIO, err)
		}
	}
	r.logger.Debug("restored service directory", "dir", dir, "service_id", blob.Name().String())
	return nil
}

func (r *serviceDirRepositoryImpl) ReadBack(dir string, cache bool) (string, string, error) {
	b, err := os.ReadFile(filepath.Join(dir, hostnameFile))
	if err != nil {
		return "", "", fmt.Errorf("%w: read hostname: %v", repoif.ErrCredentialIO, err)
	}
	hostname := strings.TrimSpace(string(b))
	if hostname == "" {
		return "", "", fmt.Errorf("%w: empty hostname file in %s", repoif.ErrCredentialIO, dir)
	}
	if !cache {
		return hostname, "", nil
	}
	k, err := os.ReadFile(filepath.Join(dir, privateKeyFile))
	if err != nil {
		return "", "", fmt.Errorf("%w: read private key: %v", repoif.ErrCredentialIO, err)
	}
	return hostname, string(k), nil
}
