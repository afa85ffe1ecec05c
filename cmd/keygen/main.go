package main

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"golang.org/x/crypto/ed25519"

	vo "ikedadada/go-onionctl/internal/domain/value_object"
	"ikedadada/go-onionctl/internal/infrastructure/logging"
	"ikedadada/go-onionctl/internal/infrastructure/repository"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "keygen:", err)
		os.Exit(1)
	}
}

// run mints an ED25519-V3 service key and stores it as a key record, so
// the service address is known before the first attachment.
func run(args []string, stdout io.Writer) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	fs := pflag.NewFlagSet("keygen", pflag.ContinueOnError)
	out := fs.StringP("out", "o", filepath.Join(wd, vo.DefaultKeyFileName), "key record to write")
	force := fs.BoolP("force", "f", false, "overwrite an existing key record")
	if err := fs.Parse(args); err != nil {
		return err
	}

	keys := repository.NewKeyMaterialRepository(logging.Discard())
	ref := vo.KeyRefFromPath(*out)
	if !*force {
		existing, err := keys.Load(ref)
		if err != nil {
			return err
		}
		if !existing.IsEmpty() {
			return fmt.Errorf("%s already holds a key for %s (use --force to replace it)", *out, existing.Name().Hostname())
		}
	}

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return err
	}
	blob := vo.NewED25519V3KeyBlob(priv)
	if err := keys.Save(ref, blob); err != nil {
		return err
	}
	fmt.Fprintln(stdout, "generated", *out, "for", blob.Name().Hostname())
	return nil
}
