// Package aptrepo registers third-party apt repositories: a signing key in a
// dedicated keyring plus a one-line source entry that references it.
package aptrepo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"text/template"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/dustin/go-humanize"

	"github.com/alexisbeaulieu97/devstrap/internal/fetch"
	"github.com/alexisbeaulieu97/devstrap/internal/logger"
	"github.com/alexisbeaulieu97/devstrap/internal/osrelease"
	"github.com/alexisbeaulieu97/devstrap/internal/system"
	"github.com/alexisbeaulieu97/devstrap/pkg/diff"
)

const fileMode = 0o644

// Source describes one repository.
type Source struct {
	KeyURL   string
	Keyring  string
	ListFile string
	// Entry is a text/template rendered with EntryData.
	Entry string
	// Suite, when set, is used instead of the detected codename.
	Suite string
}

// EntryData is the template context for Source.Entry.
type EntryData struct {
	Codename string
	Suite    string
	Arch     string
	Keyring  string
}

// Registrar adds repositories through the host's privileged channel.
type Registrar struct {
	host      system.Host
	fetcher   fetch.Fetcher
	osRelease string
	log       *logger.Logger
}

// NewRegistrar returns a Registrar reading the distribution codename from
// osReleasePath.
func NewRegistrar(host system.Host, fetcher fetch.Fetcher, osReleasePath string, log *logger.Logger) *Registrar {
	return &Registrar{host: host, fetcher: fetcher, osRelease: osReleasePath, log: log}
}

// Render produces the source entry line, terminated by a newline. It fails
// with a DetectionError when the codename is needed but unknown.
func (r *Registrar) Render(ctx context.Context, src Source) (string, error) {
	data := EntryData{Suite: src.Suite, Keyring: src.Keyring}

	if src.Suite != "" {
		data.Codename = src.Suite
	} else {
		info, err := osrelease.Read(r.host, r.osRelease)
		if err != nil {
			return "", err
		}
		codename, err := info.Codename()
		if err != nil {
			return "", err
		}
		data.Codename = codename
		data.Suite = codename
	}

	arch, err := r.host.Output(ctx, system.Command{Name: "dpkg", Args: []string{"--print-architecture"}})
	if err != nil {
		return "", fmt.Errorf("detect dpkg architecture: %w", err)
	}
	data.Arch = strings.TrimSpace(arch)

	tmpl, err := template.New(src.ListFile).Option("missingkey=error").Parse(src.Entry)
	if err != nil {
		return "", fmt.Errorf("parse entry template for %s: %w", src.ListFile, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render entry for %s: %w", src.ListFile, err)
	}
	return strings.TrimSpace(buf.String()) + "\n", nil
}

// Registered reports whether the keyring is installed and the list file holds
// exactly the rendered entry.
func (r *Registrar) Registered(ctx context.Context, src Source) (bool, error) {
	entry, err := r.Render(ctx, src)
	if err != nil {
		return false, err
	}
	if !r.host.PathExists(src.Keyring) {
		return false, nil
	}
	current, err := r.host.ReadFile(src.ListFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", src.ListFile, err)
	}
	return string(current) == entry, nil
}

// Register replaces any existing list file, installs the signing key, writes
// the entry and refreshes the package index. Codename detection happens
// before anything is touched.
func (r *Registrar) Register(ctx context.Context, src Source) error {
	entry, err := r.Render(ctx, src)
	if err != nil {
		return err
	}

	if err := r.host.RemovePrivileged(ctx, src.ListFile); err != nil {
		return fmt.Errorf("remove stale %s: %w", src.ListFile, err)
	}

	raw, err := r.fetcher.Fetch(ctx, src.KeyURL)
	if err != nil {
		return fmt.Errorf("fetch signing key: %w", err)
	}
	keyring, err := Dearmor(raw)
	if err != nil {
		return fmt.Errorf("signing key from %s: %w", src.KeyURL, err)
	}
	r.log.Debugf("installing %s keyring at %s", humanize.Bytes(uint64(len(keyring))), src.Keyring)
	if err := r.host.WritePrivileged(ctx, src.Keyring, keyring, fileMode); err != nil {
		return fmt.Errorf("install keyring %s: %w", src.Keyring, err)
	}

	if err := r.host.WritePrivileged(ctx, src.ListFile, []byte(entry), fileMode); err != nil {
		return fmt.Errorf("write %s: %w", src.ListFile, err)
	}

	return r.host.UpdatePackageIndex(ctx)
}

// Preview returns the list-file diff Register would produce.
func (r *Registrar) Preview(ctx context.Context, src Source) (string, error) {
	entry, err := r.Render(ctx, src)
	if err != nil {
		return "", err
	}
	before, err := r.host.ReadFile(src.ListFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("read %s: %w", src.ListFile, err)
	}
	return diff.Unified(before, []byte(entry), src.ListFile, src.ListFile), nil
}

// Dearmor converts an ASCII-armored key to its binary form and checks that
// the result parses as an OpenPGP keyring. Binary input is validated and
// returned as is.
func Dearmor(data []byte) ([]byte, error) {
	bin := data
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("-----BEGIN PGP")) {
		block, err := armor.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode armor: %w", err)
		}
		if bin, err = io.ReadAll(block.Body); err != nil {
			return nil, fmt.Errorf("decode armor: %w", err)
		}
	}

	entities, err := openpgp.ReadKeyRing(bytes.NewReader(bin))
	if err != nil {
		return nil, fmt.Errorf("not an OpenPGP keyring: %w", err)
	}
	if len(entities) == 0 {
		return nil, errors.New("keyring contains no keys")
	}
	return bin, nil
}
