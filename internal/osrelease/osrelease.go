// Package osrelease reads the freedesktop os-release identification file.
package osrelease

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/alexisbeaulieu97/devstrap/internal/system"
	devstraperrors "github.com/alexisbeaulieu97/devstrap/pkg/errors"
)

// codenameKeys are consulted in order. Downstream distributions (Linux Mint,
// Pop!_OS, elementary) carry the Ubuntu base in UBUNTU_CODENAME while their
// VERSION_CODENAME names their own release.
var codenameKeys = []string{"UBUNTU_CODENAME", "VERSION_CODENAME", "DEBIAN_CODENAME"}

// Info is the parsed identification data.
type Info struct {
	Source string
	fields map[string]string
}

// Read loads and parses the os-release file at path.
func Read(state system.State, path string) (Info, error) {
	data, err := state.ReadFile(path)
	if err != nil {
		return Info{}, devstraperrors.NewDetectionError("system identification", path, err)
	}
	return Parse(data, path)
}

// Parse decodes os-release content; source is only used for diagnostics.
func Parse(data []byte, source string) (Info, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:     true,
		SkipUnrecognizableLines: true,
	}, data)
	if err != nil {
		return Info{}, devstraperrors.NewDetectionError("system identification", source, fmt.Errorf("parse: %w", err))
	}

	info := Info{Source: source, fields: make(map[string]string)}
	for _, key := range f.Section(ini.DefaultSection).Keys() {
		info.fields[key.Name()] = strings.TrimSpace(key.String())
	}
	return info, nil
}

// Get returns the raw value of a field, or "" when absent.
func (i Info) Get(key string) string {
	return i.fields[key]
}

// ID returns the distribution identifier, e.g. "ubuntu".
func (i Info) ID() string {
	return i.Get("ID")
}

// PrettyName returns the human-readable distribution name.
func (i Info) PrettyName() string {
	if name := i.Get("PRETTY_NAME"); name != "" {
		return name
	}
	return i.Get("NAME")
}

// DebianFamily reports whether the distribution is Debian or derived from it.
func (i Info) DebianFamily() bool {
	ids := append([]string{i.ID()}, strings.Fields(i.Get("ID_LIKE"))...)
	for _, id := range ids {
		if id == "debian" || id == "ubuntu" {
			return true
		}
	}
	return false
}

// Codename returns the distribution codename used in apt source entries.
func (i Info) Codename() (string, error) {
	for _, key := range codenameKeys {
		if v := i.Get(key); v != "" {
			return v, nil
		}
	}
	return "", devstraperrors.NewDetectionError("distribution codename", i.Source,
		fmt.Errorf("none of %s is set", strings.Join(codenameKeys, ", ")))
}
