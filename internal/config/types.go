package config

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// Step types understood by the plugin registry.
const (
	TypePackages   = "packages"
	TypeRepository = "repository"
	TypeService    = "service"
	TypeProfile    = "profile"
	TypeInstaller  = "installer"
	TypeSSHKey     = "ssh_key"
	TypeFirewall   = "firewall"
	TypeCommand    = "command"
	TypeGroup      = "group"
	TypeLoginShell = "login_shell"
)

// StepTypes lists every step type in the order the registry documents them.
var StepTypes = []string{
	TypePackages, TypeRepository, TypeService, TypeProfile, TypeInstaller,
	TypeSSHKey, TypeFirewall, TypeCommand, TypeGroup, TypeLoginShell,
}

func knownType(t string) bool {
	for _, known := range StepTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Config represents the full devstrap configuration document.
type Config struct {
	Version     string       `yaml:"version" validate:"required,semver"`
	Name        string       `yaml:"name" validate:"required,min=1,max=100"`
	Description string       `yaml:"description,omitempty"`
	Settings    Settings     `yaml:"settings,omitempty"`
	Steps       []Step       `yaml:"steps" validate:"required,min=1,dive"`
	Validations []Validation `yaml:"validations,omitempty" validate:"omitempty,dive"`
}

// Settings holds global execution parameters.
type Settings struct {
	DryRun  bool `yaml:"dry_run,omitempty"`
	Verbose bool `yaml:"verbose,omitempty"`
	// OSRelease is the system identification file consulted for the
	// distribution codename. Defaults to /etc/os-release.
	OSRelease string   `yaml:"os_release,omitempty"`
	Followups []string `yaml:"followups,omitempty" validate:"omitempty,dive,required"`
}

// DefaultOSRelease is used when settings.os_release is empty.
const DefaultOSRelease = "/etc/os-release"

// OSReleasePath returns the configured os-release path or the default.
func (s Settings) OSReleasePath() string {
	if strings.TrimSpace(s.OSRelease) == "" {
		return DefaultOSRelease
	}
	return s.OSRelease
}

// Step describes an individual provisioning unit.
type Step struct {
	ID       string   `yaml:"id" validate:"required,step_id"`
	Name     string   `yaml:"name,omitempty"`
	Type     string   `yaml:"type" validate:"required,oneof=packages repository service profile installer ssh_key firewall command group login_shell"`
	Requires []string `yaml:"requires,omitempty" validate:"omitempty,dive,step_id"`
	Fatal    bool     `yaml:"fatal"`

	Packages   *PackagesStep   `yaml:"-"`
	Repository *RepositoryStep `yaml:"-"`
	Service    *ServiceStep    `yaml:"-"`
	Profile    *ProfileStep    `yaml:"-"`
	Installer  *InstallerStep  `yaml:"-"`
	SSHKey     *SSHKeyStep     `yaml:"-"`
	Firewall   *FirewallStep   `yaml:"-"`
	Command    *CommandStep    `yaml:"-"`
	Group      *GroupStep      `yaml:"-"`
	LoginShell *LoginShellStep `yaml:"-"`
}

// DisplayName returns the human label for the step, falling back to its id.
func (s Step) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// Body returns the type-specific configuration matching s.Type, or nil when
// it is absent.
func (s Step) Body() any {
	var body any
	var present bool
	switch s.Type {
	case TypePackages:
		body, present = s.Packages, s.Packages != nil
	case TypeRepository:
		body, present = s.Repository, s.Repository != nil
	case TypeService:
		body, present = s.Service, s.Service != nil
	case TypeProfile:
		body, present = s.Profile, s.Profile != nil
	case TypeInstaller:
		body, present = s.Installer, s.Installer != nil
	case TypeSSHKey:
		body, present = s.SSHKey, s.SSHKey != nil
	case TypeFirewall:
		body, present = s.Firewall, s.Firewall != nil
	case TypeCommand:
		body, present = s.Command, s.Command != nil
	case TypeGroup:
		body, present = s.Group, s.Group != nil
	case TypeLoginShell:
		body, present = s.LoginShell, s.LoginShell != nil
	}
	if !present {
		return nil
	}
	return body
}

// UnmarshalYAML customises step decoding to populate type-specific structures without conflicts.
// Steps are fatal unless they say otherwise.
func (s *Step) UnmarshalYAML(value *yaml.Node) error {
	type baseStep struct {
		ID       string   `yaml:"id"`
		Name     string   `yaml:"name"`
		Type     string   `yaml:"type"`
		Requires []string `yaml:"requires"`
		Fatal    *bool    `yaml:"fatal"`
	}

	var base baseStep
	if err := value.Decode(&base); err != nil {
		return err
	}

	*s = Step{
		ID:       base.ID,
		Name:     base.Name,
		Type:     base.Type,
		Requires: append([]string(nil), base.Requires...),
		Fatal:    true,
	}
	if base.Fatal != nil {
		s.Fatal = *base.Fatal
	}

	switch base.Type {
	case TypePackages:
		s.Packages = &PackagesStep{}
		return value.Decode(s.Packages)
	case TypeRepository:
		s.Repository = &RepositoryStep{}
		return value.Decode(s.Repository)
	case TypeService:
		s.Service = &ServiceStep{}
		return value.Decode(s.Service)
	case TypeProfile:
		s.Profile = &ProfileStep{}
		return value.Decode(s.Profile)
	case TypeInstaller:
		s.Installer = &InstallerStep{}
		return value.Decode(s.Installer)
	case TypeSSHKey:
		s.SSHKey = &SSHKeyStep{}
		return value.Decode(s.SSHKey)
	case TypeFirewall:
		s.Firewall = &FirewallStep{}
		return value.Decode(s.Firewall)
	case TypeCommand:
		s.Command = &CommandStep{}
		return value.Decode(s.Command)
	case TypeGroup:
		s.Group = &GroupStep{}
		return value.Decode(s.Group)
	case TypeLoginShell:
		s.LoginShell = &LoginShellStep{}
		return value.Decode(s.LoginShell)
	}

	return nil
}

// PackagesStep installs one or more apt packages.
type PackagesStep struct {
	Packages []string `yaml:"packages" validate:"required,min=1,dive,deb_package,max=100"`
	// Update refreshes the package index before installing.
	Update bool `yaml:"update,omitempty"`
}

// RepositoryStep registers a third-party apt repository.
type RepositoryStep struct {
	KeyURL   string `yaml:"key_url" validate:"required,url"`
	Keyring  string `yaml:"keyring" validate:"required,startswith=/"`
	ListFile string `yaml:"list_file" validate:"required,startswith=/,nefield=Keyring"`
	// Entry is a text/template over .Codename, .Arch and .Keyring.
	Entry string `yaml:"entry" validate:"required"`
	// Suite pins the distribution component of the entry; no codename
	// detection happens when it is set.
	Suite string `yaml:"suite,omitempty"`
}

// ServiceStep enables and starts systemd units.
type ServiceStep struct {
	Services []string `yaml:"services" validate:"required,min=1,dive,required"`
}

// ProfileStep appends a sentinel-marked block to shell startup files.
type ProfileStep struct {
	Sentinel string   `yaml:"sentinel" validate:"required"`
	Content  string   `yaml:"content" validate:"required"`
	Targets  []string `yaml:"targets" validate:"required,min=1,dive,host_path"`
}

// InstallerStep runs a network-sourced installer.
type InstallerStep struct {
	Method string            `yaml:"method" validate:"required,oneof=script git"`
	URL    string            `yaml:"url" validate:"required,source_url"`
	Dest   string            `yaml:"dest,omitempty"`
	Ref    string            `yaml:"ref,omitempty"`
	Depth  int               `yaml:"depth,omitempty" validate:"omitempty,min=0"`
	Shell  string            `yaml:"shell,omitempty"`
	Args   []string          `yaml:"args,omitempty"`
	Env    map[string]string `yaml:"env,omitempty"`
	// Creates is a path whose existence means the installer already ran.
	Creates string `yaml:"creates,omitempty"`
	// Command is an executable whose presence means the installer already ran.
	Command string `yaml:"command,omitempty"`
	// Check is a shell snippet whose success means the installer already ran.
	Check string `yaml:"check,omitempty"`
}

// SSHKeyStep generates an ed25519 key pair when absent.
type SSHKeyStep struct {
	Path    string `yaml:"path" validate:"required,host_path"`
	Comment string `yaml:"comment,omitempty"`
}

// FirewallStep allows ufw application profiles and enables the firewall.
type FirewallStep struct {
	Allow []string `yaml:"allow" validate:"required,min=1,dive,required"`
}

// CommandStep executes an arbitrary shell command.
type CommandStep struct {
	Command    string            `yaml:"command" validate:"required,min=1"`
	Check      string            `yaml:"check,omitempty"`
	Creates    string            `yaml:"creates,omitempty"`
	Privileged bool              `yaml:"privileged,omitempty"`
	Shell      string            `yaml:"shell,omitempty"`
	WorkDir    string            `yaml:"workdir,omitempty"`
	Env        map[string]string `yaml:"env,omitempty"`
}

// GroupStep adds the invoking user to a supplementary group.
type GroupStep struct {
	Group string `yaml:"group" validate:"required,unix_name"`
}

// LoginShellStep sets the invoking user's login shell.
type LoginShellStep struct {
	Shell string `yaml:"shell" validate:"required,startswith=/"`
}

// Validation represents a post-run check listed by verify and apply.
type Validation struct {
	Type string `yaml:"type" validate:"required,oneof=command_exists file_exists path_contains"`

	CommandExists *CommandExistsValidation `yaml:"-"`
	FileExists    *FileExistsValidation    `yaml:"-"`
	PathContains  *PathContainsValidation  `yaml:"-"`
}

// UnmarshalYAML decodes the type-specific fields of a validation.
func (v *Validation) UnmarshalYAML(value *yaml.Node) error {
	var base struct {
		Type string `yaml:"type"`
	}
	if err := value.Decode(&base); err != nil {
		return err
	}

	*v = Validation{Type: base.Type}
	switch base.Type {
	case "command_exists":
		v.CommandExists = &CommandExistsValidation{}
		return value.Decode(v.CommandExists)
	case "file_exists":
		v.FileExists = &FileExistsValidation{}
		return value.Decode(v.FileExists)
	case "path_contains":
		v.PathContains = &PathContainsValidation{}
		return value.Decode(v.PathContains)
	}
	return nil
}

// CommandExistsValidation ensures a command exists on PATH.
type CommandExistsValidation struct {
	Command string `yaml:"command" validate:"required"`
}

// FileExistsValidation ensures a file or directory exists.
type FileExistsValidation struct {
	Path string `yaml:"path" validate:"required"`
}

// PathContainsValidation ensures a file contains specific text.
type PathContainsValidation struct {
	File string `yaml:"file" validate:"required"`
	Text string `yaml:"text" validate:"required"`
}

// StepMap builds a lookup table for steps by ID.
func StepMap(steps []Step) map[string]Step {
	out := make(map[string]Step, len(steps))
	for _, step := range steps {
		out[step.ID] = step
	}
	return out
}
