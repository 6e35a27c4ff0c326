package plugin

import (
	"fmt"
	"regexp"
	"strings"
)

var pluginVersion = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// PluginMetadata describes a plugin. Name is the step type it handles.
type PluginMetadata struct {
	Name        string
	Version     string
	Description string
	// Privileged marks plugins whose mutators invoke sudo. Plans surface it
	// so an operator knows which steps will prompt.
	Privileged bool
}

func (m PluginMetadata) String() string {
	return m.Name + " " + m.Version
}

// Validate rejects metadata the registry cannot key on.
func (m PluginMetadata) Validate() error {
	name := strings.TrimSpace(m.Name)
	switch {
	case name == "":
		return fmt.Errorf("plugin metadata requires a non-empty Name")
	case name != m.Name || strings.ContainsAny(name, " \t"):
		return fmt.Errorf("plugin name %q must be a bare step type", m.Name)
	case !pluginVersion.MatchString(m.Version):
		return fmt.Errorf("plugin %s has invalid Version %q, want X.Y.Z", m.Name, m.Version)
	}
	return nil
}
