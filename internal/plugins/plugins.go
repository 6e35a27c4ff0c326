// Package plugins assembles the built-in step plugins.
package plugins

import (
	"fmt"

	"github.com/alexisbeaulieu97/devstrap/internal/plugin"
	commandplugin "github.com/alexisbeaulieu97/devstrap/internal/plugins/command"
	firewallplugin "github.com/alexisbeaulieu97/devstrap/internal/plugins/firewall"
	groupplugin "github.com/alexisbeaulieu97/devstrap/internal/plugins/group"
	installerplugin "github.com/alexisbeaulieu97/devstrap/internal/plugins/installer"
	loginshellplugin "github.com/alexisbeaulieu97/devstrap/internal/plugins/loginshell"
	packageplugin "github.com/alexisbeaulieu97/devstrap/internal/plugins/package"
	profileplugin "github.com/alexisbeaulieu97/devstrap/internal/plugins/profile"
	repositoryplugin "github.com/alexisbeaulieu97/devstrap/internal/plugins/repository"
	serviceplugin "github.com/alexisbeaulieu97/devstrap/internal/plugins/service"
	sshkeyplugin "github.com/alexisbeaulieu97/devstrap/internal/plugins/sshkey"
)

// All builds one instance of every built-in plugin.
func All(deps plugin.Deps) []plugin.Plugin {
	return []plugin.Plugin{
		packageplugin.New(deps),
		repositoryplugin.New(deps),
		serviceplugin.New(deps),
		profileplugin.New(deps),
		installerplugin.New(deps),
		sshkeyplugin.New(deps),
		firewallplugin.New(deps),
		commandplugin.New(deps),
		groupplugin.New(deps),
		loginshellplugin.New(deps),
	}
}

// NewRegistry returns a registry holding every built-in plugin.
func NewRegistry(deps plugin.Deps) (*plugin.Registry, error) {
	reg := plugin.NewRegistry(deps.Logger())
	for _, p := range All(deps) {
		if err := reg.Register(p); err != nil {
			return nil, fmt.Errorf("register %s plugin: %w", p.PluginMetadata().Name, err)
		}
	}
	return reg, nil
}
