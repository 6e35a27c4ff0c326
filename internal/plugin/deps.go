package plugin

import (
	"github.com/alexisbeaulieu97/devstrap/internal/aptrepo"
	"github.com/alexisbeaulieu97/devstrap/internal/installer"
	"github.com/alexisbeaulieu97/devstrap/internal/logger"
	"github.com/alexisbeaulieu97/devstrap/internal/profile"
	"github.com/alexisbeaulieu97/devstrap/internal/sshkey"
	"github.com/alexisbeaulieu97/devstrap/internal/system"
)

// Deps carries the host capabilities plugins are built from. Every plugin
// reaches the machine exclusively through these.
type Deps struct {
	Host       system.Host
	User       system.User
	Log        *logger.Logger
	Registrar  *aptrepo.Registrar
	Profiles   *profile.Editor
	Keys       *sshkey.Manager
	Installers installer.Set
}

// Logger returns the configured logger or a no-op one.
func (d Deps) Logger() *logger.Logger {
	if d.Log == nil {
		return logger.Nop()
	}
	return d.Log
}
