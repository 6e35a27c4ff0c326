package main

import (
	"io"

	"github.com/alexisbeaulieu97/devstrap/internal/engine"
	"github.com/alexisbeaulieu97/devstrap/internal/fetch"
	"github.com/alexisbeaulieu97/devstrap/internal/installer"
	"github.com/alexisbeaulieu97/devstrap/internal/logger"
	"github.com/alexisbeaulieu97/devstrap/internal/privilege"
	"github.com/alexisbeaulieu97/devstrap/internal/system"
)

// environment is everything that touches the real machine.
type environment struct {
	Host    system.Host
	User    system.User
	Fetcher fetch.Fetcher
	Guard   engine.PrivilegeChecker
	Git     installer.Installer
}

type environmentFactory func(log *logger.Logger, stdout, stderr io.Writer) (*environment, error)

func systemEnvironment(log *logger.Logger, stdout, stderr io.Writer) (*environment, error) {
	user, err := system.CurrentUser()
	if err != nil {
		return nil, err
	}
	host := system.NewExecHost(log, system.WithOutput(stdout, stderr))
	return &environment{
		Host:    host,
		User:    user,
		Fetcher: fetch.NewHTTPFetcher(log),
		Guard:   privilege.New(host, log),
		Git:     installer.NewGitInstaller(stdout, log),
	}, nil
}
