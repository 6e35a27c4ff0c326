package installer

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/alexisbeaulieu97/devstrap/internal/fetch"
	"github.com/alexisbeaulieu97/devstrap/internal/logger"
	"github.com/alexisbeaulieu97/devstrap/internal/system"
)

const defaultShell = "bash"

// ScriptInstaller downloads a script and pipes it into a shell, the
// equivalent of `curl -fsSL URL | bash -s -- ARGS` without the pipe hiding
// download failures.
type ScriptInstaller struct {
	fetcher fetch.Fetcher
	runner  system.Operator
	log     *logger.Logger
}

// NewScriptInstaller returns a ScriptInstaller.
func NewScriptInstaller(fetcher fetch.Fetcher, runner system.Operator, log *logger.Logger) *ScriptInstaller {
	return &ScriptInstaller{fetcher: fetcher, runner: runner, log: log}
}

// Install fetches spec.URL and runs it as the invoking user.
func (s *ScriptInstaller) Install(ctx context.Context, spec Spec) error {
	script, err := s.fetcher.Fetch(ctx, spec.URL)
	if err != nil {
		return fmt.Errorf("download installer: %w", err)
	}
	if len(bytes.TrimSpace(script)) == 0 {
		return fmt.Errorf("download installer: %s returned an empty script", spec.URL)
	}
	s.log.Infof("running installer from %s (%s)", spec.URL, humanize.Bytes(uint64(len(script))))

	return s.runner.Run(ctx, s.command(spec, script))
}

// Describe implements Installer.
func (s *ScriptInstaller) Describe(spec Spec) string {
	return fmt.Sprintf("curl -fsSL %s | %s", spec.URL, system.Render(s.command(spec, nil).Argv()))
}

func (s *ScriptInstaller) command(spec Spec, script []byte) system.Command {
	shell := strings.TrimSpace(spec.Shell)
	if shell == "" {
		shell = defaultShell
	}
	args := []string{"-s"}
	if len(spec.Args) > 0 {
		args = append(append(args, "--"), spec.Args...)
	}
	cmd := system.Command{Name: shell, Args: args, Env: spec.Env, Dir: spec.Dest}
	if script != nil {
		cmd.Stdin = bytes.NewReader(script)
	}
	return cmd
}
