package system

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	shellquote "github.com/kballard/go-shellquote"
)

// CommandError reports a failed external command together with the output it
// produced.
type CommandError struct {
	Args   []string
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s: %v", shellquote.Join(e.Args...), e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

// Unwrap exposes the underlying exec error.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// Result captures stdout/stderr emitted by a command run.
type Result struct {
	Stdout string
	Stderr string
}

// PrimaryOutput returns stderr if present, otherwise stdout.
func (r Result) PrimaryOutput() string {
	if r.Stderr != "" {
		return r.Stderr
	}
	return r.Stdout
}

// Render formats a command line for logs and plans.
func Render(argv []string) string {
	return shellquote.Join(argv...)
}

func buildCmd(ctx context.Context, c Command) *exec.Cmd {
	argv := c.Argv()
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = c.Dir
	cmd.Env = os.Environ()
	if !c.Privileged {
		cmd.Env = append(cmd.Env, envPairs(c.Env)...)
	}
	if c.Stdin != nil {
		cmd.Stdin = c.Stdin
	} else {
		// sudo may need to re-prompt once its credential cache expires.
		cmd.Stdin = os.Stdin
	}
	return cmd
}

// runStreaming wires the command's stdout/stderr through to the parent
// process while collecting the output for later inspection.
func runStreaming(cmd *exec.Cmd, stdout, stderr io.Writer) (Result, error) {
	var stdoutBuf, stderrBuf bytes.Buffer

	if stdout != nil {
		cmd.Stdout = io.MultiWriter(stdout, &stdoutBuf)
	} else {
		cmd.Stdout = &stdoutBuf
	}
	if stderr != nil {
		cmd.Stderr = io.MultiWriter(stderr, &stderrBuf)
	} else {
		cmd.Stderr = &stderrBuf
	}

	err := cmd.Run()

	return Result{
		Stdout: strings.TrimSpace(stdoutBuf.String()),
		Stderr: strings.TrimSpace(stderrBuf.String()),
	}, err
}

func envPairs(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+env[k])
	}
	return pairs
}
