// Package validation runs the post-provisioning checks a configuration lists
// under "validations". They confirm the machine ended up usable; a failing
// check is reported but never fails the run.
package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/alexisbeaulieu97/devstrap/internal/system"
)

var (
	errNoCommand = errors.New("command name is required")
	errNoPath    = errors.New("path is required")
	errNoText    = errors.New("text is required")
)

// CheckCommandExists verifies a command is available on PATH.
func CheckCommandExists(state system.State, command string) error {
	switch {
	case command == "":
		return errNoCommand
	case !state.CommandExists(command):
		return fmt.Errorf("command %s not found on PATH", command)
	}
	return nil
}

// CheckFileExists accepts files and directories.
func CheckFileExists(state system.State, path string) error {
	switch {
	case path == "":
		return errNoPath
	case !state.PathExists(path):
		return fmt.Errorf("path %s does not exist", path)
	}
	return nil
}

// CheckPathContains matches text as a regular expression against the file.
// Anchors apply per line.
func CheckPathContains(state system.State, path, text string) error {
	switch {
	case path == "":
		return errNoPath
	case text == "":
		return errNoText
	}

	pattern, err := regexp.Compile("(?m)" + text)
	if err != nil {
		return fmt.Errorf("pattern %q: %w", text, err)
	}
	data, err := state.ReadFile(path)
	if err != nil {
		return err
	}
	if !pattern.Match(data) {
		return fmt.Errorf("pattern %q not found in %s", text, path)
	}
	return nil
}
