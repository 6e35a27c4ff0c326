package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/alexisbeaulieu97/devstrap/internal/logger"
)

var versionTag = regexp.MustCompile(`^v?\d+(\.\d+)*`)

// GitInstaller clones a repository into its destination, for tools that are
// installed by checkout (oh-my-zsh, nvm).
type GitInstaller struct {
	progress io.Writer
	log      *logger.Logger
}

// NewGitInstaller returns a GitInstaller streaming clone progress to progress.
func NewGitInstaller(progress io.Writer, log *logger.Logger) *GitInstaller {
	return &GitInstaller{progress: progress, log: log}
}

// Cloned reports whether dest holds a repository with a resolvable HEAD.
// An interrupted clone leaves a .git directory without one.
func (g *GitInstaller) Cloned(dest string) bool {
	repo, err := git.PlainOpen(dest)
	if err != nil {
		return false
	}
	_, err = repo.Head()
	return err == nil
}

// Install clones into a staging directory next to dest and renames it into
// place, so dest only ever holds a complete checkout.
func (g *GitInstaller) Install(ctx context.Context, spec Spec) error {
	if spec.Dest == "" {
		return errors.New("git installer requires a destination")
	}
	if g.Cloned(spec.Dest) {
		return nil
	}
	if _, err := os.Stat(spec.Dest); err == nil {
		return fmt.Errorf("%s exists but is not a usable git checkout; move it aside and re-run", spec.Dest)
	}

	if err := os.MkdirAll(filepath.Dir(spec.Dest), 0o755); err != nil {
		return err
	}
	staging := spec.Dest + ".devstrap-partial"
	if err := os.RemoveAll(staging); err != nil {
		return fmt.Errorf("clear %s: %w", staging, err)
	}

	g.log.Debugf("cloning %s into %s", spec.URL, spec.Dest)
	if _, err := git.PlainCloneContext(ctx, staging, false, cloneOptions(spec, g.progress)); err != nil {
		_ = os.RemoveAll(staging)
		return fmt.Errorf("clone %s: %w", spec.URL, err)
	}

	if err := os.Rename(staging, spec.Dest); err != nil {
		return fmt.Errorf("move checkout into %s: %w", spec.Dest, err)
	}
	return nil
}

// Describe implements Installer.
func (g *GitInstaller) Describe(spec Spec) string {
	desc := "git clone " + spec.URL + " " + spec.Dest
	if spec.Ref != "" {
		desc += " (" + spec.Ref + ")"
	}
	return desc
}

func cloneOptions(spec Spec, progress io.Writer) *git.CloneOptions {
	opts := &git.CloneOptions{
		URL:      spec.URL,
		Progress: progress,
	}
	if spec.Depth > 0 {
		opts.Depth = spec.Depth
	}
	if spec.Ref != "" {
		opts.ReferenceName = referenceName(spec.Ref)
		opts.SingleBranch = true
	}
	return opts
}

// referenceName treats version-like refs as tags and everything else as a
// branch. Fully qualified refs are used verbatim.
func referenceName(ref string) plumbing.ReferenceName {
	switch {
	case strings.HasPrefix(ref, "refs/"):
		return plumbing.ReferenceName(ref)
	case versionTag.MatchString(ref):
		return plumbing.NewTagReferenceName(ref)
	default:
		return plumbing.NewBranchReferenceName(ref)
	}
}
