package system

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// User identifies the invoking operator.
type User struct {
	Name string
	Home string
	UID  int
}

// CurrentUser resolves the invoking user from the process credentials.
func CurrentUser() (User, error) {
	u, err := user.Current()
	if err != nil {
		return User{}, fmt.Errorf("resolve current user: %w", err)
	}
	home := u.HomeDir
	if env := os.Getenv("HOME"); env != "" {
		home = env
	}
	return User{Name: u.Username, Home: home, UID: os.Geteuid()}, nil
}

// Expand resolves a leading ~ and $HOME against the user's home directory.
func (u User) Expand(path string) string {
	path = strings.TrimSpace(path)
	switch {
	case path == "~":
		return u.Home
	case strings.HasPrefix(path, "~/"):
		return filepath.Join(u.Home, path[2:])
	}
	return strings.NewReplacer("${HOME}", u.Home, "$HOME", u.Home).Replace(path)
}
