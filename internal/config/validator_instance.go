package config

import (
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	semverPattern     = regexp.MustCompile(`^\d+\.\d+(?:\.\d+)?(?:-[0-9A-Za-z-.]+)?(?:\+[0-9A-Za-z-.]+)?$`)
	stepIDPattern     = regexp.MustCompile(`^[a-z0-9_]+$`)
	unixNamePattern   = regexp.MustCompile(`^[a-z_][a-z0-9_-]*$`)
	debPackagePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9+.-]+$`)
	scpRemotePattern  = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+:[a-zA-Z0-9._/~-]+$`)
)

// customTags are the devstrap-specific validator tags used in types.go.
var customTags = map[string]func(string) bool{
	"semver":      semverPattern.MatchString,
	"step_id":     stepIDPattern.MatchString,
	"unix_name":   unixNamePattern.MatchString,
	"deb_package": debPackagePattern.MatchString,
	"host_path":   isHostPath,
	"source_url":  isSourceURL,
}

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(yamlFieldName)
		for tag, check := range customTags {
			check := check
			_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
				return check(fl.Field().String())
			})
		}
		validateInst = v
	})
	return validateInst
}

// GetValidator returns the shared validator with devstrap's tags registered.
func GetValidator() *validator.Validate {
	return validatorInstance()
}

// isHostPath accepts absolute paths and paths under the invoking user's home.
func isHostPath(p string) bool {
	if strings.Contains(p, "\x00") {
		return false
	}
	return strings.HasPrefix(p, "/") || p == "~" || strings.HasPrefix(p, "~/")
}

// isSourceURL accepts what installers can fetch: http(s) URLs with a host,
// scp-style git remotes and local paths that are absolute or explicitly
// relative. Empty is left to "required".
func isSourceURL(raw string) bool {
	switch {
	case raw == "":
		return true
	case strings.TrimSpace(raw) == "", strings.Contains(raw, "\x00"):
		return false
	}

	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return true
		}
	}
	if scpRemotePattern.MatchString(raw) {
		return true
	}

	if strings.HasPrefix(raw, "/") {
		return !strings.Contains(raw, "/../") && !strings.HasSuffix(raw, "/..")
	}
	return strings.HasPrefix(raw, "./") || strings.HasPrefix(raw, "../")
}
