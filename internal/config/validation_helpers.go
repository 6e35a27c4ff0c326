package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	devstraperrors "github.com/alexisbeaulieu97/devstrap/pkg/errors"
)

// yamlFieldName makes validator namespaces use the keys a user wrote.
func yamlFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// convertValidationError turns the first validator failure into a
// devstrap ValidationError naming the offending YAML path.
func convertValidationError(err error) error {
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return devstraperrors.NewValidationError("config", err.Error(), err)
	}

	fe := ves[0]
	field := yamlPath(fe.Namespace())
	msg := fmt.Sprintf("%s %s (%s)", field, describe(fe), fe.Tag())
	return devstraperrors.NewValidationError(field, msg, err)
}

// yamlPath drops the root type name and the type-specific body structs,
// whose keys sit inline with the step's own in the document.
func yamlPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	kept := make([]string, 0, len(parts))
	for i, part := range parts {
		if i == 0 || startsUpper(part) {
			continue
		}
		kept = append(kept, part)
	}
	if len(kept) == 0 {
		return strings.ToLower(namespace)
	}
	return strings.Join(kept, ".")
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min":
		return "needs at least " + fe.Param() + " entries"
	case "max":
		return "is longer than " + fe.Param()
	case "startswith":
		return "must start with " + fe.Param()
	case "nefield":
		return "must differ from " + strings.ToLower(fe.Param())
	case "url":
		return "must be a URL"
	case "semver":
		return "must be a version like 1.0"
	case "step_id":
		return "must use lowercase letters, digits and underscores"
	case "unix_name":
		return "is not a valid group name"
	case "deb_package":
		return "is not a valid package name"
	case "host_path":
		return "must be absolute or start with ~/"
	case "source_url":
		return "must be an http(s) URL, git remote or local path"
	default:
		return "is invalid"
	}
}

func fieldForStep(index int, field string) string {
	return fmt.Sprintf("steps[%d].%s", index, field)
}

func fieldForValidation(index int, field string) string {
	return fmt.Sprintf("validations[%d].%s", index, field)
}
