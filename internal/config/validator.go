package config

import (
	"fmt"
	"strings"

	devstraperrors "github.com/alexisbeaulieu97/devstrap/pkg/errors"
)

// ValidateConfig performs schema and cross-field validation on the configuration.
// Prerequisite ordering is checked later, when the engine builds the plan.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return devstraperrors.NewValidationError("config", "configuration is nil", nil)
	}

	v := validatorInstance()
	if err := v.Struct(cfg); err != nil {
		return convertValidationError(err)
	}

	seen := make(map[string]struct{}, len(cfg.Steps))
	for i, step := range cfg.Steps {
		if _, exists := seen[step.ID]; exists {
			return devstraperrors.NewValidationError(fieldForStep(i, "id"), fmt.Sprintf("duplicate step id %q", step.ID), nil)
		}
		if err := ValidateStep(step); err != nil {
			return err
		}
		for _, req := range step.Requires {
			if req == step.ID {
				return devstraperrors.NewValidationError(fieldForStep(i, "requires"), fmt.Sprintf("step %q requires itself", step.ID), nil)
			}
		}
		seen[step.ID] = struct{}{}
	}

	for i, validation := range cfg.Validations {
		if err := validateValidation(validation, i); err != nil {
			return err
		}
	}

	return nil
}

// stepRules hold cross-field checks the struct tags cannot express.
var stepRules = map[string]func(Step) error{
	TypeProfile: func(s Step) error {
		if strings.ContainsAny(s.Profile.Sentinel, "\r\n") {
			return devstraperrors.NewValidationError(s.ID+".sentinel", "sentinel must be a single line", nil)
		}
		return nil
	},
	TypeInstaller: func(s Step) error {
		in := s.Installer
		switch {
		case in.Method == "git" && strings.TrimSpace(in.Dest) == "":
			return devstraperrors.NewValidationError(s.ID+".dest", "git installers require a destination", nil)
		case in.Method == "script" && in.Creates == "" && in.Command == "" && in.Check == "":
			return devstraperrors.NewValidationError(s.ID, "script installers need one of creates, command or check", nil)
		}
		return nil
	},
	TypeCommand: func(s Step) error {
		if s.Command.Check == "" && s.Command.Creates == "" {
			return devstraperrors.NewValidationError(s.ID, "command steps need a check or creates guard", nil)
		}
		return nil
	},
}

// ValidateStep validates a single step independent of other configuration properties.
func ValidateStep(step Step) error {
	v := validatorInstance()
	if err := v.Struct(step); err != nil {
		return convertValidationError(err)
	}

	if !knownType(step.Type) {
		return devstraperrors.NewValidationError(step.ID, fmt.Sprintf("unknown step type %q", step.Type), nil)
	}
	body := step.Body()
	if body == nil {
		return devstraperrors.NewValidationError(step.ID, fmt.Sprintf("%s configuration is required", step.Type), nil)
	}
	if rule, ok := stepRules[step.Type]; ok {
		if err := rule(step); err != nil {
			return err
		}
	}
	if err := v.Struct(body); err != nil {
		return convertValidationError(err)
	}
	return nil
}

func validateValidation(val Validation, index int) error {
	v := validatorInstance()
	if err := v.Struct(val); err != nil {
		return convertValidationError(err)
	}

	switch val.Type {
	case "command_exists":
		if val.CommandExists == nil {
			return devstraperrors.NewValidationError(fieldForValidation(index, "command"), "command is required", nil)
		}
		if err := v.Struct(val.CommandExists); err != nil {
			return convertValidationError(err)
		}
	case "file_exists":
		if val.FileExists == nil {
			return devstraperrors.NewValidationError(fieldForValidation(index, "path"), "path is required", nil)
		}
		if err := v.Struct(val.FileExists); err != nil {
			return convertValidationError(err)
		}
	case "path_contains":
		if val.PathContains == nil {
			return devstraperrors.NewValidationError(fieldForValidation(index, "file"), "file and text are required", nil)
		}
		if err := v.Struct(val.PathContains); err != nil {
			return convertValidationError(err)
		}
	default:
		return devstraperrors.NewValidationError(fieldForValidation(index, "type"), fmt.Sprintf("unknown validation type %q", val.Type), nil)
	}

	return nil
}
