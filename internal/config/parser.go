package config

import (
	"bytes"
	_ "embed"
	"errors"
	"io"
	"os"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	devstraperrors "github.com/alexisbeaulieu97/devstrap/pkg/errors"
)

// DefaultSource names the embedded workstation document in errors.
const DefaultSource = "<embedded default.yaml>"

//go:embed default.yaml
var defaultDocument []byte

var yamlLine = regexp.MustCompile(`line (\d+)`)

var errEmptyDocument = errors.New("document is empty")

// ParseConfig reads, decodes and validates the document at path.
func ParseConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, devstraperrors.NewParseError(path, 0, err)
	}
	return Parse(data, path)
}

// Default returns the embedded developer workstation document.
func Default() (*Config, error) {
	return Parse(defaultDocument, DefaultSource)
}

// DefaultDocument returns a copy of the embedded YAML.
func DefaultDocument() []byte {
	return bytes.Clone(defaultDocument)
}

// Parse decodes and validates a document; source only appears in errors.
// Unknown top-level and settings keys are rejected so a misspelt
// "validations" does not silently skip every check.
func Parse(data []byte, source string) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			err = errEmptyDocument
		}
		return nil, devstraperrors.NewParseError(source, extractLine(err), err)
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// extractLine pulls the first line number out of a yaml.v3 error message.
func extractLine(err error) int {
	if err == nil {
		return 0
	}
	m := yamlLine.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	line, convErr := strconv.Atoi(m[1])
	if convErr != nil {
		return 0
	}
	return line
}
