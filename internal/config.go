package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"comment-shots/comments"

	"dario.cat/mergo"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/titanous/json5"
	"gopkg.in/yaml.v3"
)

// DefaultMaxComments is the quota used when none is configured.
const DefaultMaxComments = 10

// ConfigurationError is returned for missing or invalid parameters, before
// any comments are fetched.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Message)
}

// Config is the run configuration, read from a file and overridden by flags.
type Config struct {
	VideoIDs      []string `json:"videoIds" yaml:"videoIds"`
	SearchTerms   []string `json:"searchTerms" yaml:"searchTerms"`
	MinLikes      int      `json:"minLikes" yaml:"minLikes"`
	MinReplies    int      `json:"minReplies" yaml:"minReplies"`
	FilteredWords []string `json:"filteredWords" yaml:"filteredWords"`
	MaxChars      int      `json:"maxChars" yaml:"maxChars"`
	Theme         string   `json:"theme" yaml:"theme"`
	MaxComments   int      `json:"maxComments" yaml:"maxComments"`
}

// DefaultConfig returns the configuration used for unset fields.
func DefaultConfig() Config {
	return Config{
		Theme:       string(comments.ThemeDark),
		MaxComments: DefaultMaxComments,
	}
}

// Validate checks the configuration of a fetch run.
func (c *Config) Validate() error {
	if len(c.VideoIDs) == 0 {
		return &ConfigurationError{Field: "videoIds", Message: "must contain at least one identifier"}
	}
	if len(c.SearchTerms) == 0 {
		return &ConfigurationError{Field: "searchTerms", Message: "must contain at least one term"}
	}
	if hasBlank(c.SearchTerms) {
		return &ConfigurationError{Field: "searchTerms", Message: "must not contain blank terms"}
	}
	if hasBlank(c.FilteredWords) {
		return &ConfigurationError{Field: "filteredWords", Message: "must not contain blank words"}
	}
	if c.MinLikes < 0 {
		return &ConfigurationError{Field: "minLikes", Message: "must not be negative"}
	}
	if c.MinReplies < 0 {
		return &ConfigurationError{Field: "minReplies", Message: "must not be negative"}
	}
	if c.MaxChars < 0 {
		return &ConfigurationError{Field: "maxChars", Message: "must not be negative"}
	}
	if c.MaxComments < 1 {
		return &ConfigurationError{Field: "maxComments", Message: "must be positive"}
	}
	if _, err := comments.ParseTheme(c.Theme); err != nil {
		return &ConfigurationError{Field: "theme", Message: "must be one of dark, light"}
	}

	return nil
}

// Criteria builds the acceptance criteria from a validated configuration.
func (c *Config) Criteria() (comments.Criteria, error) {
	theme, err := comments.ParseTheme(c.Theme)
	if err != nil {
		return comments.Criteria{}, &ConfigurationError{Field: "theme", Message: "must be one of dark, light"}
	}

	return comments.Criteria{
		SearchTerms:   c.SearchTerms,
		MinLikes:      c.MinLikes,
		MinReplies:    c.MinReplies,
		FilteredWords: c.FilteredWords,
		MaxChars:      c.MaxChars,
		Theme:         theme,
	}, nil
}

func splitExt(name string) (string, string) {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext), ext
}

func decode(name string, data []byte, out interface{}) error {
	_, ext := splitExt(name)
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, out)
	default:
		return json5.Unmarshal(data, out)
	}
}

// hasBlank reports whether any entry is empty once trimmed. A blank search
// term matches every comment and a blank filtered word rejects every one.
func hasBlank(list []string) bool {
	for _, s := range list {
		if strings.TrimSpace(s) == "" {
			return true
		}
	}
	return false
}

// ReadConfig reads the configuration file at name, JSON5 or YAML by
// extension, and merges <name>.local.<ext> over it when present. Fields
// missing from both keep their defaults.
//
// Only non-zero local values override: a local file cannot reset a number
// to 0 or clear a list. Use the matching flag for that, explicitly set flags
// always win.
func ReadConfig(name string) (Config, error) {
	out := DefaultConfig()

	data, err := os.ReadFile(name)
	if err != nil {
		return out, errors.Wrapf(err, "could not read config %s", name)
	}
	if err := decode(name, data, &out); err != nil {
		return out, errors.Wrapf(err, "could not parse config %s", name)
	}

	prefix, ext := splitExt(name)
	localName := prefix + ".local" + ext

	local, err := os.ReadFile(localName)
	if os.IsNotExist(err) {
		return out, nil
	}
	if err != nil {
		return out, errors.Wrapf(err, "could not read config %s", localName)
	}

	var override Config
	if err := decode(localName, local, &override); err != nil {
		return out, errors.Wrapf(err, "could not parse config %s", localName)
	}
	if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
		return out, errors.Wrap(err, "could not merge local config overrides")
	}

	logrus.WithField("local", localName).Info("merged config with local overrides")

	return out, nil
}

// CustomComments is a file of comments rendered without fetching or
// filtering. Theme is optional.
type CustomComments struct {
	Theme    string             `json:"theme" yaml:"theme"`
	Comments []comments.Comment `json:"comments" yaml:"comments"`
}

// ReadCustomComments reads a custom comments file, JSON5 or YAML by
// extension. A missing file is a ConfigurationError.
func ReadCustomComments(name string) (CustomComments, error) {
	var out CustomComments

	data, err := os.ReadFile(name)
	if os.IsNotExist(err) {
		return out, &ConfigurationError{Field: "customComments", Message: fmt.Sprintf("file %s does not exist", name)}
	}
	if err != nil {
		return out, errors.Wrapf(err, "could not read custom comments %s", name)
	}

	if err := decode(name, data, &out); err != nil {
		return out, errors.Wrapf(err, "could not parse custom comments %s", name)
	}

	return out, nil
}
