package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Submission describes one registration sent by cmd/register.
type Submission struct {
	Registry RegistryEndpoint `mapstructure:"registry"`
	Fields   []FieldValue     `mapstructure:"fields"`
	Files    SubmissionFiles  `mapstructure:"files"`

	// Section is the form section the registrant had reached; the client
	// resumes there before submitting.
	Section int `mapstructure:"section"`
}

type RegistryEndpoint struct {
	URL            string `mapstructure:"url"`
	Token          string `mapstructure:"token"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// FieldValue is a list entry rather than a map key because viper lowercases
// keys and field names are camelCase.
type FieldValue struct {
	Name  string `mapstructure:"name"`
	Value string `mapstructure:"value"`
}

type SubmissionFiles struct {
	CancelledCheque string   `mapstructure:"cancelled_cheque"`
	Infrastructure  []string `mapstructure:"infrastructure"`
}

func (r RegistryEndpoint) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// LoadSubmission reads a registration file (YAML, JSON or anything viper
// recognises by extension). REGISTRY_URL and REGISTRY_TOKEN override the
// endpoint.
func LoadSubmission(path string) (*Submission, error) {
	v := viper.New()
	v.SetDefault("registry.url", "http://localhost:3001")
	v.SetDefault("registry.timeout_seconds", 30)
	v.SetDefault("section", 0)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read registration file: %w", err)
	}

	v.BindEnv("registry.url", "REGISTRY_URL")
	v.BindEnv("registry.token", "REGISTRY_TOKEN")

	var sub Submission
	if err := v.Unmarshal(&sub); err != nil {
		return nil, fmt.Errorf("failed to unmarshal registration file: %w", err)
	}

	if err := sub.validate(); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *Submission) validate() error {
	if strings.TrimSpace(s.Registry.URL) == "" {
		return errors.New("registry.url is required")
	}
	if s.Registry.TimeoutSeconds <= 0 {
		return errors.New("registry.timeout_seconds must be positive")
	}
	if s.Section < 0 {
		return errors.New("section must not be negative")
	}
	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			return errors.New("fields: entry without a name")
		}
		if seen[f.Name] {
			return fmt.Errorf("fields: %s given more than once", f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}
