package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// BackendKind selects the storage medium for one side of a sync job
type BackendKind int

const (
	// Local - the operating system filesystem
	Local BackendKind = iota
	// Memory - an in-memory filesystem, useful for rehearsals and tests
	Memory
)

// String returns the string representation of BackendKind
func (bk BackendKind) String() string {
	switch bk {
	case Local:
		return "local"
	case Memory:
		return "memory"
	default:
		return "unknown"
	}
}

// ParseBackendKind parses a string into a BackendKind
func ParseBackendKind(s string) (BackendKind, error) {
	switch strings.ToLower(s) {
	case "local", "os", "":
		return Local, nil
	case "memory", "mem":
		return Memory, nil
	default:
		return Local, fmt.Errorf("invalid backend: %s (valid: local, memory)", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler, which both go-arg and
// the YAML decoder honor
func (bk *BackendKind) UnmarshalText(text []byte) error {
	parsed, err := ParseBackendKind(string(text))
	if err != nil {
		return err
	}

	*bk = parsed

	return nil
}

// Manifest describes a batch of sync jobs to run in declaration order.
type Manifest struct {
	Jobs []JobSpec `yaml:"jobs"`
}

// JobSpec describes one sync job: mirror source into target.
type JobSpec struct {
	Name    string   `yaml:"name"`
	Source  Endpoint `yaml:"source"`
	Target  Endpoint `yaml:"target"`
	Pattern string   `yaml:"pattern"`
}

// Endpoint names one side of a sync job.
type Endpoint struct {
	Backend BackendKind `yaml:"backend"`
	Path    string      `yaml:"path"`
}

// matches $(VAR_NAME)
var envPattern = regexp.MustCompile(`\$\(([A-Za-z0-9_]+)\)`)

// replaces $(VAR) with os.Getenv(VAR)
func expandEnvVars(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(m string) string {
		return os.Getenv(envPattern.FindStringSubmatch(m)[1])
	})
}

// LoadManifest reads a manifest file, expands $(ENV_VAR) placeholders, parses
// the YAML and validates the result.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) // #nosec G304 - the path comes from the command line
	if err != nil {
		return nil, fmt.Errorf("reading manifest file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	var manifest Manifest
	if err := yaml.Unmarshal([]byte(expanded), &manifest); err != nil {
		return nil, fmt.Errorf("unmarshalling yaml: %w", err)
	}

	if err := manifest.Validate(); err != nil {
		return nil, err
	}

	return &manifest, nil
}

// Validate checks that the manifest declares at least one job and that every
// job has a unique name and non-empty endpoint paths.
func (m *Manifest) Validate() error {
	if len(m.Jobs) == 0 {
		return fmt.Errorf("manifest declares no jobs")
	}

	seen := make(map[string]bool, len(m.Jobs))

	for i, job := range m.Jobs {
		if job.Name == "" {
			return fmt.Errorf("job %d: name is required", i+1)
		}

		if seen[job.Name] {
			return fmt.Errorf("job %q: duplicate name", job.Name)
		}

		seen[job.Name] = true

		if job.Source.Path == "" {
			return fmt.Errorf("job %q: source path is required", job.Name)
		}

		if job.Target.Path == "" {
			return fmt.Errorf("job %q: target path is required", job.Name)
		}
	}

	return nil
}
