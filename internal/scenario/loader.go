package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadError describes a scenario that could not be loaded.
type LoadError struct {
	// File is the file that failed, when known.
	File string

	// Message describes the problem.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	if e.File != "" {
		b.WriteString(e.File)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Parse parses a scenario from YAML bytes.
func Parse(data []byte) (*Case, error) {
	var c Case
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, &LoadError{Message: "failed to parse YAML", Cause: err}
	}

	if c.ID == "" {
		return nil, &LoadError{Message: "scenario ID is required"}
	}
	if len(c.Steps) == 0 {
		return nil, &LoadError{Message: "scenario must have at least one step"}
	}
	if err := checkDuration(c.Timeout); err != nil {
		return nil, &LoadError{Message: fmt.Sprintf("scenario %s: bad timeout", c.ID), Cause: err}
	}
	for i := range c.Steps {
		step := &c.Steps[i]
		if step.Action == "" {
			return nil, &LoadError{Message: fmt.Sprintf("scenario %s: step %d has no action", c.ID, i)}
		}
		if err := checkDuration(step.Timeout); err != nil {
			return nil, &LoadError{Message: fmt.Sprintf("scenario %s: step %d: bad timeout", c.ID, i), Cause: err}
		}
	}

	return &c, nil
}

// Load loads a scenario from a file.
func Load(path string) (*Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{File: path, Message: "failed to read file", Cause: err}
	}

	c, err := Parse(data)
	if err != nil {
		if le, ok := err.(*LoadError); ok {
			le.File = path
			return nil, le
		}
		return nil, &LoadError{File: path, Message: err.Error()}
	}
	return c, nil
}

// LoadDirectory loads every .yaml/.yml scenario in a directory, in
// file name order.
func LoadDirectory(dir string) ([]*Case, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &LoadError{File: dir, Message: "failed to read directory", Cause: err}
	}

	var cases []*Case
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		c, err := Load(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	return cases, nil
}

func checkDuration(s string) error {
	if s == "" {
		return nil
	}
	_, err := time.ParseDuration(s)
	return err
}

// durationOr parses s, falling back when it is empty.
func durationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
