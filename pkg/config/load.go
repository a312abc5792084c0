package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/someip-sd/sd-go/pkg/sd"
)

// LoadError describes a configuration that could not be loaded.
type LoadError struct {
	// File is the path of the configuration file, empty for Parse.
	File string

	// Line is the line of the offending node (0 if unknown).
	Line int

	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, msg)
	case e.File != "":
		return e.File + ": " + msg
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// nodeError attaches the position of a YAML node to a decode failure.
type nodeError struct {
	line int
	err  error
}

func (e *nodeError) Error() string { return e.err.Error() }
func (e *nodeError) Unwrap() error { return e.err }

func errorAt(n *yaml.Node, format string, args ...any) error {
	return &nodeError{line: n.Line, err: fmt.Errorf(format, args...)}
}

// Parse decodes a YAML configuration and validates the result.
func Parse(data []byte) (sd.Config, error) {
	f := defaultFile()
	if err := yaml.Unmarshal(data, &f); err != nil {
		le := &LoadError{Message: "failed to parse YAML", Cause: err}
		var ne *nodeError
		if errors.As(err, &ne) {
			le.Line = ne.line
			le.Message = "invalid value"
			le.Cause = ne.err
		}
		return sd.Config{}, le
	}

	cfg := f.config()
	if err := cfg.Validate(); err != nil {
		return sd.Config{}, &LoadError{Message: "invalid configuration", Cause: err}
	}
	return cfg, nil
}

// Load reads and parses the configuration file at path.
func Load(path string) (sd.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sd.Config{}, &LoadError{
			File:    path,
			Message: "failed to read file",
			Cause:   err,
		}
	}

	cfg, err := Parse(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.File = path
			return sd.Config{}, le
		}
		return sd.Config{}, &LoadError{File: path, Message: err.Error()}
	}
	return cfg, nil
}
