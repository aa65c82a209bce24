// Package manifest loads YAML push-job manifests.
//
// A manifest captures the non-credential parts of a push job so it can
// be version-controlled and re-run: destination bucket and prefix, entry
// match patterns, and upload tuning. Credentials always come from the
// environment, never from a manifest.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PushManifest describes one push job.
type PushManifest struct {
	// Version is the manifest schema version. Must be "1.0".
	Version string `yaml:"version"`

	// Bucket is the destination bucket name (required).
	Bucket string `yaml:"bucket"`

	// Prefix is the destination key prefix. Defaults to "/".
	Prefix string `yaml:"prefix,omitempty"`

	// Match selects which archive entries are uploaded.
	Match MatchConfig `yaml:"match,omitempty"`

	// Upload tunes the upload stage.
	Upload UploadConfig `yaml:"upload,omitempty"`
}

// MatchConfig holds doublestar glob patterns applied to entry paths.
type MatchConfig struct {
	// Includes lists patterns an entry must match (empty means all).
	Includes []string `yaml:"includes,omitempty"`

	// Excludes lists patterns that remove an entry even when included.
	Excludes []string `yaml:"excludes,omitempty"`
}

// UploadConfig tunes the upload stage.
type UploadConfig struct {
	// Concurrency bounds how many entry uploads run at once.
	Concurrency int `yaml:"concurrency,omitempty"`

	// SpoolMaxMemoryBytes bounds the in-memory spool per entry body.
	SpoolMaxMemoryBytes int64 `yaml:"spool_max_memory_bytes,omitempty"`

	// UploadsPerSecond caps how fast new uploads may start (0 = unlimited).
	UploadsPerSecond float64 `yaml:"uploads_per_second,omitempty"`
}

// SupportedVersion is the only manifest version this build accepts.
const SupportedVersion = "1.0"

// Load reads and validates a manifest from the given file path.
func Load(path string) (*PushManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("manifest file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses and validates a manifest from raw YAML bytes.
// Unknown fields are rejected so typos fail loudly instead of being
// silently ignored.
func LoadFromBytes(data []byte) (*PushManifest, error) {
	if len(data) == 0 {
		return nil, errors.New("manifest file is empty")
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m PushManifest
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks required fields and value ranges.
func (m *PushManifest) Validate() error {
	if m.Version != SupportedVersion {
		return fmt.Errorf("unsupported manifest version %q (want %q)", m.Version, SupportedVersion)
	}
	if m.Bucket == "" {
		return errors.New("manifest: bucket is required")
	}
	if m.Upload.Concurrency < 0 {
		return errors.New("manifest: upload.concurrency must not be negative")
	}
	if m.Upload.SpoolMaxMemoryBytes < 0 {
		return errors.New("manifest: upload.spool_max_memory_bytes must not be negative")
	}
	if m.Upload.UploadsPerSecond < 0 {
		return errors.New("manifest: upload.uploads_per_second must not be negative")
	}
	return nil
}
