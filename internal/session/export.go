package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// FileName is the deterministic name of the exported session.
	FileName     = "video_edit_data.json"
	YAMLFileName = "video_edit_data.yaml"
)

// Format selects the session serialization.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown session format %q", s)
}

// FileName returns the deterministic export name for the format.
func (f Format) FileName() string {
	if f == FormatYAML {
		return YAMLFileName
	}
	return FileName
}

// Marshal serializes samples as an ordered array. JSON is indented with two
// spaces. A nil slice is written as an empty array.
func Marshal(samples []Sample, format Format) ([]byte, error) {
	if samples == nil {
		samples = []Sample{}
	}
	switch format {
	case FormatYAML:
		return yaml.Marshal(samples)
	default:
		return json.MarshalIndent(samples, "", "  ")
	}
}

// Unmarshal parses data produced by Marshal.
func Unmarshal(data []byte, format Format) ([]Sample, error) {
	var samples []Sample
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &samples)
	default:
		err = json.Unmarshal(data, &samples)
	}
	if err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	return samples, nil
}

// WriteFile exports samples into dir under the format's deterministic name and
// returns the written path.
func WriteFile(dir string, samples []Sample, format Format) (string, error) {
	data, err := Marshal(samples, format)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, format.FileName())
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// ReadFile loads a session, picking the format from the file extension.
func ReadFile(path string) ([]Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	format := FormatJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	}
	return Unmarshal(data, format)
}
