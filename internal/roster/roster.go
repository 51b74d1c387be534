// Package roster reads teacher, subject, class and room rosters from files.
package roster

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
)

// Load reads a roster file. Files ending in .json are decoded as JSON;
// anything else is treated as YAML.
func Load(path string) (*dto.GenerateTimetableRequest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return DecodeJSON(bytes.NewReader(raw))
	}
	return DecodeYAML(bytes.NewReader(raw))
}

// DecodeYAML parses a YAML roster, rejecting unknown keys.
func DecodeYAML(r io.Reader) (*dto.GenerateTimetableRequest, error) {
	var req dto.GenerateTimetableRequest
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return &req, nil
		}
		return nil, fmt.Errorf("decode yaml roster: %w", err)
	}
	return &req, nil
}

// DecodeJSON parses a JSON roster, rejecting unknown keys.
func DecodeJSON(r io.Reader) (*dto.GenerateTimetableRequest, error) {
	var req dto.GenerateTimetableRequest
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return nil, fmt.Errorf("decode json roster: %w", err)
	}
	return &req, nil
}
