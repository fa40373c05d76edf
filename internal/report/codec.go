package report

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/fakeyudi/hats/internal/session"
)

// JSONRenderer renders a ResultBundle as indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(b *session.ResultBundle) ([]byte, error) {
	return json.MarshalIndent(b, "", "  ")
}

// JSONParser parses a JSON report.
type JSONParser struct{}

func (p *JSONParser) Parse(data []byte) (*session.ResultBundle, error) {
	var b session.ResultBundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse JSON report: %w", err)
	}
	return &b, nil
}

// YAMLRenderer renders a ResultBundle as YAML with two-space indentation.
type YAMLRenderer struct{}

func (r *YAMLRenderer) Render(b *session.ResultBundle) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(b); err != nil {
		return nil, fmt.Errorf("marshal results: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshal results: %w", err)
	}
	return buf.Bytes(), nil
}

// YAMLParser parses a YAML report.
type YAMLParser struct{}

func (p *YAMLParser) Parse(data []byte) (*session.ResultBundle, error) {
	var b session.ResultBundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse YAML report: %w", err)
	}
	if b.SessionID == "" && b.Perspectives == nil {
		return nil, fmt.Errorf("failed to parse YAML report: no results found")
	}
	return &b, nil
}
