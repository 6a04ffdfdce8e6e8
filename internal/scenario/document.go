package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/novel/internal/ir"
)

// Document is the on-disk form of a scenario.
type Document struct {
	Version  int       `yaml:"version"`
	Title    string    `yaml:"title,omitempty"`
	Language string    `yaml:"language,omitempty"`
	Steps    []ir.Step `yaml:"steps"`
}

// Decode parses a scenario document and builds its graph.
// Unknown fields are rejected.
func Decode(data []byte) (*Graph, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode scenario: empty document")
		}
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if doc.Version != ir.FormatVersion {
		return nil, fmt.Errorf("decode scenario: unsupported version %d (want %d)", doc.Version, ir.FormatVersion)
	}

	g, err := New(doc.Steps)
	if err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	g.Title = doc.Title
	g.Language = doc.Language
	return g, nil
}

// Encode serializes the graph as a scenario document.
func (g *Graph) Encode() ([]byte, error) {
	doc := Document{
		Version:  ir.FormatVersion,
		Title:    g.Title,
		Language: g.Language,
		Steps:    g.steps,
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode scenario: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode scenario: %w", err)
	}
	return buf.Bytes(), nil
}

// Load reads and decodes a scenario file.
func Load(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	g, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// Save encodes the graph and writes it to path.
func (g *Graph) Save(path string) error {
	data, err := g.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write scenario: %w", err)
	}
	return nil
}
