// Package prompt holds the instruction templates of the crew and the
// classifier. Defaults are embedded; a YAML file can override any subset.
package prompt

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaults []byte

// Catalogue is the set of instruction templates.
type Catalogue struct {
	Clarifier    string `yaml:"clarifier"`
	BriefDrafter string `yaml:"brief_drafter"`
	EmailDrafter string `yaml:"email_drafter"`
	Editor       string `yaml:"editor"`
	Rewriter     string `yaml:"rewriter"`
	Assess       string `yaml:"assess"`
	Decide       string `yaml:"decide"`
}

// Default returns the embedded catalogue.
func Default() *Catalogue {
	c, err := decode(bytes.NewReader(defaults), &Catalogue{})
	if err != nil {
		panic(fmt.Sprintf("prompt: embedded defaults: %v", err))
	}
	return c
}

// Load returns the defaults overlaid with the entries of the YAML file at
// path. Unknown keys are rejected. An empty path returns the defaults.
func Load(path string) (*Catalogue, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("prompt: open %s: %w", path, err)
	}
	defer f.Close()

	c, err = decode(f, c)
	if err != nil {
		return nil, fmt.Errorf("prompt: %s: %w", path, err)
	}

	return c, nil
}

func decode(r io.Reader, into *Catalogue) (*Catalogue, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(into); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode: %w", err)
	}

	if err := into.Validate(); err != nil {
		return nil, err
	}

	return into, nil
}

// Validate checks that every template is present and parses.
func (c *Catalogue) Validate() error {
	for name, text := range c.entries() {
		if text == "" {
			return fmt.Errorf("prompt %s is empty", name)
		}
		if _, err := template.New(name).Parse(text); err != nil {
			return fmt.Errorf("prompt %s: %w", name, err)
		}
	}
	return nil
}

func (c *Catalogue) entries() map[string]string {
	return map[string]string{
		"clarifier":     c.Clarifier,
		"brief_drafter": c.BriefDrafter,
		"email_drafter": c.EmailDrafter,
		"editor":        c.Editor,
		"rewriter":      c.Rewriter,
		"assess":        c.Assess,
		"decide":        c.Decide,
	}
}
