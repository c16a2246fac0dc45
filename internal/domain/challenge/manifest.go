package challenge

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// manifest is the on-disk and remote shape of a challenge
type manifest struct {
	ID          string          `yaml:"id" toml:"id" json:"id"`
	Title       string          `yaml:"title" toml:"title" json:"title"`
	Description string          `yaml:"description" toml:"description" json:"description"`
	Difficulty  string          `yaml:"difficulty" toml:"difficulty" json:"difficulty"`
	Tags        []string        `yaml:"tags" toml:"tags" json:"tags"`
	Starter     starterManifest `yaml:"starter" toml:"starter" json:"starter"`
}

// starterManifest carries inline text or a path relative to the manifest
type starterManifest struct {
	Markup     string `yaml:"markup" toml:"markup" json:"markup"`
	MarkupFile string `yaml:"markup_file" toml:"markup_file" json:"-"`
	Style      string `yaml:"style" toml:"style" json:"style"`
	StyleFile  string `yaml:"style_file" toml:"style_file" json:"-"`
	Script     string `yaml:"script" toml:"script" json:"script"`
	ScriptFile string `yaml:"script_file" toml:"script_file" json:"-"`
}

// parseManifest decodes YAML or TOML by file extension
func parseManifest(path string, data []byte) (manifest, error) {
	var m manifest
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &m)
	case ".toml":
		err = toml.Unmarshal(data, &m)
	default:
		return m, fmt.Errorf("unsupported manifest format: %s", path)
	}
	if err != nil {
		return m, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return m, nil
}

// challenge converts m; dir is the manifest directory used for file
// references and for a missing ID
func (m manifest) challenge(dir, source string) (Challenge, error) {
	ch := Challenge{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Difficulty:  m.Difficulty,
		Tags:        m.Tags,
		Source:      source,
		Starter: Starter{
			Markup: m.Starter.Markup,
			Style:  m.Starter.Style,
			Script: m.Starter.Script,
		},
	}
	if ch.ID == "" && dir != "" {
		ch.ID = strings.ToLower(filepath.Base(dir))
	}

	if dir == "" {
		return ch, nil
	}
	for _, ref := range []struct {
		file string
		dst  *string
	}{
		{m.Starter.MarkupFile, &ch.Starter.Markup},
		{m.Starter.StyleFile, &ch.Starter.Style},
		{m.Starter.ScriptFile, &ch.Starter.Script},
	} {
		if ref.file == "" {
			continue
		}
		text, err := readStarter(dir, ref.file)
		if err != nil {
			return ch, err
		}
		*ref.dst = text
	}
	return ch, nil
}
