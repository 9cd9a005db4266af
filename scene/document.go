package scene

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/abagaild/lupine-engine-sub002/physics"
	"gopkg.in/yaml.v3"
)

var ErrNoRoot = errors.New("scene: document has no root node")

// WorldSpec is the authored world block. Fields left out keep the defaults.
type WorldSpec struct {
	physics.Config `yaml:",inline"`
}

func (w *WorldSpec) UnmarshalYAML(value *yaml.Node) error {
	cfg := physics.DefaultConfig()
	if err := value.Decode(&cfg); err != nil {
		return err
	}
	w.Config = cfg
	return nil
}

// Document is an authored scene: an optional world block and a node tree.
type Document struct {
	Name  string     `yaml:"name"`
	World *WorldSpec `yaml:"world,omitempty"`
	Root  *Node      `yaml:"root"`
}

// Parse decodes a YAML scene document and links its tree.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("scene: parse: %w", err)
	}
	if doc.Root == nil {
		return nil, ErrNoRoot
	}
	doc.Root.Link()
	return &doc, nil
}

// Load reads path from fsys. Tiled maps (.tmx) go through LoadTiled; anything
// else is parsed as YAML.
func Load(fsys fs.FS, path string) (*Document, error) {
	if strings.EqualFold(filepath.Ext(path), ".tmx") {
		return LoadTiled(fsys, path)
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("scene: load %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scene: load %s: %w", path, err)
	}
	if doc.Name == "" {
		doc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return doc, nil
}

// Config returns the world settings, falling back to the defaults.
func (d *Document) Config() physics.Config {
	if d == nil || d.World == nil {
		return physics.DefaultConfig()
	}
	return d.World.Config
}

func (d *Document) Marshal() ([]byte, error) {
	if d == nil || d.Root == nil {
		return nil, ErrNoRoot
	}
	data, err := yaml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("scene: marshal %s: %w", d.Name, err)
	}
	return data, nil
}

// Save writes the document to path, creating parent directories.
func (d *Document) Save(path string) error {
	data, err := d.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("scene: save %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("scene: save %s: %w", path, err)
	}
	return nil
}
