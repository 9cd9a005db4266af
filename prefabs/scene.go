package prefabs

import (
	"fmt"

	"github.com/abagaild/lupine-engine-sub002/scene"
	"gopkg.in/yaml.v3"
)

const inputFile = "input.yaml"

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// LoadScene loads a scene document (.yaml) or Tiled map (.tmx).
func LoadScene(name string) (*scene.Document, error) {
	clean := cleanPrefabPath(name)
	doc, err := scene.Load(SceneFS(clean), clean)
	if err != nil {
		return nil, fmt.Errorf("prefabs: load scene %s: %w", name, err)
	}
	return doc, nil
}

// InputSpec maps script actions to key names.
type InputSpec struct {
	Actions map[string][]string `yaml:"actions"`
}

func LoadInputSpec() (*InputSpec, error) {
	spec, err := LoadSpec[InputSpec](inputFile)
	if err != nil {
		return nil, err
	}
	return &spec, nil
}
