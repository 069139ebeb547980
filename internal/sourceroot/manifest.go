package sourceroot

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/spf13/afero"
	yaml "gopkg.in/yaml.v3"
)

// ManifestFile is the default manifest name, placed in the build output directory
const ManifestFile = "protogen-source-roots.yaml"

// manifestDoc is the on-disk format
type manifestDoc struct {
	Main []string `yaml:"main,omitempty"`
	Test []string `yaml:"test,omitempty"`
}

// Manifest is a Registrar that persists source roots to a YAML file so other
// build steps can pick them up
type Manifest struct {
	mu   sync.Mutex
	fs   afero.Fs
	path string
}

// NewManifest creates a manifest registrar writing to path
func NewManifest(fs afero.Fs, path string) *Manifest {
	return &Manifest{fs: fs, path: path}
}

// Path returns the manifest location
func (m *Manifest) Path() string {
	return m.path
}

// Register adds dir under kind, rewriting the file only when it changes
func (m *Manifest) Register(dir string, kind Kind) error {
	key, err := normalise(dir)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.read()
	if err != nil {
		return err
	}

	var roots *[]string
	switch kind {
	case Main:
		roots = &doc.Main
	case Test:
		roots = &doc.Test
	default:
		return fmt.Errorf("invalid source root kind %v", kind)
	}

	if slices.Contains(*roots, key) {
		return nil
	}

	*roots = append(*roots, key)
	slices.Sort(*roots)

	return m.write(doc)
}

// Roots returns the persisted roots of kind
func (m *Manifest) Roots(kind Kind) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.read()
	if err != nil {
		return nil, err
	}

	if kind == Test {
		return doc.Test, nil
	}

	return doc.Main, nil
}

func (m *Manifest) read() (*manifestDoc, error) {
	var doc manifestDoc

	data, err := afero.ReadFile(m.fs, m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &doc, nil
		}

		return nil, fmt.Errorf("failed to read source root manifest: %w", err)
	}

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse source root manifest %s: %w", m.path, err)
	}

	return &doc, nil
}

func (m *Manifest) write(doc *manifestDoc) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}

	if err := m.fs.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	if err := afero.WriteFile(m.fs, m.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write source root manifest: %w", err)
	}

	return nil
}
