// Package sourceroot records generated output directories as compile roots
// of the enclosing build.
package sourceroot

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Kind tags a source root as main or test sources
type Kind int

const (
	Main Kind = iota
	Test
)

func (k Kind) String() string {
	switch k {
	case Main:
		return "main"
	case Test:
		return "test"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind accepts "main" or "test"
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "main", "":
		return Main, nil
	case "test":
		return Test, nil
	default:
		return Main, fmt.Errorf("invalid source root kind %q", s)
	}
}

// Registrar informs the build that a directory holds sources of a kind.
// Registering the same directory and kind again must be a no-op.
type Registrar interface {
	Register(dir string, kind Kind) error
}

// Registry is an in-memory Registrar
type Registry struct {
	mu    sync.Mutex
	roots map[Kind]map[string]struct{}
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{roots: make(map[Kind]map[string]struct{})}
}

// Register adds dir to the roots of kind
func (r *Registry) Register(dir string, kind Kind) error {
	key, err := normalise(dir)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.roots[kind] == nil {
		r.roots[kind] = make(map[string]struct{})
	}

	r.roots[kind][key] = struct{}{}

	return nil
}

// Roots returns the registered directories of kind, sorted
func (r *Registry) Roots(kind Kind) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	roots := make([]string, 0, len(r.roots[kind]))
	for dir := range r.roots[kind] {
		roots = append(roots, dir)
	}

	sort.Strings(roots)

	return roots
}

func normalise(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", fmt.Errorf("source root directory is empty")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s: %w", dir, err)
	}

	return abs, nil
}
