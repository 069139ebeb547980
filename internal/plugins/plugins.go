// Package plugins resolves protoc code generation plugins to executables.
package plugins

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Norgate-AV/protogen/internal/artifact"
	"github.com/Norgate-AV/protogen/internal/codes"
	"github.com/Norgate-AV/protogen/internal/utils"
)

// validID matches identifiers usable in --plugin=protoc-gen-<id> and --<id>_out
var validID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// Bean declares one plugin. Exactly one of Dependency and ExecutableName is set.
type Bean struct {
	// ID names the plugin's output flag, e.g. "reactor" for --reactor_out
	ID string `mapstructure:"id" yaml:"id"`

	// Dependency points at a Maven artifact. Type defaults to "exe" and
	// Classifier to the host platform.
	Dependency *artifact.Coordinates `mapstructure:"dependency" yaml:"dependency,omitempty"`

	// ExecutableName is looked up on PATH
	ExecutableName string `mapstructure:"executable_name" yaml:"executable_name,omitempty"`
}

// Resolved pairs a plugin identifier with its executable
type Resolved struct {
	ID     string
	Binary utils.Binary
}

func (b Bean) String() string {
	switch {
	case b.Dependency != nil:
		return fmt.Sprintf("%s (%s)", b.ID, b.Dependency)
	case b.ExecutableName != "":
		return fmt.Sprintf("%s (%s on PATH)", b.ID, b.ExecutableName)
	default:
		return b.ID
	}
}

// Validate checks the identifier and that exactly one source is declared
func (b Bean) Validate() error {
	if !validID.MatchString(b.ID) {
		return codes.New(codes.KindInvalidRequest, "invalid plugin id %q", b.ID)
	}

	hasDep := b.Dependency != nil
	hasExe := strings.TrimSpace(b.ExecutableName) != ""

	switch {
	case hasDep && hasExe:
		return codes.New(codes.KindInvalidRequest, "plugin %q declares both a dependency and an executable name", b.ID)
	case !hasDep && !hasExe:
		return codes.New(codes.KindInvalidRequest, "plugin %q declares neither a dependency nor an executable name", b.ID)
	case hasDep:
		if err := b.Dependency.Validate(); err != nil {
			return codes.Wrap(codes.KindInvalidRequest, err, "plugin %q", b.ID)
		}
	}

	return nil
}

// CheckUnique fails if two beans share an identifier
func CheckUnique(beans []Bean) error {
	seen := make(map[string]struct{}, len(beans))
	var dups []string

	for _, b := range beans {
		if _, ok := seen[b.ID]; ok {
			dups = append(dups, b.ID)
			continue
		}

		seen[b.ID] = struct{}{}
	}

	if len(dups) > 0 {
		return codes.New(codes.KindDuplicatePluginIdentifier, "duplicate plugin identifiers: %s", strings.Join(dups, ", "))
	}

	return nil
}
