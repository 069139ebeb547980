// Package artifact describes Maven style artifact coordinates and the
// resolver contract used to turn them into files on disk.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DefaultType is the packaging type used for native executables
const DefaultType = "exe"

// ErrNotFound is returned by resolvers when an artifact or its metadata does not exist
var ErrNotFound = errors.New("artifact not found")

// Coordinates identify a single artifact in a Maven repository
type Coordinates struct {
	GroupID    string `mapstructure:"group_id" yaml:"group_id"`
	ArtifactID string `mapstructure:"artifact_id" yaml:"artifact_id"`
	Version    string `mapstructure:"version" yaml:"version"`
	Type       string `mapstructure:"type" yaml:"type,omitempty"`
	Classifier string `mapstructure:"classifier" yaml:"classifier,omitempty"`
}

// Resolver downloads or locates artifacts
type Resolver interface {
	// ResolveArtifact returns the local path of the artifact, or ErrNotFound
	ResolveArtifact(ctx context.Context, c Coordinates) (string, error)

	// ListAvailableVersions returns every published version of c's group and artifact
	ListAvailableVersions(ctx context.Context, c Coordinates) ([]string, error)
}

// Validate checks the mandatory fields are present
func (c Coordinates) Validate() error {
	var missing []string
	if strings.TrimSpace(c.GroupID) == "" {
		missing = append(missing, "group_id")
	}

	if strings.TrimSpace(c.ArtifactID) == "" {
		missing = append(missing, "artifact_id")
	}

	if strings.TrimSpace(c.Version) == "" {
		missing = append(missing, "version")
	}

	if len(missing) > 0 {
		return fmt.Errorf("incomplete coordinates %s: missing %s", c, strings.Join(missing, ", "))
	}

	return nil
}

// WithVersion returns a copy of c pinned to version
func (c Coordinates) WithVersion(version string) Coordinates {
	c.Version = version
	return c
}

// String renders group:artifact:version[:type[:classifier]]
func (c Coordinates) String() string {
	parts := []string{c.GroupID, c.ArtifactID, c.Version}
	if c.Type != "" || c.Classifier != "" {
		parts = append(parts, c.Type)
	}

	if c.Classifier != "" {
		parts = append(parts, c.Classifier)
	}

	return strings.Join(parts, ":")
}

// FileName returns artifactId-version[-classifier].type
func (c Coordinates) FileName() string {
	name := c.ArtifactID + "-" + c.Version
	if c.Classifier != "" {
		name += "-" + c.Classifier
	}

	ext := c.Type
	if ext == "" {
		ext = "jar"
	}

	return name + "." + ext
}

// Dir returns the repository relative directory holding the artifact, using forward slashes
func (c Coordinates) Dir() string {
	return strings.ReplaceAll(c.GroupID, ".", "/") + "/" + c.ArtifactID + "/" + c.Version
}

// MetadataPath returns the repository relative path of maven-metadata.xml
func (c Coordinates) MetadataPath() string {
	return strings.ReplaceAll(c.GroupID, ".", "/") + "/" + c.ArtifactID + "/maven-metadata.xml"
}

// Path returns the repository relative path of the artifact file
func (c Coordinates) Path() string {
	return c.Dir() + "/" + c.FileName()
}
