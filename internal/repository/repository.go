// Package repository resolves artifacts against a Maven layout repository.
//
// Artifacts are downloaded from a remote repository into a local repository
// directory laid out the same way Maven lays out ~/.m2/repository, so files
// already fetched by Maven are reused. A BoltDB index in the local repository
// records what this tool downloaded (for stats and cleanup) and caches the
// version lists read from maven-metadata.xml.
package repository

import (
	"context"
	"crypto/sha1" //nolint:gosec // Maven Central publishes SHA-1 sidecars
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Norgate-AV/protogen/internal/artifact"
)

const (
	// DefaultRemote is Maven Central
	DefaultRemote = "https://repo.maven.apache.org/maven2"

	// DefaultMetadataTTL bounds how long a cached version list is trusted
	DefaultMetadataTTL = 24 * time.Hour
)

// Options configure a Repository
type Options struct {
	// Remote is the base URL of the remote repository
	Remote string

	// Local is the local repository directory. Defaults to ~/.m2/repository.
	Local string

	// Offline disables all network access
	Offline bool

	MetadataTTL time.Duration
	Client      *http.Client
	Logger      logrus.FieldLogger
}

// Repository implements artifact.Resolver
type Repository struct {
	remote  string
	local   string
	offline bool
	ttl     time.Duration
	client  *http.Client
	index   *Index
	logger  logrus.FieldLogger
	now     func() time.Time
}

var _ artifact.Resolver = (*Repository)(nil)

// DefaultLocal returns ~/.m2/repository
func DefaultLocal() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".m2", "repository"), nil
}

// New opens a repository, creating the local directory and index if needed
func New(opts Options) (*Repository, error) {
	local := opts.Local
	if local == "" {
		var err error
		if local, err = DefaultLocal(); err != nil {
			return nil, err
		}
	}

	local, err := filepath.Abs(local)
	if err != nil {
		return nil, fmt.Errorf("invalid local repository path: %w", err)
	}

	if err := os.MkdirAll(local, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create local repository: %w", err)
	}

	index, err := OpenIndex(filepath.Join(local, IndexFile))
	if err != nil {
		return nil, err
	}

	r := &Repository{
		remote:  strings.TrimRight(opts.Remote, "/"),
		local:   local,
		offline: opts.Offline,
		ttl:     opts.MetadataTTL,
		client:  opts.Client,
		index:   index,
		logger:  opts.Logger,
		now:     time.Now,
	}

	if r.remote == "" {
		r.remote = DefaultRemote
	}

	if r.ttl <= 0 {
		r.ttl = DefaultMetadataTTL
	}

	if r.client == nil {
		r.client = &http.Client{Timeout: 5 * time.Minute}
	}

	if r.logger == nil {
		r.logger = logrus.StandardLogger()
	}

	return r, nil
}

// Close closes the index
func (r *Repository) Close() error {
	return r.index.Close()
}

// Local returns the local repository directory
func (r *Repository) Local() string {
	return r.local
}

// ResolveArtifact returns the local path of c, downloading it when absent
func (r *Repository) ResolveArtifact(ctx context.Context, c artifact.Coordinates) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}

	rel := c.Path()
	path := filepath.Join(r.local, filepath.FromSlash(rel))
	log := r.logger.WithFields(logrus.Fields{"artifact": c.String(), "path": path})

	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		if r.intact(c, path, log) {
			log.Debug("Artifact found in local repository")
			return path, nil
		}

		if err := os.Remove(path); err != nil {
			return "", fmt.Errorf("failed to remove corrupt artifact %s: %w", path, err)
		}
	}

	if r.offline {
		return "", fmt.Errorf("%s is not in the local repository and offline mode is enabled: %w", c, artifact.ErrNotFound)
	}

	log.Info("Downloading artifact")

	entry, err := r.download(ctx, rel, path)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", c, err)
	}

	entry.Coordinates = c.String()
	if err := r.index.Put(*entry); err != nil {
		// The file is usable even if we fail to record it
		log.WithError(err).Warn("Failed to record artifact in index")
	}

	return path, nil
}

// intact reports whether a local file still matches the digest recorded when
// it was downloaded. Files this tool did not download have no entry and are
// trusted as they are.
func (r *Repository) intact(c artifact.Coordinates, path string, log logrus.FieldLogger) bool {
	entry, err := r.index.Get(c.String())
	if err != nil {
		log.WithError(err).Warn("Failed to read artifact index")
		return true
	}

	if entry == nil || entry.SHA1 == "" || entry.Path != path {
		return true
	}

	digest, err := HashFile(path)
	if err != nil {
		log.WithError(err).Warn("Failed to hash local artifact")
		return false
	}

	if digest != entry.SHA1 {
		log.WithFields(logrus.Fields{"expected": entry.SHA1, "actual": digest}).Warn("Local artifact does not match its recorded checksum")
		return false
	}

	return true
}

// ListAvailableVersions returns the versions published for c's group and artifact
func (r *Repository) ListAvailableVersions(ctx context.Context, c artifact.Coordinates) ([]string, error) {
	key := c.GroupID + ":" + c.ArtifactID
	log := r.logger.WithField("artifact", key)

	cached, err := r.index.Metadata(key)
	if err != nil {
		log.WithError(err).Warn("Failed to read cached metadata")
	}

	if cached != nil && (r.offline || r.now().Sub(cached.Fetched) < r.ttl) {
		log.WithField("fetched", cached.Fetched).Debug("Using cached version list")
		return append([]string(nil), cached.Versions...), nil
	}

	if r.offline {
		return nil, fmt.Errorf("no cached version list for %s and offline mode is enabled: %w", key, artifact.ErrNotFound)
	}

	body, err := r.fetch(ctx, c.MetadataPath())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metadata for %s: %w", key, err)
	}

	versions, err := parseMetadata(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse metadata for %s: %w", key, err)
	}

	err = r.index.PutMetadata(Metadata{Key: key, Versions: versions, Fetched: r.now()})
	if err != nil {
		log.WithError(err).Warn("Failed to cache version list")
	}

	log.WithField("versions", len(versions)).Debug("Fetched version list")

	return versions, nil
}

// Stats returns the number of downloaded artifacts and their total size
func (r *Repository) Stats() (int, int64, error) {
	return r.index.Stats()
}

// Clear deletes every artifact this tool downloaded and resets the index.
// Files Maven placed in a shared local repository are left alone.
func (r *Repository) Clear() error {
	entries, err := r.index.Entries()
	if err != nil {
		return err
	}

	for _, e := range entries {
		if err := os.Remove(e.Path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", e.Path, err)
		}
	}

	return r.index.Clear()
}

func (r *Repository) download(ctx context.Context, rel, dest string) (*Entry, error) {
	resp, err := r.get(ctx, rel)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}

	// Removing after a successful rename fails harmlessly
	defer os.Remove(tmp.Name())

	h := sha1.New() //nolint:gosec
	size, err := io.Copy(io.MultiWriter(tmp, h), resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return nil, fmt.Errorf("failed to write artifact: %w", err)
	}

	digest := hex.EncodeToString(h.Sum(nil))

	verified, err := r.verify(ctx, rel, digest)
	if err != nil {
		return nil, err
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return nil, fmt.Errorf("failed to move artifact into place: %w", err)
	}

	return &Entry{
		Path:      dest,
		SHA1:      digest,
		Verified:  verified,
		Size:      size,
		Remote:    r.remote,
		Timestamp: r.now(),
	}, nil
}

// verify compares digest against the published .sha1 sidecar, if there is one
func (r *Repository) verify(ctx context.Context, rel, digest string) (bool, error) {
	body, err := r.fetch(ctx, rel+".sha1")
	if errors.Is(err, artifact.ErrNotFound) {
		r.logger.WithField("path", rel).Debug("No checksum published, skipping verification")
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to fetch checksum: %w", err)
	}

	want := parseChecksum(body)
	if want != digest {
		return false, fmt.Errorf("checksum mismatch for %s: expected %s, got %s", rel, want, digest)
	}

	return true, nil
}

func (r *Repository) fetch(ctx context.Context, rel string) ([]byte, error) {
	resp, err := r.get(ctx, rel)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func (r *Repository) get(ctx context.Context, rel string) (*http.Response, error) {
	url := r.remote + "/" + rel

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("%s: %w", url, artifact.ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		resp.Body.Close()
		return nil, fmt.Errorf("%s: unexpected status %s", url, resp.Status)
	}

	return resp, nil
}

type mavenMetadata struct {
	Versioning struct {
		Versions []string `xml:"versions>version"`
	} `xml:"versioning"`
}

func parseMetadata(body []byte) ([]string, error) {
	var m mavenMetadata
	if err := xml.Unmarshal(body, &m); err != nil {
		return nil, err
	}

	versions := make([]string, 0, len(m.Versioning.Versions))
	for _, v := range m.Versioning.Versions {
		if v = strings.TrimSpace(v); v != "" {
			versions = append(versions, v)
		}
	}

	return versions, nil
}
