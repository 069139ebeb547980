package repository

import "time"

// Entry records an artifact downloaded into the local repository
type Entry struct {
	// Coordinates is the artifact's group:artifact:version:type:classifier, used as the index key
	Coordinates string `json:"coordinates"`

	// Path is the absolute location of the file in the local repository
	Path string `json:"path"`

	// SHA1 is the hex digest of the downloaded content
	SHA1 string `json:"sha1"`

	// Verified is true when the remote published a checksum and it matched
	Verified bool `json:"verified"`

	Size int64 `json:"size"`

	// Remote is the repository URL the artifact came from
	Remote string `json:"remote"`

	Timestamp time.Time `json:"timestamp"`
}

// Metadata caches the published version list of one group:artifact
type Metadata struct {
	Key      string    `json:"key"`
	Versions []string  `json:"versions"`
	Fetched  time.Time `json:"fetched"`
}
