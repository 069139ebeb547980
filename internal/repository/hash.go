package repository

import (
	"crypto/sha1" //nolint:gosec // Maven Central publishes SHA-1 sidecars
	"encoding/hex"
	"io"
	"os"
	"strings"
)

// HashFile returns the hex SHA-1 of a file's content
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha1.New() //nolint:gosec
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// parseChecksum extracts the digest from a .sha1 sidecar, which may be
// followed by a file name
func parseChecksum(body []byte) string {
	fields := strings.Fields(string(body))
	if len(fields) == 0 {
		return ""
	}

	return strings.ToLower(fields[0])
}
