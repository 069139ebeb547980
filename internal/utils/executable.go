package utils

import (
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/Norgate-AV/protogen/internal/platform"
)

// Binary is a resolved executable on the local file system
type Binary struct {
	// Path is absolute
	Path string
}

// PathLookup searches the system executable search path
type PathLookup func(name string) (string, error)

// LookPath is the default PathLookup
var LookPath PathLookup = exec.LookPath

// MakeExecutable resolves path to an absolute regular file and grants execute
// permission to everyone who can read it. A file that already carries an
// execute bit is left alone, since it may belong to another user. Windows has
// no execute bit, so only the existence check applies there.
func MakeExecutable(path string) (Binary, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Binary{}, fmt.Errorf("failed to resolve absolute path for %s: %w", path, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return Binary{}, fmt.Errorf("failed to stat %s: %w", abs, err)
	}

	if info.IsDir() {
		return Binary{}, fmt.Errorf("%s is a directory", abs)
	}

	if host, err := platform.Host(); err == nil && host.IsWindows() {
		return Binary{Path: abs}, nil
	}

	mode := info.Mode().Perm()
	if mode&0o111 != 0 {
		return Binary{Path: abs}, nil
	}

	if err := os.Chmod(abs, mode|executeBits(mode)); err != nil {
		return Binary{}, fmt.Errorf("failed to mark %s executable: %w", abs, err)
	}

	return Binary{Path: abs}, nil
}

// executeBits mirrors each read bit onto the matching execute bit
func executeBits(mode fs.FileMode) fs.FileMode {
	var bits fs.FileMode = 0o100
	if mode&0o040 != 0 {
		bits |= 0o010
	}

	if mode&0o004 != 0 {
		bits |= 0o001
	}

	return bits
}
