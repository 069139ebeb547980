// Package platform derives the OS and architecture classifier used to pick
// native protoc and plugin binaries.
package platform

import (
	"runtime"

	"github.com/Norgate-AV/protogen/internal/codes"
)

// Platform is a normalised OS family and CPU architecture pair
type Platform struct {
	OS   string
	Arch string
}

// Classifier produces the platform for the running host
type Classifier func() (Platform, error)

// Names follow the classifiers protoc publishes to Maven Central.
var osNames = map[string]string{
	"linux":   "linux",
	"darwin":  "osx",
	"windows": "windows",
}

var archNames = map[string]string{
	"amd64":   "x86_64",
	"386":     "x86_32",
	"arm64":   "aarch_64",
	"ppc64le": "ppcle_64",
	"s390x":   "s390_64",
}

// Classify maps a GOOS/GOARCH pair onto a supported platform
func Classify(goos, goarch string) (Platform, error) {
	osName, ok := osNames[goos]
	if !ok {
		return Platform{}, codes.New(codes.KindUnsupportedPlatform, "unsupported operating system %q", goos)
	}

	arch, ok := archNames[goarch]
	if !ok {
		return Platform{}, codes.New(codes.KindUnsupportedPlatform, "unsupported architecture %q on %s", goarch, goos)
	}

	return Platform{OS: osName, Arch: arch}, nil
}

// Host classifies the platform this process runs on
func Host() (Platform, error) {
	return Classify(runtime.GOOS, runtime.GOARCH)
}

// Fixed returns a Classifier that always reports p
func Fixed(p Platform) Classifier {
	return func() (Platform, error) {
		return p, nil
	}
}

// String returns the classifier, e.g. linux-x86_64
func (p Platform) String() string {
	return p.OS + "-" + p.Arch
}

// IsWindows reports whether binaries for p need no permission bits
func (p Platform) IsWindows() bool {
	return p.OS == "windows"
}
