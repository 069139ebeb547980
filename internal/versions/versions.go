// Package versions interprets compiler version specifiers: the PATH literal,
// exact versions and Maven version ranges.
package versions

import (
	"errors"
	"fmt"
	"strings"
)

// PathLiteral selects the compiler found on the system executable search path
const PathLiteral = "PATH"

// ErrNoVersionInRange is returned by Select when no catalog entry satisfies the range
var ErrNoVersionInRange = errors.New("no version in range")

// SpecifierKind tells which interpretation of a specifier applies
type SpecifierKind int

const (
	KindPath SpecifierKind = iota
	KindExact
	KindRange
)

func (k SpecifierKind) String() string {
	switch k {
	case KindPath:
		return "path"
	case KindExact:
		return "exact"
	case KindRange:
		return "range"
	default:
		return "unknown"
	}
}

// Specifier is a parsed version specifier
type Specifier struct {
	Kind  SpecifierKind
	Raw   string
	Range *Range
}

// ParseSpecifier classifies s. Exactly one of the three interpretations applies.
func ParseSpecifier(s string) (Specifier, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Specifier{}, fmt.Errorf("version specifier is empty")
	}

	if strings.EqualFold(raw, PathLiteral) {
		return Specifier{Kind: KindPath, Raw: PathLiteral}, nil
	}

	if IsRange(raw) {
		r, err := ParseRange(raw)
		if err != nil {
			return Specifier{}, err
		}

		return Specifier{Kind: KindRange, Raw: raw, Range: r}, nil
	}

	if strings.ContainsAny(raw, "[](),") {
		return Specifier{}, fmt.Errorf("invalid version %q", raw)
	}

	return Specifier{Kind: KindExact, Raw: raw}, nil
}

// IsRange reports whether s uses range syntax
func IsRange(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "[") || strings.HasPrefix(s, "(")
}

func (s Specifier) String() string {
	return s.Raw
}

// Select returns the highest version in catalog that r contains, in Maven
// order. Entries that are not valid versions are ignored; of two spellings of
// the same version ("1.0", "1.0.0") the lexically greater one wins so the
// result does not depend on catalog order.
func Select(r *Range, catalog []string) (string, error) {
	var best *Version
	for _, raw := range catalog {
		v, err := ParseVersion(raw)
		if err != nil {
			continue
		}

		if !r.Contains(v) {
			continue
		}

		if best == nil {
			best = v
			continue
		}

		if c := v.Compare(best); c > 0 || (c == 0 && v.Original() > best.Original()) {
			best = v
		}
	}

	if best == nil {
		return "", fmt.Errorf("%w %s", ErrNoVersionInRange, r)
	}

	return best.Original(), nil
}
