package versions

import (
	"fmt"
	"strings"
)

// Range is a Maven version range, a union of one or more restrictions such as
// "[3.5.0,4.0.0)", "(,1.0],[1.2,)" or "[3.21.12]".
type Range struct {
	raw          string
	restrictions []restriction
}

// restriction is a single interval; a nil bound is unbounded
type restriction struct {
	lower          *Version
	lowerInclusive bool
	upper          *Version
	upperInclusive bool
}

// ParseRange parses Maven range syntax
func ParseRange(s string) (*Range, error) {
	raw := strings.TrimSpace(s)
	rest := raw
	r := &Range{raw: raw}

	for rest != "" {
		open := rest[0]
		if open != '[' && open != '(' {
			return nil, fmt.Errorf("invalid version range %q: expected '[' or '('", raw)
		}

		end := strings.IndexAny(rest, "])")
		if end < 0 {
			return nil, fmt.Errorf("invalid version range %q: unbounded restriction", raw)
		}

		res, err := parseRestriction(open, rest[1:end], rest[end])
		if err != nil {
			return nil, fmt.Errorf("invalid version range %q: %w", raw, err)
		}

		r.restrictions = append(r.restrictions, res)

		rest = strings.TrimSpace(rest[end+1:])
		if rest == "" {
			break
		}

		if rest[0] != ',' {
			return nil, fmt.Errorf("invalid version range %q: expected ',' between restrictions", raw)
		}

		rest = strings.TrimSpace(rest[1:])
		if rest == "" {
			return nil, fmt.Errorf("invalid version range %q: trailing ','", raw)
		}
	}

	if len(r.restrictions) == 0 {
		return nil, fmt.Errorf("invalid version range %q: empty", raw)
	}

	return r, nil
}

func parseRestriction(open byte, body string, closing byte) (restriction, error) {
	res := restriction{
		lowerInclusive: open == '[',
		upperInclusive: closing == ']',
	}

	parts := strings.Split(body, ",")
	switch len(parts) {
	case 1:
		// [1.0] pins a single version
		if !res.lowerInclusive || !res.upperInclusive {
			return res, fmt.Errorf("single version %q must use []", body)
		}

		v, err := parseBound(parts[0])
		if err != nil {
			return res, err
		}

		if v == nil {
			return res, fmt.Errorf("empty restriction")
		}

		res.lower, res.upper = v, v

	case 2:
		var err error
		if res.lower, err = parseBound(parts[0]); err != nil {
			return res, err
		}

		if res.upper, err = parseBound(parts[1]); err != nil {
			return res, err
		}

		if res.lower == nil && res.lowerInclusive {
			return res, fmt.Errorf("unbounded lower end must use '('")
		}

		if res.upper == nil && res.upperInclusive {
			return res, fmt.Errorf("unbounded upper end must use ')'")
		}

		if res.lower != nil && res.upper != nil {
			if res.upper.Compare(res.lower) < 0 {
				return res, fmt.Errorf("lower bound %s above upper bound %s", res.lower, res.upper)
			}

			if res.lower.Compare(res.upper) == 0 && !(res.lowerInclusive && res.upperInclusive) {
				return res, fmt.Errorf("empty interval at %s", res.lower)
			}
		}

	default:
		return res, fmt.Errorf("too many bounds in %q", body)
	}

	return res, nil
}

func parseBound(s string) (*Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	v, err := ParseVersion(s)
	if err != nil {
		return nil, fmt.Errorf("invalid version bound: %w", err)
	}

	return v, nil
}

// Contains reports whether any restriction admits v
func (r *Range) Contains(v *Version) bool {
	for _, res := range r.restrictions {
		if res.contains(v) {
			return true
		}
	}

	return false
}

func (res restriction) contains(v *Version) bool {
	if res.lower != nil {
		c := v.Compare(res.lower)
		if c < 0 || (c == 0 && !res.lowerInclusive) {
			return false
		}
	}

	if res.upper != nil {
		c := v.Compare(res.upper)
		if c > 0 || (c == 0 && !res.upperInclusive) {
			return false
		}
	}

	return true
}

func (r *Range) String() string {
	return r.raw
}
