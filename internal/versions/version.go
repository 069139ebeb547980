package versions

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// plainRelease matches versions semver and Maven order identically
var plainRelease = regexp.MustCompile(`^\d+(\.\d+){0,2}$`)

// qualifiers in ascending order; "" is a release
var qualifiers = []string{"alpha", "beta", "milestone", "rc", "snapshot", "", "sp"}

var qualifierAliases = map[string]string{
	"ga":      "",
	"final":   "",
	"release": "",
	"cr":      "rc",
}

const releaseIndex = "5"

// Version is a Maven artifact version. Ordering follows Maven's
// ComparableVersion: numeric segments compare as numbers, qualifiers rank
// alpha < beta < milestone < rc < snapshot < release < sp, unknown
// qualifiers sort after sp lexically, and any number of segments is allowed.
type Version struct {
	raw   string
	items listItem

	// set for plain releases such as 3.25.1
	release *semver.Version
}

// ParseVersion parses a Maven version. It must start with a digit and contain
// no whitespace or range syntax.
func ParseVersion(s string) (*Version, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return nil, fmt.Errorf("version is empty")
	}

	if raw[0] < '0' || raw[0] > '9' {
		return nil, fmt.Errorf("invalid version %q: must start with a digit", raw)
	}

	if strings.ContainsAny(raw, "[](), \t") {
		return nil, fmt.Errorf("invalid version %q", raw)
	}

	v := &Version{raw: raw, items: parseItems(strings.ToLower(raw))}

	if plainRelease.MatchString(raw) {
		sv, err := semver.NewVersion(raw)
		if err == nil {
			v.release = sv
		}
	}

	return v, nil
}

// MustParseVersion is ParseVersion for constants; it panics on error
func MustParseVersion(s string) *Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}

	return v
}

// Original returns the version as it was written
func (v *Version) Original() string {
	return v.raw
}

func (v *Version) String() string {
	return v.raw
}

// Compare returns -1, 0 or 1 as v is below, equal to or above o
func (v *Version) Compare(o *Version) int {
	if v.release != nil && o.release != nil {
		return v.release.Compare(o.release)
	}

	return v.items.compare(o.items)
}

// item is one segment of a parsed version: intItem, stringItem or listItem.
// A nil item stands for a missing segment.
type item interface {
	compare(other item) int
	isNull() bool
}

// intItem holds digits without leading zeros, so it compares by length then lexically
type intItem string

func newIntItem(digits string) intItem {
	digits = strings.TrimLeft(digits, "0")
	return intItem(digits)
}

func (i intItem) isNull() bool {
	return i == ""
}

func (i intItem) compare(other item) int {
	switch o := other.(type) {
	case nil:
		if i.isNull() {
			return 0
		}

		return 1
	case intItem:
		if len(i) != len(o) {
			return cmp(len(i), len(o))
		}

		return strings.Compare(string(i), string(o))
	default:
		// numbers rank above qualifiers and sublists
		return 1
	}
}

type stringItem string

func newStringItem(s string, followedByDigit bool) stringItem {
	if followedByDigit && len(s) == 1 {
		switch s {
		case "a":
			s = "alpha"
		case "b":
			s = "beta"
		case "m":
			s = "milestone"
		}
	}

	if alias, ok := qualifierAliases[s]; ok {
		s = alias
	}

	return stringItem(s)
}

func (s stringItem) comparable() string {
	for i, q := range qualifiers {
		if string(s) == q {
			return fmt.Sprint(i)
		}
	}

	return fmt.Sprintf("%d-%s", len(qualifiers), string(s))
}

func (s stringItem) isNull() bool {
	return s.comparable() == releaseIndex
}

func (s stringItem) compare(other item) int {
	switch o := other.(type) {
	case nil:
		return strings.Compare(s.comparable(), releaseIndex)
	case intItem:
		return -1
	case stringItem:
		return strings.Compare(s.comparable(), o.comparable())
	default:
		return -1
	}
}

type listItem []item

func (l listItem) isNull() bool {
	return len(l) == 0
}

func (l listItem) compare(other item) int {
	switch o := other.(type) {
	case nil:
		if len(l) == 0 {
			return 0
		}

		return l[0].compare(nil)
	case intItem:
		return -1
	case stringItem:
		return 1
	case listItem:
		for i := 0; i < len(l) || i < len(o); i++ {
			var left, right item
			if i < len(l) {
				left = l[i]
			}

			if i < len(o) {
				right = o[i]
			}

			var c int
			switch {
			case left == nil && right == nil:
				c = 0
			case left == nil:
				c = -right.compare(nil)
			default:
				c = left.compare(right)
			}

			if c != 0 {
				return c
			}
		}

		return 0
	default:
		return 0
	}
}

// normalize drops trailing null segments up to the last non-list item
func (l listItem) normalize() listItem {
	for i := len(l) - 1; i >= 0; i-- {
		if l[i].isNull() {
			l = append(l[:i], l[i+1:]...)
			continue
		}

		if _, ok := l[i].(listItem); !ok {
			break
		}
	}

	return l
}

// builder tracks the nesting of sublists while a version is tokenised
type builder struct {
	stack []listItem
}

func (b *builder) add(it item) {
	top := len(b.stack) - 1
	b.stack[top] = append(b.stack[top], it)
}

func (b *builder) push() {
	b.stack = append(b.stack, listItem{})
}

// finish folds each sublist into its parent, normalising on the way out
func (b *builder) finish() listItem {
	for len(b.stack) > 1 {
		top := len(b.stack) - 1
		child := b.stack[top].normalize()
		b.stack = b.stack[:top]
		b.add(child)
	}

	return b.stack[0].normalize()
}

func parseItems(s string) listItem {
	b := &builder{}
	b.push()

	segment := func(digits bool, text string) item {
		if digits {
			return newIntItem(text)
		}

		return newStringItem(text, false)
	}

	isDigit := false
	start := 0

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch {
		case c == '.' || c == '-':
			if i == start {
				b.add(intItem(""))
			} else {
				b.add(segment(isDigit, s[start:i]))
			}

			start = i + 1
			if c == '-' {
				b.push()
			}

		case c >= '0' && c <= '9':
			if !isDigit && i > start {
				// "rc1" reads as "rc-1"
				b.add(newStringItem(s[start:i], true))
				start = i
				b.push()
			}

			isDigit = true

		default:
			if isDigit && i > start {
				b.add(newIntItem(s[start:i]))
				start = i
				b.push()
			}

			isDigit = false
		}
	}

	if len(s) > start {
		b.add(segment(isDigit, s[start:]))
	}

	return b.finish()
}

func cmp(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
