package versions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSpecifier(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantKind    SpecifierKind
		wantRaw     string
		wantErr     bool
		errContains string
	}{
		{"path literal", "PATH", KindPath, "PATH", false, ""},
		{"path literal any case", "path", KindPath, "PATH", false, ""},
		{"exact version", "3.25.1", KindExact, "3.25.1", false, ""},
		{"exact version trimmed", "  4.28.2 ", KindExact, "4.28.2", false, ""},
		{"range", "[3.5.0,4.0.0)", KindRange, "[3.5.0,4.0.0)", false, ""},
		{"open lower range", "(,3.0.0]", KindRange, "(,3.0.0]", false, ""},
		{"empty", "", 0, "", true, "empty"},
		{"broken range", "[3.5.0,4.0.0", 0, "", true, "invalid version range"},
		{"range chars in exact version", "3.5,4.0", 0, "", true, "invalid version"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := ParseSpecifier(tt.input)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, spec.Kind)
			assert.Equal(t, tt.wantRaw, spec.Raw)
			assert.Equal(t, tt.wantKind == KindRange, spec.Range != nil)
		})
	}
}

func TestParseRange_Invalid(t *testing.T) {
	tests := []string{
		"(1.0)",
		"[1.0,2.0,3.0]",
		"[2.0,1.0]",
		"[1.0,1.0)",
		"[,1.0]",
		"[1.0,]",
		"[1.0],",
		"[1.0]x",
		"[abc,def]",
		"1.0",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := ParseRange(input)
			assert.Error(t, err)
		})
	}
}

func TestRange_Contains(t *testing.T) {
	tests := []struct {
		rng     string
		version string
		want    bool
	}{
		{"[3.5.0,4.0.0)", "3.5.0", true},
		{"[3.5.0,4.0.0)", "3.9.1", true},
		{"[3.5.0,4.0.0)", "4.0.0", false},
		{"[3.5.0,4.0.0)", "3.4.0", false},
		{"(3.5.0,4.0.0]", "3.5.0", false},
		{"(3.5.0,4.0.0]", "4.0.0", true},
		{"(,3.0.0]", "1.0.0", true},
		{"(,3.0.0)", "3.0.0", false},
		{"[3.0.0,)", "99.0.0", true},
		{"[3.21.12]", "3.21.12", true},
		{"[3.21.12]", "3.21.11", false},
		{"(,1.0],[1.2,)", "1.1", false},
		{"(,1.0],[1.2,)", "1.2", true},
		{"(,1.0],[1.2,)", "0.9", true},
		{"[4.0.0,)", "4.0.0-rc1", false},
		{"[4.0.0,)", "4.0.0-final", true},
		{"[1.2.3,1.2.4)", "1.2.3.4", true},
		{"[3.0.0-beta-2,3.0.0)", "3.0.0-beta-10", true},
	}

	for _, tt := range tests {
		t.Run(tt.rng+" "+tt.version, func(t *testing.T) {
			r, err := ParseRange(tt.rng)
			require.NoError(t, err)

			assert.Equal(t, tt.want, r.Contains(MustParseVersion(tt.version)))
		})
	}
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name    string
		rng     string
		catalog []string
		want    string
		wantErr bool
	}{
		{
			name:    "highest below exclusive upper bound",
			rng:     "[3.5.0,4.0.0)",
			catalog: []string{"3.4.0", "3.5.0", "3.9.1", "4.0.0"},
			want:    "3.9.1",
		},
		{
			name:    "catalog order does not matter",
			rng:     "[3.5.0,4.0.0)",
			catalog: []string{"4.0.0", "3.9.1", "3.5.0", "3.4.0"},
			want:    "3.9.1",
		},
		{
			name:    "numeric not lexical ordering",
			rng:     "[3.0,)",
			catalog: []string{"3.9.0", "3.10.0", "3.2.0"},
			want:    "3.10.0",
		},
		{
			name:    "unparseable entries are skipped",
			rng:     "[1.0,)",
			catalog: []string{"garbage", "1.1.0"},
			want:    "1.1.0",
		},
		{
			name:    "original spelling preserved",
			rng:     "[3.0,4.0)",
			catalog: []string{"3.21"},
			want:    "3.21",
		},
		{
			name:    "qualifier numbers compare numerically",
			rng:     "[3.0.0-alpha,3.0.0]",
			catalog: []string{"3.0.0-beta-2", "3.0.0-beta-10"},
			want:    "3.0.0-beta-10",
		},
		{
			name:    "four component versions are kept",
			rng:     "[1.0,2.0)",
			catalog: []string{"1.2.3", "1.2.3.4"},
			want:    "1.2.3.4",
		},
		{
			name:    "release outranks its snapshot and release candidates",
			rng:     "[1.0,)",
			catalog: []string{"2.0.0-SNAPSHOT", "2.0.0-rc-1", "2.0.0"},
			want:    "2.0.0",
		},
		{
			name:    "service pack outranks release",
			rng:     "[1.0,)",
			catalog: []string{"2.0.0", "2.0.0-sp1"},
			want:    "2.0.0-sp1",
		},
		{
			name:    "nothing in range",
			rng:     "[5.0,6.0)",
			catalog: []string{"3.4.0", "4.0.0"},
			wantErr: true,
		},
		{
			name:    "empty catalog",
			rng:     "[1.0,)",
			catalog: nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseRange(tt.rng)
			require.NoError(t, err)

			got, err := Select(r, tt.catalog)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrNoVersionInRange)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelect_Deterministic(t *testing.T) {
	r, err := ParseRange("[3.0,5.0)")
	require.NoError(t, err)

	catalog := []string{"3.1.0", "4.2.0", "4.10.1", "4.9.9", "5.0.0"}
	first, err := Select(r, catalog)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := Select(r, catalog)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	assert.Equal(t, "4.10.1", first)
}

func TestVersion_Compare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"3.25.1", "3.25.1", 0},
		{"3.9", "3.10", -1},
		{"1.0", "1.0.0", 0},
		{"1.0.0.0", "1", 0},
		{"1.2.3.4", "1.2.3", 1},
		{"01.2", "1.2", 0},
		{"3.0.0-beta-2", "3.0.0-beta-10", -1},
		{"1.0-alpha1", "1.0-beta1", -1},
		{"1.0-a1", "1.0-alpha-1", 0},
		{"1.0-b2", "1.0-beta-2", 0},
		{"1.0-m1", "1.0-milestone-1", 0},
		{"1.0-rc1", "1.0-rc-1", 0},
		{"1.0-cr1", "1.0-rc1", 0},
		{"1.0-milestone-1", "1.0-rc-1", -1},
		{"1.0-rc-1", "1.0-SNAPSHOT", -1},
		{"1.0-SNAPSHOT", "1.0", -1},
		{"1.0-final", "1.0", 0},
		{"1.0-ga", "1.0", 0},
		{"1.0.RELEASE", "1.0", 0},
		{"1.0", "1.0-sp1", -1},
		{"1.0-sp1", "1.0-foo", -1},
		{"1.0-foo", "1.0.1", -1},
		{"1.0-1", "1.0", 1},
		{"4.0.0-rc1", "4.0.0", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+" vs "+tt.b, func(t *testing.T) {
			a := MustParseVersion(tt.a)
			b := MustParseVersion(tt.b)

			assert.Equal(t, tt.want, a.Compare(b))
			assert.Equal(t, -tt.want, b.Compare(a))
		})
	}
}

func TestParseVersion_Invalid(t *testing.T) {
	for _, input := range []string{"", "  ", "abc", "v1.0", "1.0,2.0", "[1.0]", "1.0 beta"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseVersion(input)
			assert.Error(t, err)
		})
	}
}

func TestVersion_Original(t *testing.T) {
	v := MustParseVersion(" 3.0.0-Beta-2 ")

	assert.Equal(t, "3.0.0-Beta-2", v.Original())
	assert.Equal(t, "3.0.0-Beta-2", v.String())
}
