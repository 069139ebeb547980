package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Norgate-AV/protogen/internal/codes"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		goos    string
		goarch  string
		want    string
		wantErr bool
	}{
		{"linux", "amd64", "linux-x86_64", false},
		{"linux", "arm64", "linux-aarch_64", false},
		{"linux", "386", "linux-x86_32", false},
		{"linux", "ppc64le", "linux-ppcle_64", false},
		{"linux", "s390x", "linux-s390_64", false},
		{"darwin", "amd64", "osx-x86_64", false},
		{"darwin", "arm64", "osx-aarch_64", false},
		{"windows", "amd64", "windows-x86_64", false},
		{"windows", "386", "windows-x86_32", false},
		{"plan9", "amd64", "", true},
		{"linux", "mips", "", true},
		{"freebsd", "amd64", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.goarch, func(t *testing.T) {
			p, err := Classify(tt.goos, tt.goarch)

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, codes.Is(err, codes.KindUnsupportedPlatform))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, p.String())
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	a, errA := Host()
	b, errB := Host()

	assert.Equal(t, errA, errB)
	assert.Equal(t, a, b)
}

func TestFixed(t *testing.T) {
	p, err := Fixed(Platform{OS: "windows", Arch: "x86_64"})()
	require.NoError(t, err)
	assert.True(t, p.IsWindows())
	assert.Equal(t, "windows-x86_64", p.String())
}
