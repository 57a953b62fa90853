//nolint:testpackage // internal functions require same package
package tool

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsExplicitVersion(t *testing.T) {
	tests := []struct {
		spec string
		want bool
	}{
		{spec: "3.14.0", want: true},
		{spec: "v3.14.0", want: true},
		{spec: " v2.9.1 ", want: true},
		{spec: "3.15.0-rc.1", want: true},
		{spec: "3.14", want: false},
		{spec: "3.x", want: false},
		{spec: "^3.14.0", want: false},
		{spec: "latest", want: false},
		{spec: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			assert.Equal(t, tt.want, IsExplicitVersion(tt.spec))
		})
	}
}

func TestCleanVersion(t *testing.T) {
	assert.Equal(t, "3.14.0", CleanVersion("v3.14.0"))
	assert.Equal(t, "3.14.0", CleanVersion("3.14.0"))
	assert.Empty(t, CleanVersion("3.14"))
}

func TestEvaluateVersions(t *testing.T) {
	versions := []string{"v2.9.1", "v3.13.3", "v3.14.0", "v3.14.2", "v3.15.0-rc.1", "nightly", "v2.17.0"}

	tests := []struct {
		name string
		spec string
		want string
	}{
		{name: "latest picks highest stable", spec: "latest", want: "3.14.2"},
		{name: "star picks highest stable", spec: "*", want: "3.14.2"},
		{name: "empty spec means latest", spec: "", want: "3.14.2"},
		{name: "wildcard minor", spec: "3.13.x", want: "3.13.3"},
		{name: "major range", spec: "2.x", want: "2.17.0"},
		{name: "caret range", spec: "^3.14.0", want: "3.14.2"},
		{name: "tilde range", spec: "~3.13", want: "3.13.3"},
		{name: "explicit version", spec: "2.9.1", want: "2.9.1"},
		{name: "pre-release opt in", spec: ">=3.15.0-0", want: "3.15.0-rc.1"},
		{name: "no match", spec: "4.x", want: ""},
		{name: "invalid constraint", spec: "not a version", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EvaluateVersions(versions, tt.spec))
		})
	}
}

func TestVersionLess(t *testing.T) {
	versions := []string{"3.2.10", "dev", "3.2.2", "3.10.0", "alpha"}

	sort.Slice(versions, func(i, j int) bool {
		return versionLess(versions[i], versions[j])
	})

	assert.Equal(t, []string{"alpha", "dev", "3.2.2", "3.2.10", "3.10.0"}, versions)
}
