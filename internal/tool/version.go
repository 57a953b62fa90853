package tool

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// IsExplicitVersion reports whether spec names exactly one version
// (X.Y.Z with optional pre-release, leading "v" allowed).
func IsExplicitVersion(spec string) bool {
	return CleanVersion(spec) != ""
}

// CleanVersion strips a leading "v" and returns the canonical form of an
// explicit version, or "" when spec is not one.
func CleanVersion(spec string) string {
	v, err := semver.StrictNewVersion(strings.TrimPrefix(strings.TrimSpace(spec), "v"))
	if err != nil {
		return ""
	}

	return v.String()
}

// EvaluateVersions returns the highest of versions satisfying spec, or ""
// when none does. "latest" and "*" select the highest stable version.
// Entries that are not valid versions are ignored.
func EvaluateVersions(versions []string, spec string) string {
	spec = strings.TrimSpace(spec)
	if spec == "" || strings.EqualFold(spec, "latest") {
		spec = "*"
	}

	constraint, err := semver.NewConstraint(spec)
	if err != nil {
		return ""
	}

	var best *semver.Version

	for _, raw := range versions {
		v, err := semver.NewVersion(strings.TrimSpace(raw))
		if err != nil {
			continue
		}

		if !constraint.Check(v) {
			continue
		}

		if best == nil || v.GreaterThan(best) {
			best = v
		}
	}

	if best == nil {
		return ""
	}

	return best.String()
}

// versionLess orders valid versions semantically; invalid ones sort first
// and compare as strings.
func versionLess(a, b string) bool {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)

	switch {
	case errA == nil && errB == nil:
		return va.LessThan(vb)
	case errA == nil:
		return false
	case errB == nil:
		return true
	default:
		return a < b
	}
}
