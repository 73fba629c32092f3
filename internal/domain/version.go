package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// SemanticVersion is a three-component version. Components compare as
// independent non-negative integers, so "1.10.0" > "1.9.0".
type SemanticVersion struct {
	Major int
	Minor int
	Patch int
}

// ParseVersion decomposes a "major.minor.patch" string.
func ParseVersion(s string) (SemanticVersion, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return SemanticVersion{}, fmt.Errorf("invalid version %q: want major.minor.patch", s)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return SemanticVersion{}, fmt.Errorf("invalid version %q: component %q is not a non-negative integer", s, p)
		}
		nums[i] = n
	}
	return SemanticVersion{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

func (v SemanticVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// CompareVersions returns -1, 0 or 1 comparing component-wise numerically.
func CompareVersions(a, b SemanticVersion) int {
	if c := cmpInt(a.Major, b.Major); c != 0 {
		return c
	}
	if c := cmpInt(a.Minor, b.Minor); c != 0 {
		return c
	}
	return cmpInt(a.Patch, b.Patch)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// InitialVersion is the version of a field's first revision: drafts start at
// 0.1.0, documents published immediately start at 1.0.0.
func InitialVersion(isDraft bool) string {
	if isDraft {
		return "0.1.0"
	}
	return "1.0.0"
}

// NextVersion computes the version of a new revision from its predecessor and
// the classified update type. A nil previous revision yields the initial
// version. Publishing a draft must be forced to UpdateTypeMajor by the caller
// before computing (see MutationPipeline): a major bump is the only way a
// version can cross from major 0 to major >= 1.
func NextVersion(previous *Revision, updateType UpdateType, targetIsDraft bool) (string, error) {
	if previous == nil {
		return InitialVersion(targetIsDraft), nil
	}
	prev, err := ParseVersion(previous.Version)
	if err != nil {
		return "", fmt.Errorf("previous revision %s: %w", previous.ID, err)
	}
	switch updateType {
	case UpdateTypeMajor:
		return SemanticVersion{Major: prev.Major + 1}.String(), nil
	case UpdateTypeMinor:
		return SemanticVersion{Major: prev.Major, Minor: prev.Minor + 1}.String(), nil
	case UpdateTypePatch, UpdateTypeInitial:
		// "initial" on a non-first revision degrades to a patch bump.
		return SemanticVersion{Major: prev.Major, Minor: prev.Minor, Patch: prev.Patch + 1}.String(), nil
	default:
		return "", fmt.Errorf("invalid update type %q", updateType)
	}
}
