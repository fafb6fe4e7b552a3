package firmware

import (
	"cmp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// Releases is an ordered set of releases, oldest first, unique by version.
type Releases []Release

// NewReleases sorts the given releases by version and drops duplicates,
// keeping the first occurrence of each version. A set made only of
// semantic versions is ordered by semver precedence; any other set uses
// CompareVersions, so one order applies to the whole set.
func NewReleases(in ...Release) Releases {
	out := make(Releases, 0, len(in))
	seen := make(map[string]bool, len(in))
	allSemver := true
	for _, r := range in {
		if seen[r.Version] {
			continue
		}
		seen[r.Version] = true
		allSemver = allSemver && semver.IsValid(canonical(r.Version))
		out = append(out, r)
	}

	order := CompareVersions
	if allSemver {
		order = compareSemver
	}
	sort.SliceStable(out, func(i, j int) bool {
		return order(out[i].Version, out[j].Version) < 0
	})
	return out
}

// Latest returns the most recent release.
func (rs Releases) Latest() (Release, bool) {
	if len(rs) == 0 {
		return Release{}, false
	}
	return rs[len(rs)-1], true
}

// Changelog returns the releases as changelog entries, most recent first.
func (rs Releases) Changelog() []Entry {
	out := make([]Entry, 0, len(rs))
	for i := len(rs) - 1; i >= 0; i-- {
		out = append(out, Entry{Version: rs[i].Version, Description: rs[i].Description})
	}
	return out
}

// CompareVersions is a total order over firmware version strings.
//
// A version is a dotted core, an optional prerelease suffix introduced by
// a '-' followed by a letter, and optional build metadata after '+'.
// Cores compare segment by segment: numeric segments numerically and
// before any non-numeric segment, and a shorter core sorts first when it
// is a prefix of the other. With equal cores a prerelease sorts below the
// bare version. Remaining ties fall back to the raw strings.
func CompareVersions(a, b string) int {
	pa, pb := parseVersion(a), parseVersion(b)
	if c := compareSegments(pa.core, pb.core); c != 0 {
		return c
	}
	switch {
	case pa.pre == nil && pb.pre != nil:
		return 1
	case pa.pre != nil && pb.pre == nil:
		return -1
	}
	if c := compareSegments(pa.pre, pb.pre); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

func compareSemver(a, b string) int {
	if c := semver.Compare(canonical(a), canonical(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

func canonical(v string) string {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

type version struct {
	core []string
	pre  []string
}

func parseVersion(v string) version {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	v, _, _ = strings.Cut(v, "+")

	var pre string
	for i := 0; i < len(v)-1; i++ {
		if v[i] == '-' && isLetter(v[i+1]) {
			v, pre = v[:i], v[i+1:]
			break
		}
	}

	out := version{core: splitSegments(v)}
	if pre != "" {
		out.pre = splitSegments(pre)
	}
	return out
}

func splitSegments(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == '.' || r == '-' || r == '_' })
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func compareSegments(as, bs []string) int {
	for i := 0; i < len(as) && i < len(bs); i++ {
		if c := compareSegment(as[i], bs[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(as), len(bs))
}

func compareSegment(a, b string) int {
	na, errA := strconv.ParseUint(a, 10, 64)
	nb, errB := strconv.ParseUint(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		if c := cmp.Compare(na, nb); c != 0 {
			return c
		}
		// "01" and "1" are equal numerically.
		return strings.Compare(a, b)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}
