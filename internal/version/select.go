package version

import "slices"

// Sort orders vs ascending in place.
func Sort(vs []Version) {
	slices.SortFunc(vs, Compare)
}

// Filter returns the members of vs for which keep returns true.
func Filter(vs []Version, keep func(Version) bool) []Version {
	out := make([]Version, 0, len(vs))
	for _, v := range vs {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// WithinSeries returns the members of vs inside prefix.
func WithinSeries(vs []Version, prefix Version) []Version {
	return Filter(vs, func(v Version) bool { return v.Matches(prefix) })
}

// Max returns the greatest member of vs.
func Max(vs []Version) (Version, bool) {
	if len(vs) == 0 {
		return Version{}, false
	}
	return slices.MaxFunc(vs, Compare), true
}
