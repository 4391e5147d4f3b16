package version

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conn-castle/m/internal/failure"
)

func TestParse(t *testing.T) {
	tests := []struct {
		raw       string
		want      string
		precision Precision
		major     int
		minor     int
		patch     int
	}{
		{raw: "7.0.0", want: "7.0.0", precision: PrecisionPatch, major: 7},
		{raw: "v2.3.7", want: "2.3.7", precision: PrecisionPatch, major: 2, minor: 3, patch: 7},
		{raw: " 100.9.4 ", want: "100.9.4", precision: PrecisionPatch, major: 100, minor: 9, patch: 4},
		{raw: "7.0", want: "7.0", precision: PrecisionMinor, major: 7},
		{raw: "8", want: "8", precision: PrecisionMajor, major: 8},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			v, err := Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Raw)
			assert.Equal(t, tt.precision, v.Precision)
			assert.Equal(t, tt.major, v.Major)
			assert.Equal(t, tt.minor, v.Minor)
			assert.Equal(t, tt.patch, v.Patch)
		})
	}
}

func TestParse_RejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "v", "invalid.version.format", "7.0.0-rc1", "7.0.0+build", "7..0", "1.2.3.4", "07.0.0", "7.x", "-1.0.0"} {
		t.Run(raw, func(t *testing.T) {
			_, err := Parse(raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed), "got %v", err)
		})
	}
}

func TestPartialComponentsAreWildcards(t *testing.T) {
	series := MustParse("7.0")
	assert.False(t, series.IsFull())
	assert.True(t, MustParse("7.0.14").Matches(series))
	assert.True(t, MustParse("7.0.0").Matches(series))
	assert.False(t, MustParse("7.1.0").Matches(series))
	assert.False(t, MustParse("6.0.0").Matches(series))

	major := MustParse("7")
	assert.True(t, MustParse("7.3.2").Matches(major))
	assert.False(t, MustParse("8.0.0").Matches(major))

	exact := MustParse("7.0.1")
	assert.True(t, MustParse("7.0.1").Matches(exact))
	assert.False(t, MustParse("7.0.2").Matches(exact))
	assert.False(t, series.Matches(series), "partial versions never match")
}

func TestCompareIsNumeric(t *testing.T) {
	assert.Equal(t, -1, Compare(MustParse("7.0.9"), MustParse("7.0.10")))
	assert.Equal(t, 1, Compare(MustParse("10.0.0"), MustParse("9.9.9")))
	assert.Equal(t, 0, Compare(MustParse("v4.4.29"), MustParse("4.4.29")))
	assert.True(t, MustParse("v4.4.29").Equal(MustParse("4.4.29")))
	assert.False(t, MustParse("4.4").Equal(MustParse("4.4.0")))
}

func mustParseAll(raws ...string) []Version {
	out := make([]Version, 0, len(raws))
	for _, raw := range raws {
		out = append(out, MustParse(raw))
	}
	return out
}

func TestSortAndMax(t *testing.T) {
	vs := mustParseAll("7.0.2", "4.4.29", "7.0.10", "6.0.1")
	Sort(vs)
	assert.Equal(t, "4.4.29", vs[0].Raw)
	assert.Equal(t, "7.0.10", vs[len(vs)-1].Raw)

	max, ok := Max(vs)
	require.True(t, ok)
	assert.Equal(t, "7.0.10", max.Raw)

	_, ok = Max(nil)
	assert.False(t, ok)
}

func TestWithinSeries(t *testing.T) {
	vs := mustParseAll("7.0.2", "7.1.0", "7.0.10", "6.0.1")
	within := WithinSeries(vs, MustParse("7.0"))
	assert.Len(t, within, 2)
	assert.Empty(t, WithinSeries(vs, MustParse("5")))
}

func TestParseRequest(t *testing.T) {
	req, err := ParseRequest("7.0.0")
	require.NoError(t, err)
	assert.Equal(t, KindExact, req.Kind)
	assert.Equal(t, "7.0.0", req.String())

	req, err = ParseRequest("7.0")
	require.NoError(t, err)
	assert.Equal(t, KindSeries, req.Kind)

	req, err = ParseRequest("latest")
	require.NoError(t, err)
	assert.Equal(t, KindLatest, req.Kind)
	assert.False(t, req.Scoped)
	assert.Equal(t, "latest", req.String())

	req, err = ParseRequest("STABLE", "8.0")
	require.NoError(t, err)
	assert.Equal(t, KindStable, req.Kind)
	assert.True(t, req.Scoped)
	assert.Equal(t, "8.0", req.Target.Raw)
	assert.Equal(t, "stable 8.0", req.String())
}

func TestParseRequest_Errors(t *testing.T) {
	_, err := ParseRequest()
	assert.ErrorIs(t, err, failure.ErrMissingVersionArgument)

	_, err = ParseRequest("  ")
	assert.ErrorIs(t, err, failure.ErrMissingVersionArgument)

	_, err = ParseRequest("invalid.version.format")
	assert.ErrorIs(t, err, failure.ErrVersionNotFound)
	assert.Contains(t, err.Error(), "invalid.version.format")

	_, err = ParseRequest("latest", "x.y")
	assert.ErrorIs(t, err, failure.ErrVersionNotFound)

	_, err = ParseRequest("7.0.0", "7.0.1")
	assert.ErrorIs(t, err, failure.ErrUnexpectedArgument)
	assert.EqualError(t, err, `unexpected argument "7.0.1" after 7.0.0`)

	_, err = ParseRequest("7.0", "extra")
	assert.ErrorIs(t, err, failure.ErrUnexpectedArgument)

	_, err = ParseRequest("stable", "7.0", "extra")
	assert.ErrorIs(t, err, failure.ErrUnexpectedArgument)
}

func TestChannelString(t *testing.T) {
	assert.Equal(t, "stable", ChannelStable.String())
	assert.Equal(t, "development", ChannelDevelopment.String())
}
