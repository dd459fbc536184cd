package observability

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseHeaders(t *testing.T) {
	require.Nil(t, parseHeaders(""))
	require.Nil(t, parseHeaders("junk, =x, y="))
	require.Equal(t, map[string]string{"api-key": "abc", "tenant": "lms"}, parseHeaders(" api-key = abc ,tenant=lms,broken"))
}

func TestSampleRatioClamps(t *testing.T) {
	t.Setenv("OTEL_SAMPLER_RATIO", "")
	require.Equal(t, 0.1, sampleRatio())
	t.Setenv("OTEL_SAMPLER_RATIO", "4")
	require.Equal(t, float64(1), sampleRatio())
	t.Setenv("OTEL_SAMPLER_RATIO", "-1")
	require.Equal(t, float64(0), sampleRatio())
	t.Setenv("OTEL_SAMPLER_RATIO", "0.5")
	require.Equal(t, 0.5, sampleRatio())
}
