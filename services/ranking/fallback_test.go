package ranking

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/cascade-control-plane/models"
	"github.com/upb/cascade-control-plane/services/catalog"
)

func taggedEntry(name string, tags ...string) catalog.Entry {
	return catalog.Entry{
		Name:           name,
		Endpoint:       "http://" + name + ".internal:8080",
		Transport:      models.TransportHTTP,
		CapabilityTags: tags,
	}
}

func TestFallbackRank_OrdersByOverlap(t *testing.T) {
	entries := []catalog.Entry{
		taggedEntry("weather-svc", "weather", "forecast"),
		taggedEntry("geo-svc", "weather", "forecast", "city", "geocoding"),
		taggedEntry("news-svc", "news", "headlines"),
	}

	candidates := FallbackRank("weather forecast for my city", entries)

	require.Len(t, candidates, 2)
	assert.Equal(t, "geo-svc", candidates[0].ServiceName)
	assert.Equal(t, "weather-svc", candidates[1].ServiceName)
	assert.Greater(t, candidates[0].Confidence, candidates[1].Confidence)
}

func TestFallbackRank_DropsZeroOverlap(t *testing.T) {
	entries := []catalog.Entry{
		taggedEntry("news-svc", "news"),
		taggedEntry("stock-svc", "stocks", "finance"),
	}

	candidates := FallbackRank("weather forecast", entries)
	assert.Empty(t, candidates)
}

func TestFallbackRank_TieBreaksOnRegistrationOrder(t *testing.T) {
	entries := []catalog.Entry{
		taggedEntry("second-registered", "weather"),
		taggedEntry("first-match", "weather"),
	}

	candidates := FallbackRank("weather", entries)

	require.Len(t, candidates, 2)
	assert.Equal(t, "second-registered", candidates[0].ServiceName)
	assert.Equal(t, "first-match", candidates[1].ServiceName)
}

func TestFallbackRank_Deterministic(t *testing.T) {
	entries := []catalog.Entry{
		taggedEntry("a-svc", "weather", "city"),
		taggedEntry("b-svc", "weather"),
		taggedEntry("c-svc", "city", "forecast"),
	}

	first := FallbackRank("weather forecast city", entries)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, FallbackRank("weather forecast city", entries))
	}
}

func TestFallbackRank_CaseAndPunctuationInsensitive(t *testing.T) {
	entries := []catalog.Entry{taggedEntry("weather-svc", "Weather", "Forecast")}

	candidates := FallbackRank("WEATHER, forecast?!", entries)

	require.Len(t, candidates, 1)
	assert.Equal(t, "weather-svc", candidates[0].ServiceName)
	// Two distinct query tokens, both overlap.
	assert.Equal(t, 1.0, candidates[0].Confidence)
}

func TestFallbackRank_DuplicateTokensCountOnce(t *testing.T) {
	entries := []catalog.Entry{taggedEntry("weather-svc", "weather")}

	candidates := FallbackRank("weather weather weather", entries)

	require.Len(t, candidates, 1)
	assert.Equal(t, 1.0, candidates[0].Confidence)
}

func TestFallbackRank_EmptyQuery(t *testing.T) {
	entries := []catalog.Entry{taggedEntry("weather-svc", "weather")}

	assert.Nil(t, FallbackRank("", entries))
	assert.Nil(t, FallbackRank("?!...", entries))
}

func TestFallbackRank_CapsAtTen(t *testing.T) {
	entries := make([]catalog.Entry, 0, 15)
	for i := 0; i < 15; i++ {
		entries = append(entries, taggedEntry(fmt.Sprintf("svc-%02d", i), "search"))
	}

	candidates := FallbackRank("search", entries)

	require.Len(t, candidates, maxCandidates)
	// Equal confidence everywhere, so registration order decides the cut.
	assert.Equal(t, "svc-00", candidates[0].ServiceName)
	assert.Equal(t, "svc-09", candidates[9].ServiceName)
}
