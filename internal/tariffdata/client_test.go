package tariffdata

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teuglobal/htspilot/internal/completion"
)

// stubFallback returns a fixed completion response.
type stubFallback struct {
	text string
	err  error
}

func (s *stubFallback) Stream(_ context.Context, _ completion.Request, onChunk completion.ChunkFunc) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if onChunk != nil {
		onChunk(s.text)
	}
	return s.text, nil
}

func TestCurrentTariffDetailsOfficial(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/tariff/currentTariffDetails", r.URL.Path)
		assert.Equal(t, "2025", r.URL.Query().Get("year"))
		assert.Equal(t, "85171200", r.URL.Query().Get("hts8"), "code is cleaned to 8 digits")
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"desc":"Telephones for cellular networks","isExpired":false,"investigations":[],"sections":[]}`)
	}))
	defer server.Close()

	c := NewClient(server.URL, server.URL, "tok", &stubFallback{}, nil, 0, slog.Default())
	details, err := c.CurrentTariffDetails(context.Background(), "2025", "8517.12.0050")

	require.NoError(t, err)
	assert.Equal(t, "Telephones for cellular networks", details.Desc)
	assert.Equal(t, SourceOfficial, details.SourceMode)
	assert.False(t, details.Timestamp.IsZero())
}

func TestCurrentTariffDetailsFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway error", http.StatusBadGateway)
	}))
	defer server.Close()

	fallback := &stubFallback{text: "```json\n{\"desc\":\"Seats of rattan\",\"isExpired\":true}\n```"}
	c := NewClient(server.URL, server.URL, "tok", fallback, nil, 0, slog.Default())

	details, err := c.CurrentTariffDetails(context.Background(), "2025", "94016110")

	require.NoError(t, err)
	assert.Equal(t, "Seats of rattan", details.Desc)
	assert.True(t, details.IsExpired)
	assert.Equal(t, SourceFallback, details.SourceMode, "fallback responses are labeled")
}

func TestCurrentTariffDetailsFallbackFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	fallback := &stubFallback{err: &completion.TransportError{Message: "offline"}}
	c := NewClient(server.URL, server.URL, "tok", fallback, nil, 0, slog.Default())

	_, err := c.CurrentTariffDetails(context.Background(), "2025", "94016110")
	assert.Error(t, err)
}

func TestSearchCodesOfficial(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "cotton t-shirt", r.URL.Query().Get("query"))
		fmt.Fprint(w, `{"results":[{"htsno":"6109.10.0040","description":"T-shirts, of cotton"}]}`)
	}))
	defer server.Close()

	c := NewClient(server.URL, server.URL, "tok", &stubFallback{}, nil, 0, slog.Default())
	results, err := c.SearchCodes(context.Background(), "cotton t-shirt")

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "6109.10.0040", results[0].HtsNo)
}

func TestSearchCodesFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	fallback := &stubFallback{text: `{"results":[{"htsno":"9401.61.4011","description":"Other seats"}]}`}
	c := NewClient(server.URL, server.URL, "tok", fallback, nil, 0, slog.Default())

	results, err := c.SearchCodes(context.Background(), "upholstered seat")

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "9401.61.4011", results[0].HtsNo)
}

func TestCleanHts8(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"8517.12.0050", "85171200"},
		{"85171200", "85171200"},
		{"9401", "9401"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanHts8(tt.in))
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare json", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripFences(tt.in))
		})
	}
}
