// Package tariffdata looks up hierarchical tariff records from the USITC
// public APIs. When the official gateway is unreachable the lookup degrades
// to the completion backend prompted for strict JSON, so the assistant keeps
// answering during gateway outages.
package tariffdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/teuglobal/htspilot/internal/completion"
)

// Source modes recorded on returned details.
const (
	SourceOfficial = "Official Gateway"
	SourceFallback = "Neural Proxy"
)

// Investigation is an active AD/CVD case touching a heading.
type Investigation struct {
	InvestigationID     int    `json:"investigationId"`
	InvestigationNumber string `json:"investigationNumber"`
	Phase               string `json:"phase"`
	InvestigationTitle  string `json:"investigationTitle"`
	CaseID              string `json:"caseId"`
}

// Section is one node of the dataweb tariff detail tree.
type Section struct {
	ID        string    `json:"id"`
	Value     string    `json:"value"`
	SortOrder int       `json:"sortOrder"`
	Values    []string  `json:"values"`
	Children  []Section `json:"children"`
}

// Details is the tariff profile for an 8-digit heading.
type Details struct {
	Desc           string          `json:"desc"`
	IsExpired      bool            `json:"isExpired"`
	Investigations []Investigation `json:"investigations"`
	Sections       []Section       `json:"sections"`
	SourceMode     string          `json:"sourceMode"`
	Timestamp      time.Time       `json:"timestamp"`
}

// SearchResult is one hit from the public HTS search API.
type SearchResult struct {
	HtsNo       string `json:"htsno"`
	Description string `json:"description"`
}

type Client struct {
	datawebURL string
	htsURL     string
	token      string
	client     *http.Client
	fallback   completion.Streamer
	cache      *redis.Client // nil disables caching
	cacheTTL   time.Duration
	logger     *slog.Logger
}

func NewClient(datawebURL, htsURL, token string, fallback completion.Streamer, cache *redis.Client, cacheTTL time.Duration, logger *slog.Logger) *Client {
	return &Client{
		datawebURL: strings.TrimSuffix(datawebURL, "/"),
		htsURL:     strings.TrimSuffix(htsURL, "/"),
		token:      token,
		client:     &http.Client{Timeout: 30 * time.Second},
		fallback:   fallback,
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
}

// CurrentTariffDetails fetches the dataweb profile for hts8 in the given
// year. Results are cached; a redis outage degrades to a direct fetch.
func (c *Client) CurrentTariffDetails(ctx context.Context, year, hts8 string) (*Details, error) {
	clean := cleanHts8(hts8)
	cacheKey := fmt.Sprintf("tariff:%s:%s", year, clean)

	if cached := c.cacheGet(ctx, cacheKey); cached != nil {
		var details Details
		if err := json.Unmarshal(cached, &details); err == nil {
			return &details, nil
		}
		c.logger.Warn("dropping unreadable cache entry", "key", cacheKey)
	}

	details, err := c.fetchOfficial(ctx, year, clean)
	if err != nil {
		c.logger.Warn("dataweb gateway unavailable, using completion fallback", "hts8", clean, "error", err)
		details, err = c.fetchFallbackDetails(ctx, year, clean)
		if err != nil {
			return nil, err
		}
	}

	c.cacheSet(ctx, cacheKey, details)
	return details, nil
}

func (c *Client) fetchOfficial(ctx context.Context, year, hts8 string) (*Details, error) {
	endpoint := fmt.Sprintf("%s/api/v2/tariff/currentTariffDetails?year=%s&hts8=%s",
		c.datawebURL, url.QueryEscape(year), url.QueryEscape(hts8))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call dataweb: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close dataweb response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dataweb returned status %d", resp.StatusCode)
	}

	var details Details
	if err := json.NewDecoder(resp.Body).Decode(&details); err != nil {
		return nil, fmt.Errorf("failed to decode dataweb response: %w", err)
	}
	details.SourceMode = SourceOfficial
	details.Timestamp = time.Now().UTC()
	return &details, nil
}

func (c *Client) fetchFallbackDetails(ctx context.Context, year, hts8 string) (*Details, error) {
	prompt := fmt.Sprintf("Retrieve USITC Dataweb details for HTS8: %s (%s). Return strictly as JSON including: desc, isExpired (boolean), investigations (array), sections (recursive DTO). No markdown, JSON only.", hts8, year)

	text, err := c.fallback.Stream(ctx, completion.Request{Prompt: prompt}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tariff details via fallback: %w", err)
	}

	var details Details
	if err := json.Unmarshal([]byte(stripFences(text)), &details); err != nil {
		return nil, fmt.Errorf("failed to parse fallback tariff details: %w", err)
	}
	details.SourceMode = SourceFallback
	details.Timestamp = time.Now().UTC()
	return &details, nil
}

// SearchCodes queries the public HTS search API, degrading to the completion
// fallback on gateway failure.
func (c *Client) SearchCodes(ctx context.Context, query string) ([]SearchResult, error) {
	endpoint := fmt.Sprintf("%s/search?query=%s", c.htsURL, url.QueryEscape(query))

	results, err := c.searchOfficial(ctx, endpoint)
	if err == nil {
		return results, nil
	}
	c.logger.Warn("hts search unavailable, using completion fallback", "query", query, "error", err)

	prompt := fmt.Sprintf("Search 2025 HTS codes for %q. Return a JSON object with a 'results' array of {htsno, description}. No markdown, JSON only.", query)
	text, err := c.fallback.Stream(ctx, completion.Request{Prompt: prompt}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to search codes via fallback: %w", err)
	}

	var body struct {
		Results []SearchResult `json:"results"`
	}
	if err := json.Unmarshal([]byte(stripFences(text)), &body); err != nil {
		return nil, fmt.Errorf("failed to parse fallback search results: %w", err)
	}
	return body.Results, nil
}

func (c *Client) searchOfficial(ctx context.Context, endpoint string) ([]SearchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call hts search: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close hts search response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hts search returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read hts search response: %w", err)
	}

	var body struct {
		Results []SearchResult `json:"results"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("failed to decode hts search response: %w", err)
	}
	return body.Results, nil
}

func (c *Client) cacheGet(ctx context.Context, key string) []byte {
	if c.cache == nil {
		return nil
	}
	raw, err := c.cache.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("tariff cache read failed", "key", key, "error", err)
		}
		return nil
	}
	return raw
}

func (c *Client) cacheSet(ctx context.Context, key string, details *Details) {
	if c.cache == nil {
		return
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, raw, c.cacheTTL).Err(); err != nil {
		c.logger.Warn("tariff cache write failed", "key", key, "error", err)
	}
}

// cleanHts8 strips dots and truncates to the 8-digit heading dataweb keys on.
func cleanHts8(code string) string {
	clean := strings.ReplaceAll(code, ".", "")
	if len(clean) > 8 {
		clean = clean[:8]
	}
	return clean
}

// stripFences removes a surrounding markdown code fence, which fallback
// responses occasionally add despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
