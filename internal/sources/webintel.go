// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pdiddy/repurpose-engine/internal/httputil"
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// WebSource queries the configured literature API for published evidence
// on the molecule/disease pairing. It is the only source that performs
// network I/O; rate-limited responses are retried with backoff (R3.1-R3.4).
type WebSource struct {
	// Client overrides the HTTP client in tests. Nil uses a client with
	// the configured timeout.
	Client *http.Client
}

func (s *WebSource) ID() types.SourceID { return types.SourceWeb }

// literatureResponse is the JSON body returned by the literature API.
type literatureResponse struct {
	Papers     int     `json:"papers"`
	Sentiment  string  `json:"sentiment"`
	Summary    string  `json:"summary"`
	Confidence float64 `json:"confidence"`
}

func (s *WebSource) Gather(ctx context.Context, req types.Request, cfg types.SourcesConfig) ([]types.RawFinding, error) {
	if cfg.LiteratureBaseURL == "" {
		return nil, fmt.Errorf("literature API not configured")
	}

	endpoint, err := url.Parse(cfg.LiteratureBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid literature base URL: %w", err)
	}
	endpoint = endpoint.JoinPath("v1", "literature")
	q := endpoint.Query()
	q.Set("molecule", req.Molecule)
	q.Set("disease", req.Disease)
	endpoint.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building literature request: %w", err)
	}
	if cfg.UserAgent != "" {
		httpReq.Header.Set("User-Agent", cfg.UserAgent)
	}
	if cfg.LiteratureAPIKey != "" {
		httpReq.Header.Set("X-API-Key", cfg.LiteratureAPIKey)
	}

	client := s.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	resp, err := httputil.DoWithRetry(ctx, client, httpReq, cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("querying literature API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("literature API returned %d: %s", resp.StatusCode, body)
	}

	var lit literatureResponse
	if err := json.NewDecoder(resp.Body).Decode(&lit); err != nil {
		return nil, fmt.Errorf("decoding literature response: %w", err)
	}

	confidence := lit.Confidence
	if confidence == 0 {
		confidence = 0.6
	}

	findings := []types.RawFinding{
		{
			Source:     string(types.SourceWeb),
			Dimension:  "literature_support",
			Value:      float64(lit.Papers),
			Confidence: confidence,
		},
	}
	if lit.Sentiment != "" {
		findings = append(findings, types.RawFinding{
			Source:     string(types.SourceWeb),
			Dimension:  "sentiment",
			Value:      lit.Sentiment,
			Confidence: confidence,
		})
	}
	if lit.Summary != "" {
		findings = append(findings, types.RawFinding{
			Source:     string(types.SourceWeb),
			Dimension:  "web_summary",
			Value:      lit.Summary,
			Kind:       types.ValueText,
			Confidence: confidence,
		})
	}

	return findings, nil
}
