package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/repurpose-engine/internal/httputil"
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

func init() {
	// Use a tiny base delay so retry tests finish quickly.
	httputil.RetryBaseDelay = 1
}

func literatureHandler(t *testing.T, body string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/literature", r.URL.Path)
		assert.Equal(t, "Metformin", r.URL.Query().Get("molecule"))
		assert.Equal(t, "Alzheimer's Disease", r.URL.Query().Get("disease"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func TestWebSource(t *testing.T) {
	ts := httptest.NewServer(literatureHandler(t,
		`{"papers": 12, "sentiment": "positive", "summary": "Consistent epidemiological signal.", "confidence": 0.8}`))
	defer ts.Close()

	src := &WebSource{Client: ts.Client()}
	cfg := types.SourcesConfig{
		LiteratureBaseURL: ts.URL,
		HTTPConfig:        types.HTTPConfig{UserAgent: "repurpose-engine/test"},
	}

	findings, err := src.Gather(context.Background(), testReq, cfg)
	require.NoError(t, err)
	require.Len(t, findings, 3)

	byDim := dimensions(findings)
	assert.Equal(t, 12.0, byDim["literature_support"].Value)
	assert.Equal(t, 0.8, byDim["literature_support"].Confidence)
	assert.Equal(t, "positive", byDim["sentiment"].Value)
	assert.Equal(t, types.ValueText, byDim["web_summary"].Kind)
}

func TestWebSource_SendsAPIKey(t *testing.T) {
	var gotKey string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		w.Write([]byte(`{"papers": 1, "confidence": 0.5}`))
	}))
	defer ts.Close()

	src := &WebSource{Client: ts.Client()}
	cfg := types.SourcesConfig{
		LiteratureBaseURL: ts.URL,
		LiteratureAPIKey:  "sk-test",
	}

	_, err := src.Gather(context.Background(), testReq, cfg)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", gotKey)
}

func TestWebSource_RetriesRateLimit(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"papers": 3, "confidence": 0.6}`))
	}))
	defer ts.Close()

	src := &WebSource{Client: ts.Client()}
	cfg := types.SourcesConfig{LiteratureBaseURL: ts.URL, MaxRetries: 3}

	findings, err := src.Gather(context.Background(), testReq, cfg)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	require.NotEmpty(t, findings)
	assert.Equal(t, 3.0, findings[0].Value)
}

func TestWebSource_ErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer ts.Close()

	src := &WebSource{Client: ts.Client()}
	cfg := types.SourcesConfig{LiteratureBaseURL: ts.URL}

	_, err := src.Gather(context.Background(), testReq, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestWebSource_Unconfigured(t *testing.T) {
	src := &WebSource{}
	_, err := src.Gather(context.Background(), testReq, types.SourcesConfig{})
	require.Error(t, err)
}
