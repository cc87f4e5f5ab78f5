package analysis_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unveil/mediaquiz/internal/analysis"
	"github.com/unveil/mediaquiz/internal/domain"
	"github.com/unveil/mediaquiz/internal/errors"
)

func TestClient_Analyze(t *testing.T) {
	tests := map[string]struct {
		handler http.HandlerFunc
		text    string
		assert  func(t *testing.T, got *domain.Analysis, err error, calls int32)
	}{
		"should decode a successful analysis": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{
					"bias_confidence": 82.5,
					"breakdown": {"tone": "loaded"},
					"biased_words": ["disastrous"],
					"neutral_alternative": "The policy had mixed results."
				}`))
			},
			text: "The disastrous policy",
			assert: func(t *testing.T, got *domain.Analysis, err error, calls int32) {
				require.NoError(t, err)
				assert.Equal(t, 82.5, got.BiasConfidence)
				assert.Equal(t, map[string]string{"tone": "loaded"}, got.Breakdown)
				assert.Equal(t, []string{"disastrous"}, got.BiasedWords)
				require.NotNil(t, got.NeutralAlternative)
				assert.Equal(t, "The policy had mixed results.", *got.NeutralAlternative)
				assert.Equal(t, domain.BiasLevelHigh, got.Level())
			},
		},

		"should accept a null neutral alternative": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"bias_confidence": 10, "breakdown": {}, "biased_words": [], "neutral_alternative": null}`))
			},
			text: "Rain is expected tomorrow.",
			assert: func(t *testing.T, got *domain.Analysis, err error, calls int32) {
				require.NoError(t, err)
				assert.Nil(t, got.NeutralAlternative)
				assert.Equal(t, domain.BiasLevelLow, got.Level())
			},
		},

		"should reject blank text without calling upstream": {
			handler: func(w http.ResponseWriter, r *http.Request) {},
			text:    "   \n",
			assert: func(t *testing.T, got *domain.Analysis, err error, calls int32) {
				assert.True(t, errors.Is(err, errors.CodeInvalidArgument))
				assert.Nil(t, got)
				assert.Zero(t, calls)
			},
		},

		"should report a non-2xx response as analysis failed": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			text: "anything",
			assert: func(t *testing.T, got *domain.Analysis, err error, calls int32) {
				requireAnalysisFailed(t, err)
				assert.Equal(t, int32(1), calls, "failures are not retried")
			},
		},

		"should report a malformed body as analysis failed": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"bias_confidence": "high"`))
			},
			text: "anything",
			assert: func(t *testing.T, got *domain.Analysis, err error, calls int32) {
				requireAnalysisFailed(t, err)
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				tt.handler(w, r)
			}))
			t.Cleanup(srv.Close)

			c := analysis.NewClient(analysis.Config{BaseURL: srv.URL})
			got, err := c.Analyze(context.Background(), tt.text)
			tt.assert(t, got, err, calls.Load())
		})
	}
}

func TestClient_AnalyzeSendsText(t *testing.T) {
	var got struct {
		Text string `json:"text"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/analyze", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"bias_confidence": 60}`))
	}))
	t.Cleanup(srv.Close)

	c := analysis.NewClient(analysis.Config{BaseURL: srv.URL + "/"})
	a, err := c.Analyze(context.Background(), "Some headline")
	require.NoError(t, err)
	assert.Equal(t, "Some headline", got.Text)
	assert.Equal(t, domain.BiasLevelModerate, a.Level())
}

func TestClient_AnalyzeTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := analysis.NewClient(analysis.Config{
		BaseURL:    srv.URL,
		HTTPClient: &http.Client{Timeout: time.Second},
	})
	_, err := c.Analyze(context.Background(), "anything")
	requireAnalysisFailed(t, err)
}

func requireAnalysisFailed(t *testing.T, err error) {
	t.Helper()

	require.Error(t, err)
	e := errors.Convert(err)
	assert.Equal(t, errors.CodeInternal, e.Code)
	assert.Equal(t, "Analysis failed", e.Message)
	assert.NotNil(t, e.Unwrap(), "the cause should be kept")
}
