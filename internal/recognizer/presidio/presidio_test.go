package presidio

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

	"github.com/redactyl/promptscan/internal/recognizer"
)

func TestRecognize_ConvertsOffsets(t *testing.T) {
	var got analyzeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analyze", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode([]analyzeResult{
			{EntityType: "PERSON", Start: 5, End: 10, Score: 0.85},
			{EntityType: "URL", Start: 3, End: 999, Score: 0.9},
		})
	}))
	defer srv.Close()

	c := New(Config{URL: srv.URL + "/"}, nil)
	text := "héé, Alice wrote"
	ents, err := c.Recognize(context.Background(), text, []string{"PERSON"})
	require.NoError(t, err)

	assert.Equal(t, text, got.Text)
	assert.Equal(t, "en", got.Language)
	assert.Equal(t, []string{"PERSON"}, got.Entities)

	require.Len(t, ents, 1)
	assert.Equal(t, "Alice", ents[0].Text)
	assert.Equal(t, "Alice", text[ents[0].Start:ents[0].End])
}

func TestRecognize_BreakerOpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(Config{URL: srv.URL, ConsecutiveFailures: 2, OpenTimeout: time.Minute}, nil)
	for i := 0; i < 2; i++ {
		_, err := c.Recognize(context.Background(), "x", nil)
		require.Error(t, err)
	}
	_, err := c.Recognize(context.Background(), "x", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit")
	assert.Equal(t, int32(2), calls.Load())
}

func TestInit_PollsHealth(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(Config{URL: srv.URL, HealthInterval: time.Millisecond}, nil)
	require.NoError(t, c.Init(context.Background()))
	assert.Equal(t, int32(3), hits.Load())
}

func TestInit_GivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(Config{URL: srv.URL, HealthInterval: time.Millisecond, HealthAttempts: 2}, nil)
	err := c.Init(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
}

func TestClient_WithHandle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/analyze":
			_ = json.NewEncoder(w).Encode([]analyzeResult{
				{EntityType: "PERSON", Start: 0, End: 2, Score: 0.99},
				{EntityType: "US_SSN", Start: 6, End: 17, Score: 0.85},
			})
		}
	}))
	defer srv.Close()

	h := recognizer.NewHandle(New(Config{URL: srv.URL}, nil), recognizer.Options{})
	h.Start(context.Background())
	require.NoError(t, h.WaitReady(context.Background()))

	ents, err := h.Detect(context.Background(), "hi my 123-45-6789")
	require.NoError(t, err)
	require.Len(t, ents, 1)
	assert.Equal(t, "us_ssn", ents[0].Type)
}
