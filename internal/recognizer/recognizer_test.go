package recognizer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecognizer struct {
	initErr  error
	gate     chan struct{}
	entities []Entity
	seen     []string
}

func (f *fakeRecognizer) Name() string { return "fake" }

func (f *fakeRecognizer) Init(ctx context.Context) error {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.initErr
}

func (f *fakeRecognizer) Recognize(_ context.Context, _ string, entities []string) ([]Entity, error) {
	f.seen = entities
	return f.entities, nil
}

func ready(t *testing.T, f *fakeRecognizer, opts Options) *Handle {
	t.Helper()
	h := NewHandle(f, opts)
	h.Start(context.Background())
	require.NoError(t, h.WaitReady(context.Background()))
	return h
}

func TestHandle_StateTransitions(t *testing.T) {
	f := &fakeRecognizer{gate: make(chan struct{})}
	h := NewHandle(f, Options{})
	assert.Equal(t, Unavailable, h.State())

	_, err := h.Detect(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotReady)

	h.Start(context.Background())
	assert.Equal(t, Initializing, h.State())
	h.Start(context.Background())

	_, err = h.Detect(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotReady)

	close(f.gate)
	require.NoError(t, h.WaitReady(context.Background()))
	assert.Equal(t, Ready, h.State())
	assert.Equal(t, "ready", h.State().String())
}

func TestHandle_FailedInitReturnsToUnavailable(t *testing.T) {
	boom := errors.New("sidecar down")
	f := &fakeRecognizer{initErr: boom}
	h := NewHandle(f, Options{})
	h.Start(context.Background())

	err := h.WaitReady(context.Background())
	assert.ErrorIs(t, err, ErrNotReady)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Unavailable, h.State())

	f.initErr = nil
	h.Start(context.Background())
	require.NoError(t, h.WaitReady(context.Background()))
	assert.Equal(t, Ready, h.State())
}

func TestHandle_WaitReadyNotStarted(t *testing.T) {
	h := NewHandle(&fakeRecognizer{}, Options{})
	assert.ErrorIs(t, h.WaitReady(context.Background()), ErrNotReady)
}

func TestHandle_WaitReadyHonoursContext(t *testing.T) {
	f := &fakeRecognizer{gate: make(chan struct{})}
	defer close(f.gate)
	h := NewHandle(f, Options{})
	h.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, h.WaitReady(ctx), context.DeadlineExceeded)
}

func TestHandle_Filters(t *testing.T) {
	text := "Hi, I am Alice Smith, mail me at x. Call Bo now."
	at := func(s string) (int, int) {
		i := strings.Index(text, s)
		return i, i + len(s)
	}
	span := func(kind, s string, score float64) Entity {
		start, end := at(s)
		return Entity{Type: kind, Start: start, End: end, Score: score}
	}
	f := &fakeRecognizer{entities: []Entity{
		span("PERSON", "Alice Smith", 0.85),
		span("PERSON", "Hi", 0.95),
		span("PERSON", "Bo", 0.6),
		span("EMAIL_ADDRESS", "x", 0.9),
		span("NRP", "Alice", 0.9),
		span("LOCATION", "Call", 1.7),
		{Type: "URL", Start: 40, End: 400, Score: 0.9},
	}}
	h := ready(t, f, Options{})

	got, err := h.Detect(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, DefaultEntities, f.seen)
	require.Len(t, got, 2)

	assert.Equal(t, "person", got[0].Type)
	assert.Equal(t, "Alice Smith", got[0].Text)
	assert.Equal(t, 0.85, got[0].Score)

	assert.Equal(t, "location", got[1].Type)
	assert.Equal(t, 1.0, got[1].Score)
}

func TestHandle_CustomOptions(t *testing.T) {
	text := "ask Hello Kitty"
	f := &fakeRecognizer{entities: []Entity{
		{Type: "PERSON", Start: 4, End: 9, Score: 0.5},
	}}
	h := ready(t, f, Options{StopList: []string{}, MinNameScore: 0.4, Entities: []string{"person"}})

	got, err := h.Detect(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Hello", got[0].Text)
}
