// Package recognizer wraps an optional named-entity recognizer behind a
// capability handle. Scans consult the handle without waiting: until the
// backend has finished initializing they run pattern-only.
package recognizer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"go.uber.org/zap"
)

// ErrNotReady is returned when the backend has not finished initializing.
var ErrNotReady = errors.New("recognizer not ready")

// Entity is one detection reported by a backend. Start and End are byte
// offsets into the scanned text.
type Entity struct {
	Type  string
	Start int
	End   int
	Score float64
	Text  string
}

// Recognizer is an entity-recognition backend.
type Recognizer interface {
	Name() string
	// Init prepares the backend. It may block until the backend is reachable.
	Init(ctx context.Context) error
	Recognize(ctx context.Context, text string, entities []string) ([]Entity, error)
}

// State is the capability state of a Handle.
type State int32

const (
	Unavailable State = iota
	Initializing
	Ready
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	default:
		return "unavailable"
	}
}

// nameEntity is the category the stop-list and MinNameScore apply to.
const nameEntity = "PERSON"

const DefaultMinNameScore = 0.7

// DefaultEntities is the entity allow-list requested on every call.
var DefaultEntities = []string{
	"CREDIT_CARD", "EMAIL_ADDRESS", "IBAN_CODE", "IP_ADDRESS",
	"PERSON", "PHONE_NUMBER", "US_SSN", "US_PASSPORT",
	"US_DRIVER_LICENSE", "DATE_TIME", "LOCATION", "URL",
	"US_BANK_NUMBER", "CRYPTO", "MEDICAL_LICENSE",
	"API_KEY", "DATABASE_CREDENTIAL", "JWT_TOKEN",
}

// DefaultStopList holds words commonly mis-tagged as names.
var DefaultStopList = []string{
	"you", "i", "me", "we", "they", "he", "she", "it",
	"today", "tomorrow", "yesterday", "now", "here", "there",
	"hello", "hi", "hey", "thanks", "please", "yes", "no",
}

// Options tunes the adapter filters. Zero values select the defaults.
type Options struct {
	Entities     []string
	StopList     []string
	MinNameScore float64
	Logger       *zap.Logger
}

// Handle owns a backend and its initialization state. Safe for concurrent use.
type Handle struct {
	rec      Recognizer
	entities []string
	allowed  map[string]struct{}
	stop     map[string]struct{}
	minName  float64
	log      *zap.Logger

	state atomic.Int32

	mu      sync.Mutex
	done    chan struct{}
	lastErr error
}

// NewHandle wraps rec. The handle starts Unavailable; call Start to initialize.
func NewHandle(rec Recognizer, opts Options) *Handle {
	h := &Handle{
		rec:      rec,
		entities: opts.Entities,
		minName:  opts.MinNameScore,
		log:      opts.Logger,
	}
	if len(h.entities) == 0 {
		h.entities = DefaultEntities
	}
	if h.minName <= 0 {
		h.minName = DefaultMinNameScore
	}
	if h.log == nil {
		h.log = zap.NewNop()
	}
	h.allowed = make(map[string]struct{}, len(h.entities))
	for _, e := range h.entities {
		h.allowed[strings.ToUpper(e)] = struct{}{}
	}
	stop := opts.StopList
	if stop == nil {
		stop = DefaultStopList
	}
	h.stop = make(map[string]struct{}, len(stop))
	for _, w := range stop {
		h.stop[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return h
}

// Name reports the backend name.
func (h *Handle) Name() string { return h.rec.Name() }

// State reports the current capability state.
func (h *Handle) State() State { return State(h.state.Load()) }

// Start begins asynchronous initialization. It is a no-op unless the handle
// is Unavailable, so a failed attempt may be retried.
func (h *Handle) Start(ctx context.Context) {
	h.mu.Lock()
	if !h.state.CompareAndSwap(int32(Unavailable), int32(Initializing)) {
		h.mu.Unlock()
		return
	}
	done := make(chan struct{})
	h.done = done
	h.mu.Unlock()

	go func() {
		defer close(done)
		err := h.rec.Init(ctx)

		h.mu.Lock()
		defer h.mu.Unlock()
		h.lastErr = err
		if err != nil {
			h.state.Store(int32(Unavailable))
			h.log.Warn("recognizer init failed; scans run pattern-only",
				zap.String("recognizer", h.rec.Name()), zap.Error(err))
			return
		}
		h.state.Store(int32(Ready))
		h.log.Info("recognizer ready", zap.String("recognizer", h.rec.Name()))
	}()
}

// WaitReady blocks until the current initialization attempt finishes or ctx
// is done. It returns ErrNotReady if the handle was never started or the
// attempt failed.
func (h *Handle) WaitReady(ctx context.Context) error {
	if h.State() == Ready {
		return nil
	}
	h.mu.Lock()
	done := h.done
	h.mu.Unlock()
	if done == nil {
		return fmt.Errorf("%w: not started", ErrNotReady)
	}
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if h.State() == Ready {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.lastErr != nil {
		return fmt.Errorf("%w: %w", ErrNotReady, h.lastErr)
	}
	return ErrNotReady
}

// Detect runs the backend over text and returns the filtered entities with
// lower-case types and scores clamped to [0,1].
func (h *Handle) Detect(ctx context.Context, text string) ([]Entity, error) {
	if h.State() != Ready {
		return nil, ErrNotReady
	}
	raw, err := h.rec.Recognize(ctx, text, h.entities)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", h.rec.Name(), err)
	}
	return h.filter(text, raw), nil
}

func (h *Handle) filter(text string, raw []Entity) []Entity {
	out := make([]Entity, 0, len(raw))
	for _, e := range raw {
		kind := strings.ToUpper(e.Type)
		if _, ok := h.allowed[kind]; !ok {
			continue
		}
		if e.Start < 0 || e.End > len(text) || e.Start >= e.End {
			continue
		}
		if !utf8.RuneStart(text[e.Start]) || (e.End < len(text) && !utf8.RuneStart(text[e.End])) {
			continue
		}
		word := strings.ToLower(strings.TrimSpace(text[e.Start:e.End]))
		if utf8.RuneCountInString(word) < 2 {
			continue
		}
		score := clamp(e.Score)
		if kind == nameEntity {
			if _, stop := h.stop[word]; stop {
				continue
			}
			if score < h.minName {
				continue
			}
		}
		out = append(out, Entity{
			Type:  strings.ToLower(kind),
			Start: e.Start,
			End:   e.End,
			Score: score,
			Text:  text[e.Start:e.End],
		})
	}
	return out
}

func clamp(f float64) float64 {
	switch {
	case math.IsNaN(f), f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
