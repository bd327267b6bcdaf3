package detectors

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/redactyl/promptscan/internal/types"
)

// ErrInvalidSpec is returned when a detector cannot be registered.
var ErrInvalidSpec = errors.New("invalid detector spec")

// Category groups detectors by the kind of content they look for.
type Category string

const (
	Credential Category = "credential"
	Identity   Category = "identity"
	Contextual Category = "contextual"
)

// Matcher finds candidate locations in text. *regexp.Regexp satisfies it.
// When a match carries a first capture group, that group is the reported span.
type Matcher interface {
	FindAllStringSubmatchIndex(s string, n int) [][]int
}

// Validator accepts or rejects the raw matched substring.
type Validator func(match string) bool

// Spec describes one named detector.
type Spec struct {
	Name        string
	Type        string // issue type; Name when empty
	Description string
	Category    Category
	Matcher     Matcher
	Confidence  float64
	// Severity pins the tier. Empty means it is derived from confidence.
	Severity  types.Severity
	Validator Validator
	// Context lists tokens expected near a match. When none is present the
	// confidence is halved, or the match dropped if RequireContext is set.
	Context        []string
	RequireContext bool
	// RequiresMetadata limits the detector to scans that carry a context map.
	RequiresMetadata bool
}

// IssueType returns the type reported on issues from this detector.
func (s Spec) IssueType() string {
	if s.Type != "" {
		return s.Type
	}
	return s.Name
}

func (s Spec) validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidSpec)
	}
	if s.Matcher == nil {
		return fmt.Errorf("%w: %s: nil matcher", ErrInvalidSpec, s.Name)
	}
	if !(s.Confidence > 0 && s.Confidence <= 1) {
		return fmt.Errorf("%w: %s: confidence %v outside (0,1]", ErrInvalidSpec, s.Name, s.Confidence)
	}
	if s.Severity != "" && !s.Severity.Valid() {
		return fmt.Errorf("%w: %s: unknown severity %q", ErrInvalidSpec, s.Name, s.Severity)
	}
	return nil
}

// Compile builds a case-insensitive matcher from a regular expression.
func Compile(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: pattern %q: %w", ErrInvalidSpec, pattern, err)
	}
	return re, nil
}

func mustCompile(pattern string) *regexp.Regexp {
	return regexp.MustCompile("(?i)" + pattern)
}

// Registry holds the active detector set. Scans take the read lock for the
// whole pattern pass; Register and Unregister take the write lock.
type Registry struct {
	mu    sync.RWMutex
	specs map[string]Spec
	order []string
}

// NewRegistry builds a registry from specs. Any invalid spec fails the whole call.
func NewRegistry(specs ...Spec) (*Registry, error) {
	r := &Registry{specs: make(map[string]Spec, len(specs))}
	for _, s := range specs {
		if err := s.validate(); err != nil {
			return nil, err
		}
		r.specs[s.Name] = s
	}
	r.reorder()
	return r, nil
}

func (r *Registry) reorder() {
	r.order = r.order[:0]
	for name := range r.specs {
		r.order = append(r.order, name)
	}
	sort.Strings(r.order)
}

// Register adds or overwrites a detector. The matcher is used as given; build
// regular expressions with Compile, or use RegisterPattern, to keep matching
// case-insensitive.
func (r *Registry) Register(s Spec) error {
	if err := s.validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs[s.Name] = s
	r.reorder()
	return nil
}

// RegisterPattern compiles pattern with Compile, sets it as the matcher of s
// and registers s. A bad pattern leaves the registry unchanged.
func (r *Registry) RegisterPattern(s Spec, pattern string) error {
	re, err := Compile(pattern)
	if err != nil {
		return err
	}
	s.Matcher = re
	return r.Register(s)
}

// Unregister removes a detector; unknown names are ignored.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.specs[name]; !ok {
		return
	}
	delete(r.specs, name)
	r.reorder()
}

// Get returns the detector registered under name.
func (r *Registry) Get(name string) (Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.specs[name]
	return s, ok
}

// Names returns the registered detector names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Len returns the number of registered detectors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.specs)
}

// Each calls fn for every detector in name order while holding the read lock.
// fn must not call Register or Unregister.
func (r *Registry) Each(fn func(Spec)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range r.order {
		fn(r.specs[name])
	}
}

// Match is a validated candidate produced by a detector.
type Match struct {
	Span       types.Span
	Text       string
	Confidence float64
}

// Find runs the detector over text. Rejected candidates are dropped before
// scoring; missing context tokens halve the baseline confidence unless the
// detector requires them.
func (s Spec) Find(text string, meta map[string]string) []Match {
	if s.RequiresMetadata && len(meta) == 0 {
		return nil
	}
	var out []Match
	for _, loc := range s.Matcher.FindAllStringSubmatchIndex(text, -1) {
		start, end := loc[0], loc[1]
		if len(loc) >= 4 && loc[2] >= 0 {
			start, end = loc[2], loc[3]
		}
		if start < 0 || end > len(text) || start >= end {
			continue
		}
		m := text[start:end]
		if s.Validator != nil && !s.Validator(m) {
			continue
		}
		conf := s.Confidence
		if len(s.Context) > 0 && !hasContext(text, start, end, s.Context) {
			if s.RequireContext {
				continue
			}
			conf *= 0.5
		}
		out = append(out, Match{Span: types.Span{Start: start, End: end}, Text: m, Confidence: conf})
	}
	return out
}

// Builtin returns the default catalog.
func Builtin() []Spec {
	out := make([]Spec, 0, len(credentialSpecs)+len(identitySpecs)+len(contextualSpecs))
	out = append(out, credentialSpecs...)
	out = append(out, identitySpecs...)
	out = append(out, contextualSpecs...)
	return out
}

// IDs returns the names of the built-in detectors.
func IDs() []string {
	var ids []string
	for _, s := range Builtin() {
		ids = append(ids, s.Name)
	}
	sort.Strings(ids)
	return ids
}
