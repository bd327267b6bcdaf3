// Package policy maps confidence to severity and decides whether a scan blocks.
package policy

import (
	"errors"
	"fmt"
	"math"

	"github.com/redactyl/promptscan/internal/types"
)

// ErrInvalidThreshold is returned by Validate for a threshold outside [0,1].
var ErrInvalidThreshold = errors.New("block threshold must be within [0,1]")

const (
	DefaultBlockThreshold = 0.9

	mediumFloor   = 0.6
	highFloor     = 0.8
	criticalFloor = 0.95
)

// DefaultPinnedCritical lists detectors that are always critical.
var DefaultPinnedCritical = []string{"private_key"}

// SeverityFor derives a tier from confidence alone.
func SeverityFor(conf float64) types.Severity {
	switch {
	case conf >= criticalFloor:
		return types.SevCritical
	case conf >= highFloor:
		return types.SevHigh
	case conf >= mediumFloor:
		return types.SevMed
	default:
		return types.SevLow
	}
}

// Policy holds the block decision parameters.
type Policy struct {
	BlockThreshold float64
	PinnedCritical []string
}

// Default returns the stock policy.
func Default() Policy {
	return Policy{
		BlockThreshold: DefaultBlockThreshold,
		PinnedCritical: append([]string(nil), DefaultPinnedCritical...),
	}
}

// Validate checks the threshold range.
func (p Policy) Validate() error {
	if math.IsNaN(p.BlockThreshold) || p.BlockThreshold < 0 || p.BlockThreshold > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidThreshold, p.BlockThreshold)
	}
	return nil
}

func (p Policy) pinned(detector string) bool {
	for _, name := range p.PinnedCritical {
		if name == detector {
			return true
		}
	}
	return false
}

// Resolve picks the severity for a match. Policy pins win over detector pins,
// which win over the confidence-derived tier.
func (p Policy) Resolve(detector string, pinned types.Severity, conf float64) types.Severity {
	if p.pinned(detector) {
		return types.SevCritical
	}
	if pinned != "" {
		return pinned
	}
	return SeverityFor(conf)
}

// ShouldBlock reports whether any issue is critical, or high with confidence
// at or above the threshold.
func (p Policy) ShouldBlock(issues []types.Issue) bool {
	for _, is := range issues {
		switch is.Severity {
		case types.SevCritical:
			return true
		case types.SevHigh:
			if is.Confidence >= p.BlockThreshold {
				return true
			}
		}
	}
	return false
}
