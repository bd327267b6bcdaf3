// Package engine runs the detector catalog and the optional recognizer over
// submitted text, deduplicates overlapping candidates and applies the block
// policy. This package is internal; external consumers should use the stable
// facade in pkg/core.
package engine
