// Package detectors holds the pattern catalog used by the scan engine and the
// registry that owns the active detector set. Each detector is a typed Spec:
// a case-insensitive matcher, a baseline confidence, an optional pinned
// severity, and optional validator and context requirements.
package detectors
