package engine

import (
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
	xxhash "github.com/cespare/xxhash/v2"

	"github.com/redactyl/promptscan/internal/detectors"
)

// selectDetectors applies comma-separated enable/disable globs to detector
// names. Enable acts as a positive filter when set; disable is subtracted last.
func selectDetectors(specs []detectors.Spec, enable, disable string) []detectors.Spec {
	includes := parseGlobsList(enable)
	excludes := parseGlobsList(disable)
	if len(includes) == 0 && len(excludes) == 0 {
		return specs
	}
	var out []detectors.Spec
	for _, s := range specs {
		if len(includes) > 0 && !matchAnyGlob(s.Name, includes) {
			continue
		}
		if matchAnyGlob(s.Name, excludes) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func parseGlobsList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func matchAnyGlob(name string, globs []string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, name); ok {
			return true
		}
	}
	return false
}

// fastHash fingerprints the input for logs so raw text never reaches them.
func fastHash(s string) string {
	if len(s) == 0 {
		return "0000000000000000"
	}
	sum := xxhash.Sum64String(s)
	var buf [16]byte
	const hex = "0123456789abcdef"
	for i := 15; i >= 0; i-- {
		buf[i] = hex[sum&0xF]
		sum >>= 4
	}
	return string(buf[:])
}
