package diag

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Log accumulates warnings across the steps of one request. Nothing added
// is ever dropped. Safe for concurrent use.
type Log struct {
	mu       sync.Mutex
	warnings []Warning
}

// Add records warnings in order.
func (l *Log) Add(ws ...Warning) {
	if len(ws) == 0 {
		return
	}
	l.mu.Lock()
	l.warnings = append(l.warnings, ws...)
	l.mu.Unlock()
}

// AddResult records the warnings of r and returns r unchanged.
func (l *Log) AddResult(r Result) Result {
	l.Add(r.Warnings...)
	return r
}

// Warnings returns a copy of everything recorded so far. The result is
// never nil so it encodes as an empty JSON list.
func (l *Log) Warnings() []Warning {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Warning, len(l.warnings))
	copy(out, l.warnings)
	return out
}

// Len returns the number of recorded warnings.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.warnings)
}

// Has reports whether any warning with code was recorded.
func (l *Log) Has(code string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, w := range l.warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

// Summary returns a count per code, e.g. "METRIC_UNAVAILABLE=2 NORMALIZATION_GAP=1".
func (l *Log) Summary() string {
	l.mu.Lock()
	counts := map[string]int{}
	for _, w := range l.warnings {
		counts[w.Code]++
	}
	l.mu.Unlock()

	if len(counts) == 0 {
		return "warnings=0"
	}
	codes := make([]string, 0, len(counts))
	for c := range counts {
		codes = append(codes, c)
	}
	sort.Strings(codes)

	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = fmt.Sprintf("%s=%d", c, counts[c])
	}
	return strings.Join(parts, " ")
}
