package cliconfig

import (
	"fmt"

	"github.com/kazuma-desu/gset/pkg/path"
)

const (
	maxKeyLength  = 1000
	maxKeyDepth   = 20
	maxValueSize  = 100 * 1024 // 100KB
	warnValueSize = 10 * 1024  // 10KB
)

// IssueLevel classifies a validation finding.
type IssueLevel string

const (
	LevelError   IssueLevel = "error"
	LevelWarning IssueLevel = "warning"
)

// Issue is a single validation finding against one entry.
type Issue struct {
	Key     string
	Message string
	Level   IssueLevel
}

// Result is the outcome of validating a batch of entries.
type Result struct {
	Issues []Issue
	Valid  bool
}

// HasErrors reports whether any issue is error-level.
func (r *Result) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Level == LevelError {
			return true
		}
	}
	return false
}

// HasWarnings reports whether any issue is warning-level.
func (r *Result) HasWarnings() bool {
	for _, issue := range r.Issues {
		if issue.Level == LevelWarning {
			return true
		}
	}
	return false
}

func (r *Result) addError(key, msg string) {
	r.Issues = append(r.Issues, Issue{Key: key, Message: msg, Level: LevelError})
}

func (r *Result) addWarning(key, msg string) {
	r.Issues = append(r.Issues, Issue{Key: key, Message: msg, Level: LevelWarning})
}

// Validate checks every entry's key against the path lexer plus a couple of
// size heuristics, and flags duplicate keys. strict treats warnings as
// validation failures.
func Validate(entries []Entry, strict bool) *Result {
	result := &Result{Valid: true, Issues: []Issue{}}
	seen := make(map[string]bool, len(entries))

	for _, e := range entries {
		if seen[e.Key] {
			result.addError(e.Key, "duplicate key")
			continue
		}
		seen[e.Key] = true

		validateKey(e.Key, result)
		validateValue(e, result)
	}

	result.Valid = !result.HasErrors()
	if strict && result.HasWarnings() {
		result.Valid = false
	}
	return result
}

func validateKey(key string, result *Result) {
	if !path.IsKey(key) {
		result.addError(key, "not a valid settings key (must start with '/', contain no empty segment, and not end with '/')")
		return
	}
	if len(key) > maxKeyLength {
		result.addError(key, fmt.Sprintf("key length exceeds maximum of %d characters", maxKeyLength))
	}
	if depth := segmentDepth(key); depth > maxKeyDepth {
		result.addError(key, fmt.Sprintf("key depth %d exceeds maximum of %d", depth, maxKeyDepth))
	}
}

func segmentDepth(key string) int {
	depth := 0
	for _, c := range key {
		if c == '/' {
			depth++
		}
	}
	return depth
}

func validateValue(e Entry, result *Result) {
	if e.Value == nil {
		result.addError(e.Key, "value cannot be nil")
		return
	}

	size := len(fmt.Sprintf("%v", e.Value))
	switch {
	case size > maxValueSize:
		result.addError(e.Key, fmt.Sprintf("value size (%d bytes) exceeds maximum of %d bytes", size, maxValueSize))
	case size > warnValueSize:
		result.addWarning(e.Key, fmt.Sprintf("value size (%d bytes) exceeds recommended size of %d bytes", size, warnValueSize))
	}
}
