// Package filter decides which message records are mined for contacts, by
// regular expressions on their folder and subject.
package filter

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dhcgn/contact-cleaner/model"
)

var ErrModeConflict = errors.New("include and exclude filters are mutually exclusive")

// Options captures the filtering configuration.
type Options struct {
	IncludeFolder  []string
	IncludeSubject []string
	ExcludeFolder  []string
	ExcludeSubject []string
}

// Filter holds compiled regex patterns for filtering records.
type Filter struct {
	includeMode    bool
	excludeMode    bool
	includeFolder  []*regexp.Regexp
	includeSubject []*regexp.Regexp
	excludeFolder  []*regexp.Regexp
	excludeSubject []*regexp.Regexp
}

// New creates a new Filter from the provided options.
func New(opts Options) (*Filter, error) {
	includeFolder, err := compilePatterns(opts.IncludeFolder)
	if err != nil {
		return nil, fmt.Errorf("compile include-folder pattern: %w", err)
	}
	includeSubject, err := compilePatterns(opts.IncludeSubject)
	if err != nil {
		return nil, fmt.Errorf("compile include-subject pattern: %w", err)
	}
	excludeFolder, err := compilePatterns(opts.ExcludeFolder)
	if err != nil {
		return nil, fmt.Errorf("compile exclude-folder pattern: %w", err)
	}
	excludeSubject, err := compilePatterns(opts.ExcludeSubject)
	if err != nil {
		return nil, fmt.Errorf("compile exclude-subject pattern: %w", err)
	}

	includeActive := len(includeFolder) > 0 || len(includeSubject) > 0
	excludeActive := len(excludeFolder) > 0 || len(excludeSubject) > 0
	if includeActive && excludeActive {
		return nil, ErrModeConflict
	}

	return &Filter{
		includeMode:    includeActive,
		excludeMode:    excludeActive,
		includeFolder:  includeFolder,
		includeSubject: includeSubject,
		excludeFolder:  excludeFolder,
		excludeSubject: excludeSubject,
	}, nil
}

// Active reports whether any pattern is configured.
func (f *Filter) Active() bool {
	return f != nil && (f.includeMode || f.excludeMode)
}

// Allows returns true if the record passes the filter criteria. A nil Filter
// allows everything.
func (f *Filter) Allows(rec model.MessageRecord) bool {
	if f == nil {
		return true
	}

	if f.includeMode {
		return matchAny(f.includeFolder, rec.Folder) || matchAny(f.includeSubject, rec.Subject)
	}

	if f.excludeMode {
		if matchAny(f.excludeFolder, rec.Folder) || matchAny(f.excludeSubject, rec.Subject) {
			return false
		}
	}

	return true
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", pattern, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

func matchAny(patterns []*regexp.Regexp, text string) bool {
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
