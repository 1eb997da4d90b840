// Copyright 2024-2026 Aiku AI

// Package matcher compiles configured mute rules into predicates.
//
// A rule is one of:
//
//   - /pattern/ compiled in extended mode, where unescaped whitespace and
//     #-comments inside the pattern are ignored
//   - #name, a channel literal with the sigil stripped
//   - @name, a user literal with the sigil stripped
//   - anything else, matched verbatim
//
// Literals compare with exact, case-sensitive equality. Patterns match if
// they match anywhere in the candidate.
package matcher

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// Kind is the shape a rule was compiled from.
type Kind int

const (
	KindLiteral Kind = iota
	KindChannelLiteral
	KindUserLiteral
	KindPattern
)

func (k Kind) String() string {
	switch k {
	case KindChannelLiteral:
		return "channel-literal"
	case KindUserLiteral:
		return "user-literal"
	case KindPattern:
		return "pattern"
	default:
		return "literal"
	}
}

// matchTimeout bounds a single pattern evaluation. regexp2 backtracks, so a
// pathological rule could otherwise stall the event loop.
const matchTimeout = 100 * time.Millisecond

// Matcher is a compiled rule. It is immutable and safe for concurrent use.
type Matcher struct {
	raw     string
	kind    Kind
	literal string
	re      *regexp2.Regexp
}

// Compile turns a raw rule into a Matcher. Only pattern rules can fail.
func Compile(raw string) (*Matcher, error) {
	if len(raw) >= 2 && raw[0] == '/' && raw[len(raw)-1] == '/' {
		re, err := regexp2.Compile(raw[1:len(raw)-1], regexp2.IgnorePatternWhitespace)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", raw, err)
		}
		re.MatchTimeout = matchTimeout
		return &Matcher{raw: raw, kind: KindPattern, re: re}, nil
	}
	switch {
	case strings.HasPrefix(raw, "#"):
		return &Matcher{raw: raw, kind: KindChannelLiteral, literal: raw[1:]}, nil
	case strings.HasPrefix(raw, "@"):
		return &Matcher{raw: raw, kind: KindUserLiteral, literal: raw[1:]}, nil
	default:
		return &Matcher{raw: raw, kind: KindLiteral, literal: raw}, nil
	}
}

// CompileAll compiles rules in order. The first invalid rule aborts the
// whole set.
func CompileAll(raws []string) ([]*Matcher, error) {
	out := make([]*Matcher, 0, len(raws))
	for i, raw := range raws {
		m, err := Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(raw string) *Matcher {
	m, err := Compile(raw)
	if err != nil {
		panic(err)
	}
	return m
}

// Test reports whether candidate satisfies the rule. A pattern that times
// out counts as no match.
func (m *Matcher) Test(candidate string) bool {
	if m.re == nil {
		return candidate == m.literal
	}
	ok, err := m.re.MatchString(candidate)
	return err == nil && ok
}

// Sigil reports whether the rule was written with a # or @ prefix.
func (m *Matcher) Sigil() bool {
	return m.kind == KindChannelLiteral || m.kind == KindUserLiteral
}

func (m *Matcher) Kind() Kind {
	return m.kind
}

// String returns the rule as it was configured.
func (m *Matcher) String() string {
	return m.raw
}

// Any reports whether any matcher accepts candidate.
func Any(matchers []*Matcher, candidate string) bool {
	for _, m := range matchers {
		if m.Test(candidate) {
			return true
		}
	}
	return false
}
