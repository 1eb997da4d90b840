// Copyright 2024-2026 Aiku AI

package matcher

import "testing"

// FuzzCompile compiles arbitrary rules and tests arbitrary candidates.
// Compilation either fails cleanly or yields a matcher that never panics.
func FuzzCompile(f *testing.F) {
	f.Add("alice", "alice")
	f.Add("#general", "general")
	f.Add("@bob", "bob")
	f.Add("/^dev- \\d+ # numbered/", "dev-12")
	f.Add("/(a+)+$/", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa!")
	f.Add("/", "/")
	f.Add("//", "")
	f.Add("", "")

	f.Fuzz(func(t *testing.T, raw, candidate string) {
		m, err := Compile(raw)
		if err != nil {
			return
		}
		got := m.Test(candidate)
		if got != m.Test(candidate) {
			t.Errorf("non-deterministic Test(%q) for rule %q", candidate, raw)
		}
		if m.Kind() == KindLiteral && got != (raw == candidate) {
			t.Errorf("literal %q vs %q: got %v", raw, candidate, got)
		}
	})
}
