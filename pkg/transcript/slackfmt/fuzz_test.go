// Copyright 2024-2026 Aiku AI

package slackfmt

import (
	"strings"
	"testing"
)

// FuzzDecode feeds arbitrary message text through the decoder. No input
// should panic, and text without markup or entities passes through intact.
func FuzzDecode(f *testing.F) {
	f.Add("hello")
	f.Add("<@U1> and <#C1|general>")
	f.Add("<!here> <!subteam^S1|@ops>")
	f.Add("<https://example.com|site>")
	f.Add("&lt;&gt;&amp;&amp;lt;")
	f.Add("<<@U1>>")
	f.Add("<")
	f.Add("<>")
	f.Add(string([]byte{0x00, 0xff}))

	f.Fuzz(func(t *testing.T, text string) {
		got := Decode(text, testResolver)
		if got != Decode(text, testResolver) {
			t.Errorf("non-deterministic decode of %q", text)
		}
		if !strings.ContainsAny(text, "<>&") && got != text {
			t.Errorf("plain text changed: %q -> %q", text, got)
		}
	})
}
