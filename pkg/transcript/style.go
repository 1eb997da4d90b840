// Copyright 2024-2026 Aiku AI

package transcript

import (
	"github.com/muesli/termenv"
)

// Segment names a styleable part of a transcript line. Message content is
// never styled.
type Segment int

const (
	SegmentTimestamp Segment = iota
	SegmentChannel
	SegmentSender
)

// Styler decorates a segment for display.
type Styler interface {
	Style(seg Segment, s string) string
}

// PlainStyler returns segments unchanged.
type PlainStyler struct{}

func (PlainStyler) Style(_ Segment, s string) string {
	return s
}

// TermStyler colors segments for a terminal. Color sequences are dropped
// when the output's profile has no color support.
type TermStyler struct {
	out *termenv.Output
}

func NewTermStyler(out *termenv.Output) *TermStyler {
	return &TermStyler{out: out}
}

func (t *TermStyler) Style(seg Segment, s string) string {
	style := t.out.String(s)
	switch seg {
	case SegmentTimestamp:
		style = style.Faint()
	case SegmentChannel:
		style = style.Foreground(t.out.Color("6"))
	case SegmentSender:
		style = style.Foreground(t.out.Color("3")).Bold()
	}
	return style.String()
}
