// Copyright 2024-2026 Aiku AI

// Package transcript turns message events into transcript lines.
//
// [Processor] is the per-connection pipeline: it drops hidden and muted
// events and writes the rest, rendered by [Renderer], to the output stream
// in arrival order. Nothing is buffered or reordered.
package transcript

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/aiku/slacktail/pkg/model"
	"github.com/aiku/slacktail/pkg/mute"
)

// Processor is bound to one connection's directory.
type Processor struct {
	mute     *mute.Engine
	renderer *Renderer
	out      io.Writer
	log      zerolog.Logger
}

func NewProcessor(engine *mute.Engine, renderer *Renderer, out io.Writer, log zerolog.Logger) *Processor {
	return &Processor{
		mute:     engine,
		renderer: renderer,
		out:      out,
		log:      log.With().Str("component", "processor").Logger(),
	}
}

// Process handles a single event synchronously.
func (p *Processor) Process(evt model.Event) {
	if reason := p.skipReason(evt); reason != "" {
		p.log.Debug().
			Str("channel_id", evt.Channel).
			Str("user_id", evt.UserID).
			Str("reason", reason).
			Msg("Skipping event")
		return
	}
	line := p.renderer.Render(evt)
	if _, err := io.WriteString(p.out, line+"\n"); err != nil {
		p.log.Error().Err(err).Str("channel_id", evt.Channel).Msg("Failed to write transcript line")
	}
}

func (p *Processor) skipReason(evt model.Event) string {
	switch {
	case evt.Hidden:
		return "hidden"
	case p.mute.IsChannelMuted(evt):
		return "channel_muted"
	case p.mute.IsUserMuted(evt):
		return "user_muted"
	default:
		return ""
	}
}
