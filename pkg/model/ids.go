// Copyright 2024-2026 Aiku AI

package model

// ChannelKind identifies which directory table a conversation id lives in.
type ChannelKind int

const (
	ChannelKindPublic ChannelKind = iota
	ChannelKindGroup
	ChannelKindDirect
)

func (k ChannelKind) String() string {
	switch k {
	case ChannelKindGroup:
		return "group"
	case ChannelKindDirect:
		return "im"
	default:
		return "channel"
	}
}

// KindOf dispatches on the leading tag character of a conversation id.
// Ids with an unrecognized tag are treated as public channels.
func KindOf(channelID string) ChannelKind {
	if channelID == "" {
		return ChannelKindPublic
	}
	switch channelID[0] {
	case 'G':
		return ChannelKindGroup
	case 'D':
		return ChannelKindDirect
	default:
		return ChannelKindPublic
	}
}
