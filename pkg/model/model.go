// Copyright 2024-2026 Aiku AI

// Package model holds the message and directory records shared by the
// transport and the transcript pipeline.
package model

// Event is one inbound message notification. Empty strings mean the field
// was absent on the wire. Events are never mutated after decoding.
type Event struct {
	Channel     string
	UserID      string
	BotID       string
	Username    string
	Subtype     string
	Timestamp   float64
	Text        string
	Attachments []Attachment
	Hidden      bool
}

// Attachment is the part of a legacy message attachment that is rendered.
type Attachment struct {
	Fallback string
	Text     string
}

// User is a workspace member as seen in the directory.
type User struct {
	ID          string
	Name        string
	DisplayName string
	RealName    string
}

// Bot is a bot integration as seen in the directory.
type Bot struct {
	ID   string
	Name string
}

// Channel is a public channel or a private group.
type Channel struct {
	ID   string
	Name string
}

// DirectMessage is a one-to-one conversation with PeerUserID.
type DirectMessage struct {
	ID         string
	PeerUserID string
}
