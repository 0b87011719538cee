// Package core implements the conversation-context assembly and
// response-orchestration engine behind the bot: it reacts to follow, mention,
// and reply events by building a bounded role-tagged conversation history,
// asking a chat-completion backend for a reaction decision and a response,
// and publishing the result back through the federation layer.
//
// The federation protocol itself is not implemented here; it is consumed
// through the Session, Message, Actor, and Attachment capability surfaces
// below, which platform adapters implement.
package core

import "context"

// PublishOptions carries metadata attached to an outgoing publication.
type PublishOptions struct {
	// Language is a best-effort ISO 639-1 tag for the published text.
	// Empty means unknown; adapters may ignore it.
	Language string
}

// Session exposes the bot's own federation identity and its outbound
// capabilities. Fetch dereferences remote documents (media, profiles) and is
// the only inbound accessor the engine needs.
type Session interface {
	ActorID() string
	Handle() string

	Publish(ctx context.Context, text string, opts PublishOptions) error
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Actor is a read-only view of a remote federation identity. Name, Bio,
// AvatarURL, and HeaderURL may be empty. ResolveHandle performs
// protocol-level handle resolution and may fail; callers go through
// ResolveHandleOrFallback instead of handling that error themselves.
type Actor interface {
	ID() string
	Name() string
	Bio() string
	AvatarURL() string
	HeaderURL() string

	ResolveHandle(ctx context.Context) (string, error)
}

// Attachment is a media reference carried by a message. Only image media
// types participate in context assembly.
type Attachment interface {
	MediaType() string
	URL() string
}

// Message is a read-only view of an inbound unit of conversation.
// ReplyTarget returns (nil, nil) for a thread root.
type Message interface {
	ID() string
	Author() Actor
	Text() string
	Attachments() []Attachment

	ReplyTarget(ctx context.Context) (Message, error)
	Reply(ctx context.Context, text string, opts PublishOptions) error
	Like(ctx context.Context) error
}
