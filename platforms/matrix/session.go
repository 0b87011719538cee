package matrix

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/format"
	"maunium.net/go/mautrix/id"

	"github.com/dahlia/fedichatbot/core"
)

// Session implements core.Session over a Matrix client. Top-level
// publications go to roomID; Matrix events carry no language field, so the
// language tag from PublishOptions is dropped at this boundary.
type Session struct {
	client *mautrix.Client
	roomID id.RoomID
}

var _ core.Session = (*Session)(nil)

// NewFetcher wraps the client's document dereferencing for wiring the media
// resolver outside any event context.
func NewFetcher(client *mautrix.Client) *Session {
	return &Session{client: client}
}

func (s *Session) ActorID() string {
	return s.client.UserID.String()
}

func (s *Session) Handle() string {
	return handleFor(s.client.UserID)
}

func (s *Session) Publish(ctx context.Context, text string, _ core.PublishOptions) error {
	content := format.RenderMarkdown(text, true, false)
	_, err := s.client.SendMessageEvent(ctx, s.roomID, event.EventMessage, &content)
	return err
}

// Fetch dereferences mxc:// URIs through the homeserver and everything else
// over plain HTTP, returning the full body.
func (s *Session) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if strings.HasPrefix(rawURL, "mxc://") {
		uri, err := id.ParseContentURI(rawURL)
		if err != nil {
			return nil, fmt.Errorf("invalid content URI: %w", err)
		}
		return s.client.DownloadBytes(ctx, uri)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, rawURL)
	}
	return io.ReadAll(resp.Body)
}

// handleFor maps a Matrix user ID (@user:server) onto the fediverse-style
// user@server form the engine renders into prompts.
func handleFor(userID id.UserID) string {
	trimmed := strings.TrimPrefix(userID.String(), "@")
	localpart, domain, ok := strings.Cut(trimmed, ":")
	if !ok {
		return trimmed
	}
	return localpart + "@" + domain
}

const profileTimeout = 10 * time.Second

// actor is a lazy read-only view of a Matrix user's profile. The profile is
// fetched at most once; accessors that cannot fail fall back to empty values
// while ResolveHandle surfaces the fetch error.
type actor struct {
	client *mautrix.Client
	userID id.UserID

	once       sync.Once
	name       string
	avatarURL  string
	profileErr error
}

var _ core.Actor = (*actor)(nil)

func newActor(client *mautrix.Client, userID id.UserID) *actor {
	return &actor{client: client, userID: userID}
}

func (a *actor) loadProfile() {
	a.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), profileTimeout)
		defer cancel()
		profile, err := a.client.GetProfile(ctx, a.userID)
		if err != nil {
			a.profileErr = err
			return
		}
		a.name = profile.DisplayName
		a.avatarURL = profile.AvatarURL.String()
	})
}

func (a *actor) ID() string {
	return a.userID.String()
}

func (a *actor) Name() string {
	a.loadProfile()
	return a.name
}

// Bio returns empty: Matrix profiles carry no biography field.
func (a *actor) Bio() string { return "" }

func (a *actor) AvatarURL() string {
	a.loadProfile()
	return a.avatarURL
}

func (a *actor) HeaderURL() string { return "" }

// ResolveHandle confirms the user's profile is reachable on the homeserver
// before deriving the user@server handle.
func (a *actor) ResolveHandle(_ context.Context) (string, error) {
	a.loadProfile()
	if a.profileErr != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", a.userID, a.profileErr)
	}
	return handleFor(a.userID), nil
}

// message implements core.Message over a parsed Matrix room message.
type message struct {
	client  *mautrix.Client
	evt     *event.Event
	content *event.MessageEventContent
}

var _ core.Message = (*message)(nil)

func (m *message) ID() string {
	return m.evt.ID.String()
}

func (m *message) Author() core.Actor {
	return newActor(m.client, m.evt.Sender)
}

func (m *message) Text() string {
	return m.content.Body
}

func (m *message) Attachments() []core.Attachment {
	if m.content.MsgType != event.MsgImage || m.content.URL == "" {
		// Encrypted files need client-side decryption and cannot be
		// dereferenced by URL; they are treated as absent.
		return nil
	}
	mediaType := "image/jpeg"
	if info := m.content.GetInfo(); info != nil && info.MimeType != "" {
		mediaType = info.MimeType
	}
	return []core.Attachment{attachment{mediaType: mediaType, url: string(m.content.URL)}}
}

func (m *message) ReplyTarget(ctx context.Context) (core.Message, error) {
	if m.content.RelatesTo == nil || m.content.RelatesTo.InReplyTo == nil {
		return nil, nil
	}

	targetID := m.content.RelatesTo.InReplyTo.EventID
	target, err := m.client.GetEvent(ctx, m.evt.RoomID, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reply target %s: %w", targetID, err)
	}
	target.RoomID = m.evt.RoomID
	_ = target.Content.ParseRaw(target.Type)

	if target.Type == event.EventEncrypted && m.client.Crypto != nil {
		decrypted, err := m.client.Crypto.Decrypt(ctx, target)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt reply target %s: %w", targetID, err)
		}
		target = decrypted
		_ = target.Content.ParseRaw(target.Type)
	}

	content, ok := target.Content.Parsed.(*event.MessageEventContent)
	if !ok {
		// Not a room message; treat as the end of the visible chain.
		return nil, nil
	}
	return &message{client: m.client, evt: target, content: content}, nil
}

func (m *message) Reply(ctx context.Context, text string, _ core.PublishOptions) error {
	content := format.RenderMarkdown(text, true, false)
	content.RelatesTo = &event.RelatesTo{
		InReplyTo: &event.InReplyTo{EventID: m.evt.ID},
	}
	_, err := m.client.SendMessageEvent(ctx, m.evt.RoomID, event.EventMessage, &content)
	return err
}

func (m *message) Like(ctx context.Context) error {
	_, err := m.client.SendMessageEvent(ctx, m.evt.RoomID, event.EventReaction, &event.ReactionEventContent{
		RelatesTo: event.RelatesTo{
			Type:    event.RelAnnotation,
			EventID: m.evt.ID,
			Key:     "❤️",
		},
	})
	return err
}

type attachment struct {
	mediaType string
	url       string
}

func (a attachment) MediaType() string { return a.mediaType }
func (a attachment) URL() string       { return a.url }
