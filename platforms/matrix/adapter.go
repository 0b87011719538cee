package matrix

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"

	"github.com/dahlia/fedichatbot/core"
)

type Config struct {
	Homeserver          string `toml:"homeserver"`
	UserID              string `toml:"user_id"`
	CredentialsPath     string `toml:"credentials_path"`
	CryptoDBPath        string `toml:"crypto_db_path"`
	PickleKey           string `toml:"pickle_key"`
	AutoJoinInvites     bool   `toml:"auto_join_invites"`
	MaxEventAgeSeconds  int    `toml:"max_event_age_seconds"`
	EventTimeoutSeconds int    `toml:"event_timeout_seconds"`
}

const (
	defaultMaxEventAge  = 2 * time.Minute
	defaultEventTimeout = 2 * time.Minute
)

// Adapter bridges Matrix sync events onto the engine's three handlers:
// room invites become follow events, direct mentions become mention events,
// and replies into threads the bot participates in become reply events.
type Adapter struct {
	Client *mautrix.Client
	Bot    *core.Bot
	Config *Config
	Log    zerolog.Logger
}

func NewAdapter(client *mautrix.Client, bot *core.Bot, cfg *Config, log zerolog.Logger) *Adapter {
	return &Adapter{Client: client, Bot: bot, Config: cfg, Log: log}
}

func (a *Adapter) Start() error {
	syncer := a.Client.Syncer.(*mautrix.DefaultSyncer)
	syncer.OnEventType(event.EventMessage, a.handleMessage)
	syncer.OnEventType(event.StateMember, a.handleMember)

	a.Log.Info().Str("user_id", a.Client.UserID.String()).Msg("Starting Matrix adapter")
	return a.Client.Sync()
}

func (a *Adapter) maxEventAge() time.Duration {
	if a.Config.MaxEventAgeSeconds > 0 {
		return time.Duration(a.Config.MaxEventAgeSeconds) * time.Second
	}
	return defaultMaxEventAge
}

func (a *Adapter) eventTimeout() time.Duration {
	if a.Config.EventTimeoutSeconds > 0 {
		return time.Duration(a.Config.EventTimeoutSeconds) * time.Second
	}
	return defaultEventTimeout
}

// dispatch runs one event handler in its own goroutine with a per-event
// timeout and a panic guard. An expired or failed event is logged and
// dropped; the sync loop is never taken down with it.
func (a *Adapter) dispatch(kind string, fn func(ctx context.Context) error) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				a.Log.Error().Str("event", kind).Any("panic", r).Msg("Recovered from panic in event handler")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), a.eventTimeout())
		defer cancel()

		if err := fn(ctx); err != nil {
			a.Log.Error().Err(err).Str("event", kind).Msg("Event handling failed; dropping event")
		}
	}()
}

func (a *Adapter) handleMember(ctx context.Context, evt *event.Event) {
	if !a.Config.AutoJoinInvites {
		return
	}

	state := evt.Content.AsMember()
	if state.Membership != event.MembershipInvite || evt.GetStateKey() != a.Client.UserID.String() {
		return
	}

	a.Log.Info().Str("inviter", evt.Sender.String()).Str("room", evt.RoomID.String()).Msg("Received invite; joining")
	if _, err := a.Client.JoinRoom(ctx, evt.RoomID.String(), nil); err != nil {
		a.Log.Error().Err(err).Str("room", evt.RoomID.String()).Msg("Failed to join room")
		return
	}

	sess := &Session{client: a.Client, roomID: evt.RoomID}
	follower := newActor(a.Client, evt.Sender)
	a.dispatch("follow", func(ctx context.Context) error {
		return a.Bot.OnFollow(ctx, sess, follower)
	})
}

func (a *Adapter) handleMessage(ctx context.Context, evt *event.Event) {
	if evt.Sender == a.Client.UserID {
		return
	}
	if time.Since(time.UnixMilli(evt.Timestamp)) > a.maxEventAge() {
		return
	}

	content, ok := evt.Content.Parsed.(*event.MessageEventContent)
	if !ok {
		return
	}
	if content.MsgType != event.MsgText && content.MsgType != event.MsgImage {
		return
	}

	msg := &message{client: a.Client, evt: evt, content: content}
	sess := &Session{client: a.Client, roomID: evt.RoomID}
	mentioned := a.mentionsBot(content.Body)

	if content.RelatesTo != nil && content.RelatesTo.InReplyTo != nil {
		target, err := msg.ReplyTarget(ctx)
		if err != nil {
			a.Log.Warn().Err(err).Str("event_id", evt.ID.String()).Msg("Failed to inspect reply target")
		}
		if (target != nil && target.Author().ID() == a.Client.UserID.String()) || mentioned {
			a.dispatch("reply", func(ctx context.Context) error {
				return a.Bot.OnReply(ctx, sess, msg)
			})
		}
		return
	}

	if mentioned {
		a.dispatch("mention", func(ctx context.Context) error {
			return a.Bot.OnMention(ctx, sess, msg)
		})
	}
}

func (a *Adapter) mentionsBot(body string) bool {
	lower := strings.ToLower(body)
	if name := strings.ToLower(a.Bot.Config.Name); name != "" && strings.Contains(lower, name) {
		return true
	}
	return strings.Contains(lower, strings.ToLower(a.Client.UserID.String()))
}
