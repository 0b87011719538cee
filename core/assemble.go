package core

import (
	"context"
	"time"

	"github.com/dahlia/fedichatbot/core/llm"
)

// FollowContext assembles the two-turn context for a follow event: the
// system turn and an introduction turn about the new follower.
func (b *Bot) FollowContext(ctx context.Context, sess Session, actor Actor) []llm.Turn {
	return []llm.Turn{
		b.systemTurn(sess),
		b.introTurn(ctx, actor, b.Prompts.Follow),
	}
}

// MentionContext assembles the context for a direct mention with no reply
// target: system turn, introduction turn about the mentioning actor, and a
// human turn for the triggering message itself.
func (b *Bot) MentionContext(ctx context.Context, sess Session, msg Message) []llm.Turn {
	return []llm.Turn{
		b.systemTurn(sess),
		b.introTurn(ctx, msg.Author(), b.Prompts.Mention),
		b.messageTurn(ctx, sess, msg),
	}
}

// ReplyContext assembles the context for a reply event from the full
// reconstructed thread. The root message's author becomes the introduction
// subject; when that author is the bot itself (replying to its own earlier
// post) the follow-greeting template introduces it, otherwise the mention
// template does. Every thread message then becomes an assistant or human
// turn depending on its author.
func (b *Bot) ReplyContext(ctx context.Context, sess Session, msg Message) []llm.Turn {
	thread := BuildThread(ctx, msg, b.Config.MaxThreadDepth)

	rootAuthor := thread[0].Author()
	tmpl := b.Prompts.Mention
	if rootAuthor.ID() == sess.ActorID() {
		tmpl = b.Prompts.Follow
	}

	turns := make([]llm.Turn, 0, len(thread)+2)
	turns = append(turns, b.systemTurn(sess), b.introTurn(ctx, rootAuthor, tmpl))
	for _, m := range thread {
		turns = append(turns, b.messageTurn(ctx, sess, m))
	}
	return turns
}

func (b *Bot) systemTurn(sess Session) llm.Turn {
	return llm.TextTurn(llm.RoleSystem, Render(b.Prompts.System, map[string]string{
		"name":    b.Config.Name,
		"version": b.Config.Version,
		"now":     time.Now().Format(time.RFC1123),
		"handle":  sess.Handle(),
	}))
}

// introTurn renders the introduction turn about an actor and appends the
// actor's avatar and header as inline images when they resolve. Untrusted
// profile text is sanitized and block-quoted before substitution.
func (b *Bot) introTurn(ctx context.Context, actor Actor, tmpl string) llm.Turn {
	name := actor.Name()
	if name == "" {
		name = FieldNotAvailable
	}
	bio := Sanitize(actor.Bio())
	if bio == "" {
		bio = FieldNotAvailable
	} else {
		bio = Quote(bio)
	}

	text := Render(tmpl, map[string]string{
		"name":   name,
		"handle": ResolveHandleOrFallback(ctx, actor),
		"bio":    bio,
	})

	parts := []llm.Part{{Text: text}}
	for _, mediaURL := range []string{actor.AvatarURL(), actor.HeaderURL()} {
		if mediaURL == "" {
			continue
		}
		dataURL, err := b.Media.InlineImage(ctx, mediaURL)
		if err != nil {
			b.Log.Debug().Err(err).Str("url", mediaURL).Msg("Dropping unresolvable profile image")
			continue
		}
		parts = append(parts, llm.Part{ImageURL: dataURL})
	}

	return llm.Turn{Role: llm.RoleUser, Parts: parts}
}

// messageTurn converts one thread message into a turn. Messages the bot
// authored become assistant turns; everything else becomes a human turn
// carrying the message text plus its resolvable image attachments. Non-image
// and unresolvable attachments are dropped silently.
func (b *Bot) messageTurn(ctx context.Context, sess Session, msg Message) llm.Turn {
	if msg.Author().ID() == sess.ActorID() {
		return llm.TextTurn(llm.RoleAssistant, msg.Text())
	}

	parts := []llm.Part{{Text: msg.Text()}}
	for _, att := range msg.Attachments() {
		if !isImage(att.MediaType()) {
			continue
		}
		dataURL, err := b.Media.InlineImage(ctx, att.URL())
		if err != nil {
			b.Log.Debug().Err(err).Str("url", att.URL()).Msg("Dropping unresolvable attachment")
			continue
		}
		parts = append(parts, llm.Part{ImageURL: dataURL})
	}

	return llm.Turn{Role: llm.RoleUser, Parts: parts}
}

func isImage(mediaType string) bool {
	return len(mediaType) >= 6 && mediaType[:6] == "image/"
}
