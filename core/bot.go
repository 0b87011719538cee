package core

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dahlia/fedichatbot/core/llm"
	"github.com/dahlia/fedichatbot/media"
)

type BotConfig struct {
	Name              string  `toml:"name"`
	Version           string  `toml:"version"`
	Temperature       float32 `toml:"temperature"`
	MaxResponseTokens int     `toml:"max_response_tokens"`
	MaxThreadDepth    int     `toml:"max_thread_depth"`
	MaxModelAttempts  int     `toml:"max_model_attempts"`
	PromptDir         string  `toml:"prompt_dir"`
}

const (
	defaultMaxResponseTokens = 4096
	defaultMaxThreadDepth    = 40
	defaultMaxModelAttempts  = 3
)

// Bot orchestrates one sequential pipeline per inbound event: assemble
// context, decide the reaction, generate the response, publish it. All
// collaborators are passed in explicitly; there is no global state.
type Bot struct {
	LLM     llm.Provider
	Media   *media.Resolver
	Prompts *PromptSet
	Config  *BotConfig
	Usage   *UsageTracker
	Log     zerolog.Logger
}

func NewBot(provider llm.Provider, resolver *media.Resolver, prompts *PromptSet, cfg *BotConfig, usage *UsageTracker, log zerolog.Logger) *Bot {
	if cfg.MaxResponseTokens <= 0 {
		cfg.MaxResponseTokens = defaultMaxResponseTokens
	}
	if cfg.MaxThreadDepth <= 0 {
		cfg.MaxThreadDepth = defaultMaxThreadDepth
	}
	if cfg.MaxModelAttempts <= 0 {
		cfg.MaxModelAttempts = defaultMaxModelAttempts
	}
	return &Bot{
		LLM:     provider,
		Media:   resolver,
		Prompts: prompts,
		Config:  cfg,
		Usage:   usage,
		Log:     log,
	}
}

func (b *Bot) requestConfig() llm.RequestConfig {
	return llm.RequestConfig{
		Temperature: b.Config.Temperature,
		MaxTokens:   b.Config.MaxResponseTokens,
		MaxAttempts: b.Config.MaxModelAttempts,
	}
}

func (b *Bot) recordUsage(actorID string, tokens int) {
	if b.Usage != nil && tokens > 0 {
		b.Usage.Record(actorID, tokens)
	}
}

// OnFollow greets a new follower with a top-level post.
func (b *Bot) OnFollow(ctx context.Context, sess Session, actor Actor) error {
	turns := b.FollowContext(ctx, sess, actor)

	text, opts, err := b.Respond(ctx, actor.ID(), turns)
	if err != nil {
		return fmt.Errorf("failed to generate follow greeting: %w", err)
	}

	text = EnsureMention(text, ResolveHandleOrFallback(ctx, actor))
	if err := sess.Publish(ctx, text, opts); err != nil {
		return fmt.Errorf("failed to publish follow greeting: %w", err)
	}

	b.Log.Info().Str("actor", actor.ID()).Msg("Published follow greeting")
	return nil
}

// OnMention answers a message that mentions the bot directly, outside any
// reply chain.
func (b *Bot) OnMention(ctx context.Context, sess Session, msg Message) error {
	return b.answer(ctx, sess, msg, b.MentionContext(ctx, sess, msg))
}

// OnReply answers a reply within a thread the bot participates in, using the
// full reconstructed ancestor chain as context.
func (b *Bot) OnReply(ctx context.Context, sess Session, msg Message) error {
	return b.answer(ctx, sess, msg, b.ReplyContext(ctx, sess, msg))
}

// answer runs the shared mention/reply tail of the pipeline: reaction
// decision first, then response generation, strictly in that order. A like
// registered before a later failure is not rolled back.
func (b *Bot) answer(ctx context.Context, sess Session, msg Message, turns []llm.Turn) error {
	like, err := b.DecideReaction(ctx, turns, msg)
	if err != nil {
		return fmt.Errorf("failed to decide reaction: %w", err)
	}
	if like {
		if err := msg.Like(ctx); err != nil {
			b.Log.Warn().Err(err).Str("message", msg.ID()).Msg("Failed to like message")
		}
	}

	text, opts, err := b.Respond(ctx, msg.Author().ID(), turns)
	if err != nil {
		return fmt.Errorf("failed to generate response: %w", err)
	}

	text = EnsureMention(text, ResolveHandleOrFallback(ctx, msg.Author()))
	if err := msg.Reply(ctx, text, opts); err != nil {
		return fmt.Errorf("failed to publish reply: %w", err)
	}

	b.Log.Info().Str("message", msg.ID()).Bool("liked", like).Msg("Published reply")
	return nil
}
