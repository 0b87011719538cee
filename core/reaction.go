package core

import (
	"context"
	"fmt"

	"github.com/dahlia/fedichatbot/core/llm"
)

// reactionField is the single boolean field of the schema-constrained
// reaction response.
const reactionField = "like"

// DecideReaction asks the model whether the triggering message should be
// marked as liked. The assembled context is extended with one human turn
// built from the reaction template, quoting the trigger's sanitized text;
// the original slice is left untouched so the later response call never
// observes the extra turn. Model and schema failures propagate.
func (b *Bot) DecideReaction(ctx context.Context, turns []llm.Turn, trigger Message) (bool, error) {
	author := trigger.Author()
	name := author.Name()
	if name == "" {
		name = FieldNotAvailable
	}

	prompt := Render(b.Prompts.Reaction, map[string]string{
		"name":   name,
		"handle": ResolveHandleOrFallback(ctx, author),
		"quote":  Quote(Sanitize(trigger.Text())),
	})

	extended := make([]llm.Turn, len(turns), len(turns)+1)
	copy(extended, turns)
	extended = append(extended, llm.TextTurn(llm.RoleUser, prompt))

	like, tokens, err := b.LLM.GenerateBool(ctx, extended, reactionField, b.requestConfig())
	b.recordUsage(author.ID(), tokens)
	if err != nil {
		return false, fmt.Errorf("reaction decision failed: %w", err)
	}
	return like, nil
}
