package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/abadojack/whatlanggo"

	"github.com/dahlia/fedichatbot/core/llm"
)

// Respond issues the main completion request over the assembled context and
// returns the response text together with the publish options (a best-effort
// language tag). Token usage is recorded against actorID.
func (b *Bot) Respond(ctx context.Context, actorID string, turns []llm.Turn) (string, PublishOptions, error) {
	text, tokens, err := b.LLM.Generate(ctx, turns, b.requestConfig())
	b.recordUsage(actorID, tokens)
	if err != nil {
		return "", PublishOptions{}, fmt.Errorf("completion failed: %w", err)
	}

	return text, PublishOptions{Language: DetectLanguage(text)}, nil
}

// DetectLanguage guesses the ISO 639-1 tag of text. Uncertain detection
// yields an empty tag rather than a wrong one; publication proceeds either
// way.
func DetectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6391()
}

// EnsureMention prepends an explicit mention of the target actor unless the
// text already visibly references them. A handle that failed to resolve
// cannot be mentioned, so the text passes through unchanged.
func EnsureMention(text, handle string) string {
	if handle == "" || handle == HandleNotAvailable {
		return text
	}
	handle = strings.TrimPrefix(handle, "@")
	local, _, _ := strings.Cut(handle, "@")
	if strings.Contains(text, "@"+local) {
		return text
	}
	return "@" + handle + " " + text
}
