package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dahlia/fedichatbot/core/llm"
)

func TestDecideReaction(t *testing.T) {
	sess := &fakeSession{actorID: "bot", handle: "bot@bots.example"}
	provider := &fakeProvider{like: true}
	bot := newTestBot(provider, sess)

	msg := &fakeMessage{
		id:     "m1",
		author: &fakeActor{id: "ana", name: "Ana", handle: "ana@example.social"},
		text:   "What a lovely bot!",
	}
	turns := bot.MentionContext(context.Background(), sess, msg)
	before := len(turns)

	like, err := bot.DecideReaction(context.Background(), turns, msg)

	require.NoError(t, err)
	assert.True(t, like)

	// One reaction turn was appended for the decision call only; the
	// caller's context slice stays untouched for the response call.
	require.Len(t, provider.boolCalls, 1)
	assert.Len(t, provider.boolCalls[0], before+1)
	assert.Len(t, turns, before)

	last := provider.boolCalls[0][before]
	assert.Equal(t, llm.RoleUser, last.Role)
	assert.Contains(t, last.Parts[0].Text, "> What a lovely bot!")
	assert.Contains(t, last.Parts[0].Text, "ana@example.social")
}

func TestDecideReactionPropagatesFailure(t *testing.T) {
	sess := &fakeSession{actorID: "bot", handle: "bot@bots.example"}
	provider := &fakeProvider{likeErr: assert.AnError}
	bot := newTestBot(provider, sess)

	msg := &fakeMessage{
		id:     "m1",
		author: &fakeActor{id: "ana", handle: "ana@example.social"},
		text:   "hello",
	}

	_, err := bot.DecideReaction(context.Background(), nil, msg)
	assert.Error(t, err)
}
