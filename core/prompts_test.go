package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tmpl := "Hello {name}, your handle is {handle}."

	got := Render(tmpl, map[string]string{"name": "Ana", "handle": "ana@example.social"})
	assert.Equal(t, "Hello Ana, your handle is ana@example.social.", got)

	// Placeholders without a value pass through untouched; no escaping of
	// substituted values.
	got = Render(tmpl, map[string]string{"name": "<Ana>"})
	assert.Equal(t, "Hello <Ana>, your handle is {handle}.", got)
}

func TestLoadPromptsEmbedded(t *testing.T) {
	prompts, err := LoadPrompts("")
	require.NoError(t, err)

	assert.Contains(t, prompts.System, "{name}")
	assert.Contains(t, prompts.System, "{handle}")
	assert.Contains(t, prompts.Follow, "{bio}")
	assert.Contains(t, prompts.Mention, "{handle}")
	assert.Contains(t, prompts.Reaction, "{quote}")
}

func TestResolveHandleOrFallback(t *testing.T) {
	ctx := context.Background()

	resolved := &fakeActor{handle: "ana@example.social"}
	assert.Equal(t, "ana@example.social", ResolveHandleOrFallback(ctx, resolved))

	failing := &fakeActor{handleErr: errors.New("webfinger lookup failed")}
	assert.Equal(t, HandleNotAvailable, ResolveHandleOrFallback(ctx, failing))

	empty := &fakeActor{}
	assert.Equal(t, HandleNotAvailable, ResolveHandleOrFallback(ctx, empty))
}
