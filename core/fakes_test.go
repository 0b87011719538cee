package core

import (
	"context"
	"fmt"

	"github.com/dahlia/fedichatbot/core/llm"
	"github.com/dahlia/fedichatbot/media"
	"github.com/rs/zerolog"
)

type fakeActor struct {
	id        string
	name      string
	bio       string
	avatarURL string
	headerURL string
	handle    string
	handleErr error
}

func (a *fakeActor) ID() string        { return a.id }
func (a *fakeActor) Name() string      { return a.name }
func (a *fakeActor) Bio() string       { return a.bio }
func (a *fakeActor) AvatarURL() string { return a.avatarURL }
func (a *fakeActor) HeaderURL() string { return a.headerURL }

func (a *fakeActor) ResolveHandle(context.Context) (string, error) {
	return a.handle, a.handleErr
}

type fakeAttachment struct {
	mediaType string
	url       string
}

func (a fakeAttachment) MediaType() string { return a.mediaType }
func (a fakeAttachment) URL() string       { return a.url }

type fakeMessage struct {
	id          string
	author      *fakeActor
	text        string
	attachments []Attachment
	parent      *fakeMessage
	parentErr   error

	liked    bool
	likeErr  error
	replies  []string
	replyErr error
}

func (m *fakeMessage) ID() string                 { return m.id }
func (m *fakeMessage) Author() Actor              { return m.author }
func (m *fakeMessage) Text() string               { return m.text }
func (m *fakeMessage) Attachments() []Attachment { return m.attachments }

func (m *fakeMessage) ReplyTarget(context.Context) (Message, error) {
	if m.parentErr != nil {
		return nil, m.parentErr
	}
	if m.parent == nil {
		return nil, nil
	}
	return m.parent, nil
}

func (m *fakeMessage) Reply(_ context.Context, text string, _ PublishOptions) error {
	if m.replyErr != nil {
		return m.replyErr
	}
	m.replies = append(m.replies, text)
	return nil
}

func (m *fakeMessage) Like(context.Context) error {
	if m.likeErr != nil {
		return m.likeErr
	}
	m.liked = true
	return nil
}

type fakeSession struct {
	actorID    string
	handle     string
	published  []string
	publishErr error

	media      map[string][]byte
	fetchCount map[string]int
}

func (s *fakeSession) ActorID() string { return s.actorID }
func (s *fakeSession) Handle() string  { return s.handle }

func (s *fakeSession) Publish(_ context.Context, text string, _ PublishOptions) error {
	if s.publishErr != nil {
		return s.publishErr
	}
	s.published = append(s.published, text)
	return nil
}

func (s *fakeSession) Fetch(_ context.Context, url string) ([]byte, error) {
	if s.fetchCount == nil {
		s.fetchCount = make(map[string]int)
	}
	s.fetchCount[url]++
	data, ok := s.media[url]
	if !ok {
		return nil, fmt.Errorf("no such document: %s", url)
	}
	return data, nil
}

type fakeProvider struct {
	text    string
	textErr error
	like    bool
	likeErr error

	generateCalls [][]llm.Turn
	boolCalls     [][]llm.Turn
}

func (p *fakeProvider) ID() string { return "fake" }

func (p *fakeProvider) Generate(_ context.Context, turns []llm.Turn, _ llm.RequestConfig) (string, int, error) {
	p.generateCalls = append(p.generateCalls, turns)
	if p.textErr != nil {
		return "", 0, p.textErr
	}
	return p.text, 7, nil
}

func (p *fakeProvider) GenerateBool(_ context.Context, turns []llm.Turn, _ string, _ llm.RequestConfig) (bool, int, error) {
	p.boolCalls = append(p.boolCalls, turns)
	if p.likeErr != nil {
		return false, 0, p.likeErr
	}
	return p.like, 3, nil
}

func newTestBot(provider llm.Provider, sess *fakeSession) *Bot {
	prompts, err := LoadPrompts("")
	if err != nil {
		panic(err)
	}
	resolver := media.NewResolver(media.NewMemoryCache(), sess, zerolog.Nop())
	return NewBot(provider, resolver, prompts, &BotConfig{
		Name:        "FediChatBot",
		Version:     "0.4.0-test",
		Temperature: 0.7,
	}, nil, zerolog.Nop())
}
