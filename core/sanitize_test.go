package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain text", in: "hello there", want: "hello there"},
		{name: "script tag", in: `<script>alert("pwned")</script>hi`, want: "hi"},
		{name: "anchor stripped not kept", in: `<a href="https://evil.example/">link</a>`, want: "link"},
		{name: "unknown tag", in: "<blink>old web</blink>", want: "old web"},
		{name: "nested markup", in: "<p><b>bold</b> and <i>italic</i></p>", want: "bold and italic"},
		{name: "entities unescaped", in: "fish &amp; chips", want: "fish & chips"},
		{name: "empty", in: "", want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Sanitize(tc.in)
			assert.Equal(t, tc.want, got)
			assert.NotContains(t, got, "<")
			assert.NotContains(t, got, ">")
		})
	}
}

func TestQuote(t *testing.T) {
	assert.Equal(t, "> one line", Quote("one line"))
	assert.Equal(t, "> first\n> second", Quote("first\nsecond"))
	assert.Equal(t, "> a\n> \n> b", Quote("a\n\nb"))
	assert.Equal(t, "> ", Quote(""))
}
