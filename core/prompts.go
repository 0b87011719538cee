package core

import (
	"context"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

//go:embed prompts/*.txt
var promptFS embed.FS

// Fallback literals for optional values that could not be resolved. The
// lowercase form is reserved for handle resolution failures, the capitalized
// one for missing profile fields.
const (
	HandleNotAvailable = "not available"
	FieldNotAvailable  = "Not available."
)

// PromptSet holds the four templates the engine renders. Placeholders use
// the {name} form and are substituted verbatim, without escaping; untrusted
// values are sanitized and quoted by the callers before substitution.
type PromptSet struct {
	System   string
	Follow   string
	Mention  string
	Reaction string
}

// LoadPrompts returns the embedded templates, with any template overridden
// by a same-named .txt file in dir when dir is non-empty.
func LoadPrompts(dir string) (*PromptSet, error) {
	load := func(name string) (string, error) {
		if dir != "" {
			data, err := os.ReadFile(filepath.Join(dir, name+".txt"))
			if err == nil {
				return string(data), nil
			}
			if !os.IsNotExist(err) {
				return "", fmt.Errorf("failed to read prompt %s: %w", name, err)
			}
		}
		data, err := promptFS.ReadFile("prompts/" + name + ".txt")
		if err != nil {
			return "", fmt.Errorf("missing embedded prompt %s: %w", name, err)
		}
		return string(data), nil
	}

	var set PromptSet
	var err error
	if set.System, err = load("system"); err != nil {
		return nil, err
	}
	if set.Follow, err = load("follow"); err != nil {
		return nil, err
	}
	if set.Mention, err = load("mention"); err != nil {
		return nil, err
	}
	if set.Reaction, err = load("reaction"); err != nil {
		return nil, err
	}
	return &set, nil
}

// Render substitutes {name} placeholders in tmpl with the given values.
// Placeholders without a value pass through untouched.
func Render(tmpl string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// ResolveHandleOrFallback attempts protocol-level handle resolution and
// degrades to the fixed fallback literal on any failure. It never propagates
// the underlying error.
func ResolveHandleOrFallback(ctx context.Context, actor Actor) string {
	handle, err := actor.ResolveHandle(ctx)
	if err != nil || handle == "" {
		return HandleNotAvailable
	}
	return handle
}
