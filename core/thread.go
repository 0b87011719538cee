package core

import "context"

// BuildThread reconstructs the ancestor chain of msg by following reply
// targets up to the thread root and returns it oldest-first, ending with msg
// itself. When the chain is longer than maxDepth messages, the oldest
// ancestors are truncated so the most recent maxDepth remain. A failure to
// dereference an ancestor ends the walk at that point instead of failing;
// the messages gathered so far are kept.
func BuildThread(ctx context.Context, msg Message, maxDepth int) []Message {
	thread := []Message{msg}
	current := msg
	for maxDepth <= 0 || len(thread) < maxDepth {
		parent, err := current.ReplyTarget(ctx)
		if err != nil || parent == nil {
			break
		}
		thread = append(thread, parent)
		current = parent
	}

	// Walked newest to oldest; the context wants it the other way around.
	for i, j := 0, len(thread)-1; i < j; i, j = i+1, j-1 {
		thread[i], thread[j] = thread[j], thread[i]
	}
	return thread
}
