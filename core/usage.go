package core

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type UsageConfig struct {
	FilePath string `toml:"file_path"`
}

// UsageTracker accumulates model token usage per remote actor, persisted as
// a JSON file. Writes are batched through a dirty flag and flushed by an
// autosave loop, so recording usage stays cheap on the event path.
type UsageTracker struct {
	mu       sync.RWMutex
	tokens   map[string]int
	filePath string
	dirty    bool
	log      zerolog.Logger
}

func NewUsageTracker(filePath string, log zerolog.Logger) *UsageTracker {
	ut := &UsageTracker{
		tokens:   make(map[string]int),
		filePath: filePath,
		log:      log,
	}
	ut.loadFromFile()
	go ut.autoSaveLoop()
	return ut
}

func (ut *UsageTracker) autoSaveLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	for range ticker.C {
		ut.mu.Lock()
		if ut.dirty {
			ut.saveLocked()
			ut.dirty = false
		}
		ut.mu.Unlock()
	}
}

func (ut *UsageTracker) loadFromFile() {
	data, err := os.ReadFile(ut.filePath)
	if err != nil {
		return
	}
	ut.mu.Lock()
	defer ut.mu.Unlock()
	if err := json.Unmarshal(data, &ut.tokens); err != nil {
		ut.log.Warn().Err(err).Str("path", ut.filePath).Msg("Ignoring unreadable usage file")
	}
}

func (ut *UsageTracker) saveLocked() {
	data, err := json.Marshal(ut.tokens)
	if err != nil {
		ut.log.Error().Err(err).Msg("Failed to marshal usage data")
		return
	}
	if err := os.WriteFile(ut.filePath, data, 0o600); err != nil {
		ut.log.Error().Err(err).Str("path", ut.filePath).Msg("Failed to save usage file")
	}
}

// Record adds tokens to the actor's running total.
func (ut *UsageTracker) Record(actorID string, tokens int) {
	ut.mu.Lock()
	defer ut.mu.Unlock()
	ut.tokens[actorID] += tokens
	ut.dirty = true
}

// Total returns the tokens recorded for the actor so far.
func (ut *UsageTracker) Total(actorID string) int {
	ut.mu.RLock()
	defer ut.mu.RUnlock()
	return ut.tokens[actorID]
}

// ForceSave flushes pending usage to disk immediately.
func (ut *UsageTracker) ForceSave() {
	ut.mu.Lock()
	defer ut.mu.Unlock()
	ut.saveLocked()
	ut.dirty = false
}
