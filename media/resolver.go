package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTTL is how long fetched media stays cached.
const DefaultTTL = 3 * time.Hour

// Fetcher dereferences a remote URL into its full byte payload. Platform
// sessions implement this so platform-specific URL schemes resolve through
// the federation client.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

// Resolver turns remote media URLs into inline base64 data URLs, caching the
// raw bytes under the normalized URL.
type Resolver struct {
	Cache   Cache
	Fetcher Fetcher
	TTL     time.Duration
	Log     zerolog.Logger
}

func NewResolver(cache Cache, fetcher Fetcher, log zerolog.Logger) *Resolver {
	return &Resolver{Cache: cache, Fetcher: fetcher, TTL: DefaultTTL, Log: log}
}

// InlineImage resolves rawURL into a data URL. Cache hits skip the network;
// on a miss the payload is fetched in full and stored best-effort (a failed
// store only logs). A fetch failure is returned to the caller, which treats
// it as "no image available".
//
// The data URL is labeled image/jpeg regardless of the source's actual
// content type. Multimodal backends accept common image formats under this
// label in practice, but genuinely non-JPEG sources are mislabeled; kept
// as-is for compatibility with existing consumers.
func (r *Resolver) InlineImage(ctx context.Context, rawURL string) (string, error) {
	key := normalizeKey(rawURL)

	if data, ok := r.Cache.Get(key); ok {
		return encodeDataURL(data), nil
	}

	data, err := r.Fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}

	ttl := r.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := r.Cache.Set(key, data, ttl); err != nil {
		r.Log.Warn().Err(err).Str("url", rawURL).Msg("Failed to cache media; continuing with fetched bytes")
	}

	return encodeDataURL(data), nil
}

func encodeDataURL(data []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data)
}

func normalizeKey(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return parsed.String()
}
