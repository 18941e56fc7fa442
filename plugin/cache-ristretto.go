package plugin

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	Mt "github.com/maroda/midiassign/types"
)

const (
	DefaultCacheEntries = 100
	DefaultCacheTTL     = 10 * time.Minute
)

// AnalysisCache keeps channel analyses per document.
// Every entry costs 1, so MaxEntries bounds the entry count.
type AnalysisCache struct {
	Cache *ristretto.Cache[string, []Mt.ChannelAnalysis]
	TTL   time.Duration
}

func NewAnalysisCache(maxEntries int, ttl time.Duration) (*AnalysisCache, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, []Mt.ChannelAnalysis]{
		NumCounters:        int64(maxEntries) * 10,
		MaxCost:            int64(maxEntries),
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		slog.Error("AnalysisCache failed to start", slog.Any("error", err))
		return nil, fmt.Errorf("cache error: %w", err)
	}

	slog.Info("AnalysisCache started",
		slog.Int("maxEntries", maxEntries),
		slog.Duration("ttl", ttl))

	return &AnalysisCache{Cache: cache, TTL: ttl}, nil
}

func (ac *AnalysisCache) GetAnalyses(documentID string) ([]Mt.ChannelAnalysis, bool) {
	return ac.Cache.Get(documentID)
}

// SetAnalyses waits for the write to land so a following Get sees it.
// It returns false when the cache refused the entry.
func (ac *AnalysisCache) SetAnalyses(documentID string, analyses []Mt.ChannelAnalysis) bool {
	ok := ac.Cache.SetWithTTL(documentID, analyses, 1, ac.TTL)
	ac.Cache.Wait()
	return ok
}

func (ac *AnalysisCache) Invalidate(documentID string) {
	ac.Cache.Del(documentID)
}

func (ac *AnalysisCache) Close() {
	ac.Cache.Close()
}
