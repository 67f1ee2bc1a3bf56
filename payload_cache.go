package rower

import (
	"context"
	"log/slog"

	"github.com/hashicorp/go-metrics"
	lru "github.com/hashicorp/golang-lru"
	"github.com/raskyld/rower/pkg/buffer"
	"github.com/raskyld/rower/pkg/gopher"
)

const defaultPayloadCacheSize = 128

// PayloadCache keeps the most recently fetched payloads in memory.
//
// It wraps a Fetcher, typically the Client used to prefetch menu images, so
// that going back to a menu does not download its images again. Callers own
// the buffers it returns: entries are cloned on the way in and out.
type PayloadCache struct {
	next   gopher.Fetcher
	lru    *lru.Cache
	logger *slog.Logger
	msink  metrics.MetricSink
	labels []metrics.Label
}

var _ gopher.Fetcher = (*PayloadCache)(nil)

// NewPayloadCache caches up to size payloads fetched through next.
func NewPayloadCache(next gopher.Fetcher, size int, opts ...Option) (*PayloadCache, error) {
	if size <= 0 {
		size = defaultPayloadCacheSize
	}

	cfg := ClientConfig{}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}

	pc := &PayloadCache{
		next:   next,
		lru:    cache,
		labels: cfg.MetricLabels,
	}

	if cfg.LogHandler == nil {
		pc.logger = slog.Default()
	} else {
		pc.logger = slog.New(cfg.LogHandler)
	}
	pc.logger = pc.logger.With("component", "payload_cache")

	if cfg.MetricSink == nil {
		pc.msink = metrics.Default()
	} else {
		pc.msink = cfg.MetricSink
	}

	return pc, nil
}

func (pc *PayloadCache) Fetch(ctx context.Context, host, selector string, port int) (buffer.ByteBuffer, error) {
	key := hostPort(normalizeHost(host), port) + selector

	if cached, ok := pc.lru.Get(key); ok {
		pc.msink.IncrCounterWithLabels(
			MetricRowerPrefetchCount,
			1.0,
			withLabels(pc.labels, LabelCache.M("hit")),
		)
		payload := cached.(buffer.ByteBuffer)
		return payload.Clone(), nil
	}

	payload, err := pc.next.Fetch(ctx, host, selector, port)
	if err != nil {
		return payload, err
	}

	pc.msink.IncrCounterWithLabels(
		MetricRowerPrefetchCount,
		1.0,
		withLabels(pc.labels, LabelCache.M("miss")),
	)
	if evicted := pc.lru.Add(key, payload.Clone()); evicted {
		pc.logger.Debug("payload evicted", "size", pc.lru.Len())
	}
	return payload, nil
}

// Len returns the number of payloads held.
func (pc *PayloadCache) Len() int {
	return pc.lru.Len()
}

// Purge drops every payload.
func (pc *PayloadCache) Purge() {
	pc.lru.Purge()
}
