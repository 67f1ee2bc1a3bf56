package rower

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-metrics"
	"github.com/raskyld/rower/pkg/buffer"
)

// DefaultPort is the well-known Gopher port.
const DefaultPort = 70

// ClientConfig represents the configuration of a Client.
type ClientConfig struct {
	// GopherPlus appends the Gopher+ marker to every selector sent by Fetch.
	GopherPlus bool

	// DialTimeout bounds the TCP connection establishment.
	DialTimeout time.Duration

	// ReadTimeout bounds a whole response. Zero means a stalled server can
	// block a request until its context is done.
	ReadTimeout time.Duration

	// ChunkSize is the size of each read off the connection.
	ChunkSize int

	// DownloadDir is where DownloadToFile writes. It must exist.
	DownloadDir string

	// Resolver turns hostnames into addresses on a cache miss.
	Resolver Resolver

	// AddressCache remembers resolved hostnames.
	AddressCache *AddressCache

	// LogHandler to use for emitting structured logs.
	LogHandler slog.Handler

	// MetricSink to use for emitting metrics.
	MetricSink metrics.MetricSink

	// MetricLabels to add to every metric emitted by the client.
	MetricLabels []metrics.Label
}

// Option to pass to `NewClient`.
type Option func(*ClientConfig) error

// WithGopherPlus enables the Gopher+ request marker.
func WithGopherPlus(enabled bool) Option {
	return func(c *ClientConfig) error {
		c.GopherPlus = enabled
		return nil
	}
}

// WithDialTimeout controls how much time we are willing to wait for a
// server to accept the connection.
func WithDialTimeout(timeout time.Duration) Option {
	return func(c *ClientConfig) error {
		if timeout < 0 {
			return fmt.Errorf("negative dial timeout %s", timeout)
		}
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		c.DialTimeout = timeout
		return nil
	}
}

// WithReadTimeout bounds the time spent receiving a response. Zero disables
// the bound.
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *ClientConfig) error {
		if timeout < 0 {
			return fmt.Errorf("negative read timeout %s", timeout)
		}
		c.ReadTimeout = timeout
		return nil
	}
}

// WithChunkSize sets the size of each network read.
func WithChunkSize(size int) Option {
	return func(c *ClientConfig) error {
		if size < 0 {
			return fmt.Errorf("negative chunk size %d", size)
		}
		if size == 0 {
			size = buffer.DefaultSize
		}
		c.ChunkSize = size
		return nil
	}
}

// WithDownloadDir changes where DownloadToFile writes.
func WithDownloadDir(dir string) Option {
	return func(c *ClientConfig) error {
		if dir == "" {
			dir = DefaultDownloadDir()
		}
		c.DownloadDir = dir
		return nil
	}
}

// WithResolver sets the Resolver used on address cache misses.
func WithResolver(r Resolver) Option {
	return func(c *ClientConfig) error {
		if r == nil {
			r = &SystemResolver{}
		}
		c.Resolver = r
		return nil
	}
}

// WithDNSServer resolves hostnames by querying server directly instead of
// going through the system resolver.
func WithDNSServer(server string) Option {
	return func(c *ClientConfig) error {
		if server == "" {
			c.Resolver = &SystemResolver{}
			return nil
		}
		r, err := NewDNSResolver(server)
		if err != nil {
			return err
		}
		c.Resolver = r
		return nil
	}
}

// WithAddressCache shares cache between clients. Without it, the client
// uses SharedAddressCache.
func WithAddressCache(cache *AddressCache) Option {
	return func(c *ClientConfig) error {
		c.AddressCache = cache
		return nil
	}
}

// WithLog specifies which `slog.Handler` to use.
func WithLog(handler slog.Handler) Option {
	return func(c *ClientConfig) error {
		c.LogHandler = handler
		return nil
	}
}

// WithMetricSink allows you to chose how to collect the metrics emitted by
// the client.
func WithMetricSink(ms metrics.MetricSink) Option {
	return func(c *ClientConfig) error {
		if ms == nil {
			ms = &metrics.BlackholeSink{}
		}
		c.MetricSink = ms
		return nil
	}
}

// WithMetricLabels adds static labels to all metrics produced by the client.
func WithMetricLabels(labels []metrics.Label) Option {
	return func(c *ClientConfig) error {
		c.MetricLabels = labels
		return nil
	}
}

// DefaultDownloadDir returns $HOME/Downloads, or ./Downloads when the home
// directory is unknown.
func DefaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "Downloads"
	}
	return filepath.Join(home, "Downloads")
}
