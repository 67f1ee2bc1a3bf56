package rower

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/netip"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-metrics"
	"github.com/raskyld/rower/pkg/buffer"
	"github.com/raskyld/rower/pkg/gopher"
)

// Client retrieves Gopher resources over TCP.
//
// Every request opens its own connection, sends the selector and reads until
// the server closes the connection. There are no retries: the first failure
// aborts the request and discards what was received so far.
//
// A Client is safe for concurrent use.
type Client struct {
	cfg    ClientConfig
	logger *slog.Logger
	msink  metrics.MetricSink
	cache  *AddressCache
}

var _ gopher.Fetcher = (*Client)(nil)

func NewClient(opts ...Option) (*Client, error) {
	cfg := ClientConfig{
		DialTimeout: 30 * time.Second,
		ChunkSize:   buffer.DefaultSize,
	}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCfg, err)
		}
	}

	if cfg.DownloadDir == "" {
		cfg.DownloadDir = DefaultDownloadDir()
	}
	if cfg.Resolver == nil {
		cfg.Resolver = &SystemResolver{}
	}

	c := &Client{cfg: cfg}

	if cfg.LogHandler == nil {
		c.logger = slog.Default()
	} else {
		c.logger = slog.New(cfg.LogHandler)
	}
	c.logger = c.logger.With("component", "client")

	if cfg.MetricSink == nil {
		c.msink = metrics.Default()
	} else {
		c.msink = cfg.MetricSink
	}

	if cfg.AddressCache == nil {
		c.cache = SharedAddressCache()
	} else {
		c.cache = cfg.AddressCache
	}

	return c, nil
}

// AddressCache returns the cache the client resolves through.
func (c *Client) AddressCache() *AddressCache {
	return c.cache
}

// Config returns a copy of the effective configuration.
func (c *Client) Config() ClientConfig {
	return c.cfg
}

// Fetch retrieves the resource at selector.
//
// On failure, the returned buffer is the canonical empty buffer and the
// error wraps one of ErrResolve, ErrNoAddress, ErrConnect, ErrSend or
// ErrReceive. A successful fetch may also return an empty buffer when the
// server sent nothing.
func (c *Client) Fetch(ctx context.Context, host, selector string, port int) (buffer.ByteBuffer, error) {
	logger := c.logger.With(
		LabelHost.L(host),
		LabelPort.L(port),
		LabelSelector.L(selector),
	)

	var payload buffer.ByteBuffer
	n, err := c.request(ctx, logger, host, selector, port, c.cfg.GopherPlus, func(chunk []byte) error {
		payload.Append(chunk)
		return nil
	})
	if err != nil {
		payload.Release()
		c.reportError(logger, host, err)
		return buffer.ByteBuffer{}, err
	}

	mLabels := withLabels(c.cfg.MetricLabels, LabelHost.M(host))
	c.msink.IncrCounterWithLabels(MetricRowerFetchCount, 1.0, mLabels)
	c.msink.IncrCounterWithLabels(MetricRowerFetchInBytes, float32(n), mLabels)

	if n == 0 {
		logger.Warn("server returned no data")
	} else {
		logger.Debug("fetched payload", "bytes", n)
	}
	return payload, nil
}

// Search queries the index server at selector.
func (c *Client) Search(ctx context.Context, host, selector string, port int, query string) (buffer.ByteBuffer, error) {
	return c.Fetch(ctx, host, gopher.SearchSelector(selector, query), port)
}

// DownloadToFile streams the resource at selector into a file of the
// download directory named after the last segment of selector. The path
// written is returned.
//
// The file is opened once the request is sent, so a resolve or connect
// failure leaves an existing file untouched. Past that point an existing
// file is truncated, and removed if the transfer fails.
//
// The Gopher+ marker is never sent for downloads.
func (c *Client) DownloadToFile(ctx context.Context, host, selector string, port int) (string, error) {
	path := filepath.Join(c.cfg.DownloadDir, DownloadFileName(selector))
	logger := c.logger.With(
		LabelHost.L(host),
		LabelPort.L(port),
		LabelSelector.L(selector),
		"path", path,
	)

	ex, err := c.open(ctx, logger, host, selector, port, false)
	if err != nil {
		c.reportError(logger, host, err)
		return "", err
	}
	defer ex.Close()

	f, err := os.Create(path)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrDownloadFile, err)
		c.reportError(logger, host, err)
		return "", err
	}

	n, err := ex.receive(ctx, func(chunk []byte) error {
		if _, err := f.Write(chunk); err != nil {
			return fmt.Errorf("%w: %w", ErrDownloadFile, err)
		}
		return nil
	})
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("%w: %w", ErrDownloadFile, closeErr)
	}
	if err != nil {
		_ = os.Remove(path)
		c.reportError(logger, host, err)
		return "", err
	}

	mLabels := withLabels(c.cfg.MetricLabels, LabelHost.M(host))
	c.msink.IncrCounterWithLabels(MetricRowerDownloadCount, 1.0, mLabels)
	c.msink.IncrCounterWithLabels(MetricRowerDownloadBytes, float32(n), mLabels)

	if n == 0 {
		logger.Warn("server returned no data")
	}
	logger.Info("file downloaded", "bytes", n)
	return path, nil
}

// DownloadFileName returns the name a download of selector is saved under.
func DownloadFileName(selector string) string {
	name := selector
	if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
		name = name[idx+1:]
	}
	if idx := strings.IndexByte(name, '\t'); idx >= 0 {
		name = name[:idx]
	}
	if name == "" || name == "." || name == ".." || strings.ContainsRune(name, filepath.Separator) {
		return "index"
	}
	return name
}

// request runs one request/response exchange, handing every chunk received
// to sink. It returns the number of bytes received.
func (c *Client) request(
	ctx context.Context,
	logger *slog.Logger,
	host, selector string,
	port int,
	gopherPlus bool,
	sink func([]byte) error,
) (int, error) {
	ex, err := c.open(ctx, logger, host, selector, port, gopherPlus)
	if err != nil {
		return 0, err
	}
	defer ex.Close()
	return ex.receive(ctx, sink)
}

// exchange is a connection whose request has been sent.
type exchange struct {
	conn      net.Conn
	stop      func() bool
	chunkSize int
}

// open resolves host, connects and sends the request line.
func (c *Client) open(
	ctx context.Context,
	logger *slog.Logger,
	host, selector string,
	port int,
	gopherPlus bool,
) (*exchange, error) {
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("%w: invalid port %d", ErrConnect, port)
	}

	addr, err := c.resolve(ctx, logger, host)
	if err != nil {
		return nil, err
	}

	conn, err := c.dial(ctx, netip.AddrPortFrom(addr, uint16(port)))
	if err != nil {
		return nil, err
	}

	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	} else if c.cfg.ReadTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(c.cfg.ReadTimeout))
	}
	ex := &exchange{
		conn: conn,
		stop: context.AfterFunc(ctx, func() {
			_ = conn.SetDeadline(time.Now())
		}),
		chunkSize: c.cfg.ChunkSize,
	}

	req := buffer.NewTextBuilderWithContents(selector)
	if gopherPlus {
		req.AppendContents("\t+")
	}
	req.AppendContents("\r\n")
	_, err = conn.Write(req.Bytes())
	req.Release()
	if err != nil {
		ex.Close()
		return nil, fmt.Errorf("%w: %w", ErrSend, contextCause(ctx, err))
	}
	return ex, nil
}

// receive reads until the server closes the connection.
func (ex *exchange) receive(ctx context.Context, sink func([]byte) error) (int, error) {
	chunk := make([]byte, ex.chunkSize)
	total := 0
	for {
		n, err := ex.conn.Read(chunk)
		if n > 0 {
			total += n
			if sinkErr := sink(chunk[:n]); sinkErr != nil {
				return total, sinkErr
			}
		}
		if errors.Is(err, io.EOF) {
			return total, nil
		}
		if err != nil {
			return total, fmt.Errorf("%w: %w", ErrReceive, contextCause(ctx, err))
		}
	}
}

func (ex *exchange) Close() {
	ex.stop()
	_ = ex.conn.Close()
}

func (c *Client) resolve(ctx context.Context, logger *slog.Logger, host string) (netip.Addr, error) {
	name := normalizeHost(host)
	if name == "" {
		return netip.Addr{}, fmt.Errorf("%w: empty host", ErrResolve)
	}

	mLabels := withLabels(c.cfg.MetricLabels, LabelHost.M(name))
	if cached, ok := c.cache.Get(name); ok {
		logger.Debug("address cache hit", LabelAddr.L(cached.Addr().String()))
		c.msink.IncrCounterWithLabels(MetricRowerCacheHitCount, 1.0, mLabels)
		return cached.Addr(), nil
	}

	logger.Debug("address cache miss")
	c.msink.IncrCounterWithLabels(MetricRowerCacheMissCount, 1.0, mLabels)

	addr, err := c.cfg.Resolver.Resolve(ctx, name)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: %s: %w", ErrResolve, name, err)
	}
	if !addr.IsValid() {
		return netip.Addr{}, fmt.Errorf("%w: %s", ErrNoAddress, name)
	}

	c.cache.Add(name, netip.AddrPortFrom(addr, DefaultPort))
	c.msink.SetGaugeWithLabels(MetricRowerCacheEntries, float32(c.cache.Len()), c.cfg.MetricLabels)
	return addr, nil
}

func (c *Client) dial(ctx context.Context, addr netip.AddrPort) (net.Conn, error) {
	dialer := net.Dialer{Timeout: c.cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConnect, addr, err)
	}
	return conn, nil
}

func (c *Client) reportError(logger *slog.Logger, host string, err error) {
	stage := StageOf(err)
	logger.Error("request failed",
		LabelStage.L(stage.String()),
		LabelError.L(err),
	)
	c.msink.IncrCounterWithLabels(
		MetricRowerFetchErrorCount,
		1.0,
		withLabels(c.cfg.MetricLabels,
			LabelHost.M(host),
			LabelStage.M(stage.String()),
		),
	)
}

// contextCause prefers the context error over the i/o timeout it provoked.
func contextCause(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

func hostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
