package rower

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-metrics"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockResolver struct {
	m mock.Mock
}

func (r *MockResolver) Resolve(_ context.Context, host string) (netip.Addr, error) {
	args := r.m.Called(host)
	return args.Get(0).(netip.Addr), args.Error(1)
}

// gopherServer is a loopback server answering one request per connection.
type gopherServer struct {
	ln   net.Listener
	port int

	lk       sync.Mutex
	requests []string
}

func startGopherServer(t *testing.T, handle func(req string, conn net.Conn)) *gopherServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := &gopherServer{
		ln:   ln,
		port: ln.Addr().(*net.TCPAddr).Port,
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				req, err := bufio.NewReader(conn).ReadString('\n')
				if err != nil {
					return
				}
				srv.lk.Lock()
				srv.requests = append(srv.requests, req)
				srv.lk.Unlock()
				handle(req, conn)
			}()
		}
	}()
	return srv
}

func (srv *gopherServer) Requests() []string {
	srv.lk.Lock()
	defer srv.lk.Unlock()
	return append([]string(nil), srv.requests...)
}

func reply(payload string) func(string, net.Conn) {
	return func(_ string, conn net.Conn) {
		_, _ = conn.Write([]byte(payload))
	}
}

func testLogHandler() slog.Handler {
	return slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	})
}

func newTestClient(t *testing.T, opts ...Option) (*Client, *metrics.InmemSink) {
	t.Helper()
	sink := metrics.NewInmemSink(time.Second, 5*time.Minute)
	base := []Option{
		WithLog(testLogHandler()),
		WithMetricSink(sink),
		WithAddressCache(NewAddressCache(4)),
		WithDialTimeout(2 * time.Second),
	}
	c, err := NewClient(append(base, opts...)...)
	require.NoError(t, err)
	return c, sink
}

// counterSum adds up every sample of the counter name, whatever its labels.
func counterSum(sink *metrics.InmemSink, name []string, labels ...metrics.Label) float64 {
	key := strings.Join(name, ".")
	var sum float64
	for _, interval := range sink.Data() {
		for k, v := range interval.Counters {
			if k != key && !strings.HasPrefix(k, key+";") {
				continue
			}
			matches := true
			for _, label := range labels {
				if !strings.Contains(k, ";"+label.Name+"="+label.Value) {
					matches = false
				}
			}
			if matches {
				sum += v.Sum
			}
		}
	}
	return sum
}

const sampleMenu = "iWelcome\t\terror.host\t1\r\n" +
	"1Docs\t/docs\tgopher.example\t70\r\n" +
	".\r\n"

func TestClient_Fetch(t *testing.T) {
	srv := startGopherServer(t, reply(sampleMenu))
	c, sink := newTestClient(t)

	payload, err := c.Fetch(context.Background(), "127.0.0.1", "/docs", srv.port)
	require.NoError(t, err)
	require.Equal(t, sampleMenu, payload.String())
	require.Equal(t, []string{"/docs\r\n"}, srv.Requests())

	require.Equal(t, 1.0, counterSum(sink, MetricRowerFetchCount))
	require.Equal(t, float64(len(sampleMenu)), counterSum(sink, MetricRowerFetchInBytes))
	require.Equal(t, 0.0, counterSum(sink, MetricRowerFetchErrorCount))
}

func TestClient_FetchChunked(t *testing.T) {
	big := strings.Repeat("0123456789abcdef", 512)
	srv := startGopherServer(t, reply(big))
	c, _ := newTestClient(t, WithChunkSize(100))

	payload, err := c.Fetch(context.Background(), "127.0.0.1", "/big", srv.port)
	require.NoError(t, err)
	require.Equal(t, len(big), payload.Len())
	require.Equal(t, big, payload.String())
}

func TestClient_GopherPlus(t *testing.T) {
	srv := startGopherServer(t, reply("+-1\r\n"))
	c, _ := newTestClient(t, WithGopherPlus(true))

	_, err := c.Fetch(context.Background(), "127.0.0.1", "/", srv.port)
	require.NoError(t, err)
	require.Equal(t, []string{"/\t+\r\n"}, srv.Requests())
}

func TestClient_Search(t *testing.T) {
	srv := startGopherServer(t, reply("0Result\t/r\th\t70\r\n"))
	c, _ := newTestClient(t)

	_, err := c.Search(context.Background(), "127.0.0.1", "/search", srv.port, "rfc 1436")
	require.NoError(t, err)
	require.Equal(t, []string{"/search\trfc 1436\r\n"}, srv.Requests())
}

func TestClient_AddressCacheHit(t *testing.T) {
	srv := startGopherServer(t, reply("hello"))

	resolver := &MockResolver{}
	resolver.m.On("Resolve", "gopher.test").Return(netip.MustParseAddr("127.0.0.1"), nil)

	cache := NewAddressCache(4)
	c, sink := newTestClient(t, WithResolver(resolver), WithAddressCache(cache))

	for i := 0; i < 3; i++ {
		payload, err := c.Fetch(context.Background(), "Gopher.Test.", "/", srv.port)
		require.NoError(t, err)
		require.Equal(t, "hello", payload.String())
	}

	resolver.m.AssertNumberOfCalls(t, "Resolve", 1)
	addr, ok := cache.Get("gopher.test")
	require.True(t, ok)
	require.Equal(t, netip.MustParseAddrPort("127.0.0.1:70"), addr)
	require.Equal(t, 1.0, counterSum(sink, MetricRowerCacheMissCount))
	require.Equal(t, 2.0, counterSum(sink, MetricRowerCacheHitCount))
}

func TestClient_ResolveFailure(t *testing.T) {
	resolver := &MockResolver{}
	resolver.m.On("Resolve", "nowhere.test").Return(netip.Addr{}, errors.New("no such host"))
	c, sink := newTestClient(t, WithResolver(resolver))

	payload, err := c.Fetch(context.Background(), "nowhere.test", "/", 70)
	require.ErrorIs(t, err, ErrResolve)
	require.Equal(t, StageResolve, StageOf(err))
	require.True(t, payload.IsEmpty())
	require.Equal(t, 0, c.AddressCache().Len(), "failures are not cached")
	require.Equal(t, 1.0, counterSum(sink, MetricRowerFetchErrorCount, LabelStage.M("resolve")))
}

func TestClient_ConnectFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	c, sink := newTestClient(t)
	payload, err := c.Fetch(context.Background(), "127.0.0.1", "/", port)
	require.ErrorIs(t, err, ErrConnect)
	require.True(t, payload.IsEmpty())
	require.Equal(t, 1.0, counterSum(sink, MetricRowerFetchErrorCount, LabelStage.M("connect")))

	_, err = c.Fetch(context.Background(), "127.0.0.1", "/", 0)
	require.ErrorIs(t, err, ErrConnect)
}

func TestClient_ReceiveTimeout(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	srv := startGopherServer(t, func(_ string, conn net.Conn) {
		_, _ = conn.Write([]byte("partial"))
		<-release
	})

	t.Run("read timeout", func(t *testing.T) {
		c, sink := newTestClient(t, WithReadTimeout(200*time.Millisecond))
		payload, err := c.Fetch(context.Background(), "127.0.0.1", "/", srv.port)
		require.ErrorIs(t, err, ErrReceive)
		require.True(t, payload.IsEmpty(), "partial data is discarded")
		require.Equal(t, 1.0, counterSum(sink, MetricRowerFetchErrorCount, LabelStage.M("receive")))
	})

	t.Run("context cancel", func(t *testing.T) {
		c, _ := newTestClient(t)
		ctx, cancel := context.WithCancel(context.Background())
		time.AfterFunc(200*time.Millisecond, cancel)

		payload, err := c.Fetch(ctx, "127.0.0.1", "/", srv.port)
		require.ErrorIs(t, err, ErrReceive)
		require.ErrorIs(t, err, context.Canceled)
		require.True(t, payload.IsEmpty())
	})
}

func TestClient_EmptyResponse(t *testing.T) {
	srv := startGopherServer(t, func(string, net.Conn) {})
	c, sink := newTestClient(t)

	payload, err := c.Fetch(context.Background(), "127.0.0.1", "/empty", srv.port)
	require.NoError(t, err, "an empty response is a success")
	require.True(t, payload.IsEmpty())
	require.Equal(t, 1.0, counterSum(sink, MetricRowerFetchCount))
}

func TestClient_DownloadToFile(t *testing.T) {
	body := strings.Repeat("\x00\x01binary", 300)
	srv := startGopherServer(t, reply(body))
	dir := t.TempDir()
	c, sink := newTestClient(t, WithDownloadDir(dir), WithGopherPlus(true))

	stale := filepath.Join(dir, "archive.tgz")
	require.NoError(t, os.WriteFile(stale, []byte(strings.Repeat("x", 10000)), 0o644))

	path, err := c.DownloadToFile(context.Background(), "127.0.0.1", "/files/archive.tgz", srv.port)
	require.NoError(t, err)
	require.Equal(t, stale, path)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, body, string(written), "existing files are truncated")
	require.Equal(t, []string{"/files/archive.tgz\r\n"}, srv.Requests(), "downloads never use Gopher+")
	require.Equal(t, 1.0, counterSum(sink, MetricRowerDownloadCount))
	require.Equal(t, float64(len(body)), counterSum(sink, MetricRowerDownloadBytes))
}

func TestClient_DownloadFailureRemovesFile(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	srv := startGopherServer(t, func(_ string, conn net.Conn) {
		_, _ = conn.Write([]byte("half"))
		<-release
	})

	dir := t.TempDir()
	c, _ := newTestClient(t, WithDownloadDir(dir), WithReadTimeout(200*time.Millisecond))

	_, err := c.DownloadToFile(context.Background(), "127.0.0.1", "/stalled.bin", srv.port)
	require.ErrorIs(t, err, ErrReceive)
	require.NoFileExists(t, filepath.Join(dir, "stalled.bin"))

	c2, _ := newTestClient(t, WithDownloadDir(filepath.Join(dir, "missing")))
	_, err = c2.DownloadToFile(context.Background(), "127.0.0.1", "/x", srv.port)
	require.ErrorIs(t, err, ErrDownloadFile, "the download directory is not created")
	require.Equal(t, StageFile, StageOf(err))
}

func TestClient_DownloadFailureKeepsExistingFile(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	dir := t.TempDir()
	existing := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(existing, []byte("previous good download"), 0o644))

	resolver := &MockResolver{}
	resolver.m.On("Resolve", "nowhere.test").Return(netip.Addr{}, errors.New("no such host"))
	c, _ := newTestClient(t, WithDownloadDir(dir), WithResolver(resolver))

	_, err = c.DownloadToFile(context.Background(), "127.0.0.1", "/docs/report.pdf", port)
	require.ErrorIs(t, err, ErrConnect)

	_, err = c.DownloadToFile(context.Background(), "nowhere.test", "/docs/report.pdf", 70)
	require.ErrorIs(t, err, ErrResolve)

	content, err := os.ReadFile(existing)
	require.NoError(t, err)
	require.Equal(t, "previous good download", string(content))
}

func TestDownloadFileName(t *testing.T) {
	tests := map[string]string{
		"/files/archive.tgz": "archive.tgz",
		"plain.txt":          "plain.txt",
		"/dir/":              "index",
		"":                   "index",
		"/up/..":             "index",
		"/q/find\tterm":      "find",
	}
	for in, want := range tests {
		require.Equal(t, want, DownloadFileName(in), "selector %q", in)
	}
}

func TestNewClient_InvalidOptions(t *testing.T) {
	_, err := NewClient(WithReadTimeout(-time.Second))
	require.ErrorIs(t, err, ErrInvalidCfg)

	_, err = NewClient(WithChunkSize(-1))
	require.ErrorIs(t, err, ErrInvalidCfg)

	c, err := NewClient(WithChunkSize(0), WithDialTimeout(0), WithResolver(nil))
	require.NoError(t, err)
	cfg := c.Config()
	require.Equal(t, 2048, cfg.ChunkSize)
	require.Equal(t, 30*time.Second, cfg.DialTimeout)
	require.IsType(t, &SystemResolver{}, cfg.Resolver)
	require.Same(t, SharedAddressCache(), c.AddressCache())
}
