package rower

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-metrics"
	"github.com/raskyld/rower/pkg/buffer"
	"github.com/raskyld/rower/pkg/flow"
	"github.com/raskyld/rower/pkg/gopher"
)

// Page is the outcome of one navigation.
//
// Exactly one of Menu, Text and Raw is set, depending on the locator type.
// A page stays valid until the next navigation completes.
type Page struct {
	Locator gopher.Locator

	// Address is the locator as typed back to the user.
	Address []byte
	// Lines holds one rendered row per menu entity.
	Lines [][]byte

	Menu *gopher.Menu
	Text buffer.TextBuilder
	Raw  buffer.ByteBuffer

	arena *buffer.ScratchArena
}

// Empty reports whether the server sent nothing for this page.
func (p *Page) Empty() bool {
	return p.Menu == nil && p.Text.Len() == 0 && p.Raw.Len() == 0
}

// Released reports whether the navigator reclaimed the page.
func (p *Page) Released() bool {
	return p.arena.Released()
}

func (p *Page) release() {
	if p.Menu != nil {
		p.Menu.Release()
	}
	p.Text.Release()
	p.Raw.Release()
	p.arena.Release()
}

type navigatorConfig struct {
	pages       flow.Sender[*Page]
	prefetcher  gopher.Fetcher
	noPrefetch  bool
	concurrency int
	logHandler  slog.Handler
	msink       metrics.MetricSink
	labels      []metrics.Label
}

// NavigatorOption to pass to `NewNavigator`.
type NavigatorOption func(*navigatorConfig) error

// WithPageFlow hands every completed page to pages. The navigator closes
// the flow when it is closed.
func WithPageFlow(pages flow.Sender[*Page]) NavigatorOption {
	return func(c *navigatorConfig) error {
		c.pages = pages
		return nil
	}
}

// WithPrefetcher changes how menu images are prefetched. A nil Fetcher
// disables prefetching. By default, images go through the navigation Fetcher.
func WithPrefetcher(f gopher.Fetcher) NavigatorOption {
	return func(c *navigatorConfig) error {
		c.prefetcher = f
		c.noPrefetch = f == nil
		return nil
	}
}

// WithPrefetchConcurrency bounds how many images of a menu are prefetched
// at the same time.
func WithPrefetchConcurrency(n int) NavigatorOption {
	return func(c *navigatorConfig) error {
		if n < 0 {
			return fmt.Errorf("negative prefetch concurrency %d", n)
		}
		c.concurrency = n
		return nil
	}
}

// WithNavigatorLog specifies which `slog.Handler` to use.
func WithNavigatorLog(handler slog.Handler) NavigatorOption {
	return func(c *navigatorConfig) error {
		c.logHandler = handler
		return nil
	}
}

// WithNavigatorMetrics sets the sink and static labels of navigation
// metrics.
func WithNavigatorMetrics(ms metrics.MetricSink, labels []metrics.Label) NavigatorOption {
	return func(c *navigatorConfig) error {
		if ms == nil {
			ms = &metrics.BlackholeSink{}
		}
		c.msink = ms
		c.labels = labels
		return nil
	}
}

// Navigator runs the fetch then parse pipeline of a browsing session.
//
// One navigation runs at a time. Each one gets its own ScratchArena, and the
// page of the previous navigation is released only once the new page is in
// place, so a consumer still rendering it is not invalidated mid-use.
type Navigator struct {
	fetcher gopher.Fetcher
	parser  *gopher.Parser
	pages   flow.Sender[*Page]
	logger  *slog.Logger
	msink   metrics.MetricSink
	labels  []metrics.Label

	loading atomic.Bool
	closed  atomic.Bool

	lk      sync.Mutex
	current *Page
}

func NewNavigator(fetcher gopher.Fetcher, opts ...NavigatorOption) (*Navigator, error) {
	cfg := navigatorConfig{}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCfg, err)
		}
	}

	nav := &Navigator{
		fetcher: fetcher,
		pages:   cfg.pages,
		labels:  cfg.labels,
	}

	if cfg.logHandler == nil {
		nav.logger = slog.Default()
	} else {
		nav.logger = slog.New(cfg.logHandler)
	}
	nav.logger = nav.logger.With("component", "navigator")

	if cfg.msink == nil {
		nav.msink = metrics.Default()
	} else {
		nav.msink = cfg.msink
	}

	parserOpts := []gopher.ParserOption{
		gopher.WithPrefetchConcurrency(cfg.concurrency),
	}
	if cfg.logHandler != nil {
		parserOpts = append(parserOpts, gopher.WithLogger(cfg.logHandler))
	}
	switch {
	case cfg.noPrefetch:
	case cfg.prefetcher != nil:
		parserOpts = append(parserOpts, gopher.WithFetcher(cfg.prefetcher))
	default:
		parserOpts = append(parserOpts, gopher.WithFetcher(fetcher))
	}

	parser, err := gopher.NewParser(parserOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCfg, err)
	}
	nav.parser = parser

	return nav, nil
}

// NavigateTo parses address as a locator and navigates to it.
func (nav *Navigator) NavigateTo(ctx context.Context, address string) (*Page, error) {
	loc, err := gopher.ParseLocator(address)
	if err != nil {
		return nil, err
	}
	return nav.Navigate(ctx, loc)
}

// Follow navigates to the resource a menu entity points at.
func (nav *Navigator) Follow(ctx context.Context, ent *gopher.Entity) (*Page, error) {
	return nav.Navigate(ctx, ent.Locator())
}

// Search sends query to the index server ent points at. Results are
// interpreted as a menu.
func (nav *Navigator) Search(ctx context.Context, ent *gopher.Entity, query string) (*Page, error) {
	loc := ent.Locator()
	loc.Type = gopher.TypeMenu
	loc.Selector = ent.SearchSelector(query)
	return nav.Navigate(ctx, loc)
}

// Navigate fetches loc and interprets the payload according to its type.
//
// It fails with ErrNavigationInProgress when another navigation has not
// completed yet. On failure the current page is left untouched.
func (nav *Navigator) Navigate(ctx context.Context, loc gopher.Locator) (*Page, error) {
	if nav.closed.Load() {
		return nil, ErrNavigatorClosed
	}
	if !nav.loading.CompareAndSwap(false, true) {
		return nil, ErrNavigationInProgress
	}
	defer nav.loading.Store(false)

	logger := nav.logger.With("locator", loc.String())
	arena := buffer.NewScratchArena()

	payload, err := nav.fetcher.Fetch(ctx, loc.Host, loc.Selector, loc.Port)
	if err != nil {
		arena.Release()
		logger.Warn("navigation failed", LabelError.L(err))
		return nil, err
	}

	page := &Page{
		Locator: loc,
		Address: arena.Add([]byte(loc.String())),
		arena:   arena,
	}

	switch {
	case payload.Len() == 0:
		payload.Release()
		logger.Warn("empty page")
	case loc.Type.IsText():
		page.Text = gopher.ParseTextFile(payload.Bytes())
		payload.Release()
	case loc.Type.IsMenu():
		page.Menu = nav.parser.ParseMenu(ctx, payload.Bytes())
		payload.Release()
		page.Lines = make([][]byte, 0, page.Menu.Len())
		for _, ent := range page.Menu.All() {
			page.Lines = append(page.Lines, arena.Add(renderEntity(ent)))
		}
	default:
		page.Raw = payload
	}

	nav.lk.Lock()
	prev := nav.current
	nav.current = page
	nav.lk.Unlock()

	if nav.pages != nil {
		if err := nav.pages.Send(ctx, page); err != nil {
			logger.Warn("page not handed off", LabelError.L(err))
		}
	}

	if prev != nil {
		prev.release()
	}

	nav.msink.IncrCounterWithLabels(
		MetricRowerNavigationCount,
		1.0,
		withLabels(nav.labels, LabelEntityType.M(loc.Type.String())),
	)
	logger.Debug("navigation completed")
	return page, nil
}

// Current returns the page of the last successful navigation, if any.
func (nav *Navigator) Current() *Page {
	nav.lk.Lock()
	defer nav.lk.Unlock()
	return nav.current
}

// Close releases the current page and closes the page flow.
func (nav *Navigator) Close() error {
	if !nav.closed.CompareAndSwap(false, true) {
		return nil
	}

	nav.lk.Lock()
	cur := nav.current
	nav.current = nil
	nav.lk.Unlock()

	var err error
	if nav.pages != nil {
		err = nav.pages.Close()
	}
	if cur != nil {
		cur.release()
	}
	return err
}

// renderEntity formats the row shown for ent in a menu listing.
func renderEntity(ent *gopher.Entity) []byte {
	if ent.Type == gopher.TypeInfo {
		return []byte(ent.DisplayName.String())
	}

	row := buffer.NewTextBuilderWithContents("[")
	row.AppendContents(ent.Description())
	row.AppendContents("] ")
	row.AppendContents(ent.DisplayName.String())
	defer row.Release()
	return append([]byte(nil), row.Bytes()...)
}
