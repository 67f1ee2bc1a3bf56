package gopher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/raskyld/rower/pkg/buffer"
	"golang.org/x/sync/errgroup"
)

// Field defaults used when a directory line is short.
const (
	DefaultDisplayName = "Undefined Name"
	DefaultSelector    = "/"
	DefaultHost        = "error.host"
	DefaultPort        = 70

	defaultPortText = "70"
)

// fieldCount is the number of logical fields of a directory line.
const fieldCount = 5

// menuGrowth is both the initial capacity of a menu and its growth step.
const menuGrowth = 32

var ErrInvalidParserCfg = errors.New("parser: invalid configuration")

// Fetcher retrieves the payload behind a selector.
//
// The parser uses it to prefetch image-like entities. A Fetcher returning an
// error leaves the entity without a prefetched payload.
type Fetcher interface {
	Fetch(ctx context.Context, host, selector string, port int) (buffer.ByteBuffer, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, host, selector string, port int) (buffer.ByteBuffer, error)

func (f FetcherFunc) Fetch(ctx context.Context, host, selector string, port int) (buffer.ByteBuffer, error) {
	return f(ctx, host, selector, port)
}

type parserConfig struct {
	fetcher     Fetcher
	logHandler  slog.Handler
	concurrency int
}

// ParserOption configures a Parser.
type ParserOption func(*parserConfig) error

// WithFetcher enables the prefetch of image-like entities through f.
// Without it, entities never carry a prefetched payload.
func WithFetcher(f Fetcher) ParserOption {
	return func(c *parserConfig) error {
		c.fetcher = f
		return nil
	}
}

// WithLogger specifies which `slog.Handler` to use.
func WithLogger(handler slog.Handler) ParserOption {
	return func(c *parserConfig) error {
		c.logHandler = handler
		return nil
	}
}

// WithPrefetchConcurrency allows up to n prefetches to run at the same time
// once the whole menu is parsed. With n <= 1, each entity is prefetched as
// soon as it is parsed.
func WithPrefetchConcurrency(n int) ParserOption {
	return func(c *parserConfig) error {
		if n < 0 {
			return fmt.Errorf("%w: negative prefetch concurrency %d", ErrInvalidParserCfg, n)
		}
		c.concurrency = n
		return nil
	}
}

// Parser turns raw directory payloads into entities.
//
// Parsing never fails: malformed lines are completed with defaults.
type Parser struct {
	fetcher     Fetcher
	logger      *slog.Logger
	concurrency int
}

func NewParser(opts ...ParserOption) (*Parser, error) {
	cfg := &parserConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	var logger *slog.Logger
	if cfg.logHandler == nil {
		logger = slog.Default()
	} else {
		logger = slog.New(cfg.logHandler)
	}

	return &Parser{
		fetcher:     cfg.fetcher,
		logger:      logger.With("component", "parser"),
		concurrency: cfg.concurrency,
	}, nil
}

// ParseEntity reads one directory line from tz.
//
// The returned boolean reports whether the end of the source was seen while
// reading it.
func (p *Parser) ParseEntity(ctx context.Context, tz *Tokenizer) (Entity, bool) {
	ent, reachedEnd := p.parseEntity(tz)
	if ent.Type.IsImage() && p.concurrency <= 1 {
		p.prefetch(ctx, &ent)
	}
	return ent, reachedEnd
}

func (p *Parser) parseEntity(tz *Tokenizer) (Entity, bool) {
	var (
		fields     [fieldCount]buffer.TextBuilder
		reachedEnd bool
		stop       = fieldCount
	)

	for i := 0; i < fieldCount; i++ {
		tok := tz.Next()
		if IsEOF(&tok) {
			reachedEnd = true
			stop = i
			break
		}
		if isRecordEnd(&tok) {
			stop = i
			break
		}
		fields[i] = tok
	}

	// Extra fields of an over-long line are dropped.
	if stop == fieldCount {
		for {
			tok := tz.Next()
			if IsEOF(&tok) {
				reachedEnd = true
				break
			}
			if isRecordEnd(&tok) {
				break
			}
		}
	}

	for i := stop; i < fieldCount; i++ {
		switch i {
		case 1:
			fields[i] = buffer.NewTextBuilderWithContents(DefaultDisplayName)
		case 2:
			fields[i] = buffer.NewTextBuilderWithContents(DefaultSelector)
		case 3:
			fields[i] = buffer.NewTextBuilderWithContents(DefaultHost)
		case 4:
			fields[i] = buffer.NewTextBuilderWithContents(defaultPortText)
		}
	}

	typ := TypeUnknown
	if fields[0].Len() > 0 {
		typ = EntityType(fields[0].Bytes()[0])
	}

	ent := Entity{
		Type:        typ,
		DisplayName: buffer.NewTextViewFromBuilder(&fields[1]),
		Selector:    buffer.NewTextViewFromBuilder(&fields[2]),
		Host:        buffer.NewTextViewFromBuilder(&fields[3]),
		Port:        parsePort(fields[4].Bytes()),
	}
	for i := range fields {
		fields[i].Release()
	}

	return ent, reachedEnd
}

// ParseMenu parses a whole directory payload.
//
// Parsing stops at the line made of a single dot that closes a menu. The
// result holds at least one entity, even for an empty source.
func (p *Parser) ParseMenu(ctx context.Context, source []byte) *Menu {
	menu := &Menu{entities: make([]Entity, 0, menuGrowth)}
	tz := NewTokenizer(source)

	for {
		start := tz.Pos()
		ent, reachedEnd := p.ParseEntity(ctx, tz)

		if isMenuTerminator(source[start:tz.Pos()]) {
			ent.Release()
			if len(menu.entities) == 0 {
				ent, _ = p.parseEntity(NewTokenizer(nil))
				menu.append(ent)
			}
			break
		}

		// A trailing call that saw nothing but the end of the source does
		// not describe a line.
		if reachedEnd && tz.Pos() == start && len(menu.entities) > 0 {
			ent.Release()
			break
		}

		menu.append(ent)
		if reachedEnd {
			break
		}
	}

	if p.concurrency > 1 {
		p.prefetchAll(ctx, menu)
	}

	p.logger.Debug("menu parsed",
		"source_bytes", len(source),
		"entities", menu.Len(),
	)
	return menu
}

func (p *Parser) prefetchAll(ctx context.Context, menu *Menu) {
	if p.fetcher == nil {
		return
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(p.concurrency)
	for i := range menu.entities {
		ent := &menu.entities[i]
		if !ent.Type.IsImage() {
			continue
		}
		eg.Go(func() error {
			p.prefetch(egCtx, ent)
			return nil
		})
	}
	_ = eg.Wait()
}

func (p *Parser) prefetch(ctx context.Context, ent *Entity) {
	if p.fetcher == nil {
		return
	}

	payload, err := p.fetcher.Fetch(ctx, ent.Host.String(), ent.Selector.String(), ent.Port)
	if err != nil {
		p.logger.Warn("unable to prefetch entity",
			"entity", ent,
			"error", err,
		)
		return
	}
	ent.Prefetched = payload
}

// isMenuTerminator reports whether line is the lone "." closing a menu.
func isMenuTerminator(line []byte) bool {
	switch string(line) {
	case ".", ".\n", ".\r\n":
		return true
	}
	return false
}

func isRecordEnd(tok *buffer.TextBuilder) bool {
	return tok.Equal("\r\n") || tok.Equal("\n")
}

// parsePort reads a base-10 integer the way strtol does: leading spaces, an
// optional sign, then as many digits as possible. Anything else yields 0.
func parsePort(text []byte) int {
	i := 0
	for i < len(text) && isSpace(text[i]) {
		i++
	}

	neg := false
	if i < len(text) && (text[i] == '+' || text[i] == '-') {
		neg = text[i] == '-'
		i++
	}

	n := 0
	for ; i < len(text) && text[i] >= '0' && text[i] <= '9'; i++ {
		n = n*10 + int(text[i]-'0')
		if n > 1<<31 {
			break
		}
	}

	if neg {
		return -n
	}
	return n
}
