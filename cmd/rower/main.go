package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/raskyld/rower"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// globalOptions are the flags shared by every command.
type globalOptions struct {
	configPath string
	cfg        Config
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "rower",
		Short:         "A Gopher client",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default $HOME/.config/rower/config.yaml)")
	flags.Bool("gopher-plus", false, "send the Gopher+ marker with every selector")
	flags.Duration("dial-timeout", 0, "how long to wait for a server to accept the connection")
	flags.Duration("read-timeout", 0, "how long to wait for a whole response (0 waits forever)")
	flags.String("dns-server", "", "query this DNS server instead of the system resolver")
	flags.String("dns-cache", "", "file the resolved addresses are kept in between runs")
	flags.String("download-dir", "", "where downloads are written (default $HOME/Downloads)")
	flags.BoolP("verbose", "v", false, "log debug messages")

	rootCmd.AddCommand(newGetCmd(opts))
	rootCmd.AddCommand(newDownloadCmd(opts))
	rootCmd.AddCommand(newSearchCmd(opts))

	return rootCmd
}

// load reads the config file then lets flags set on the command line
// override it.
func (opts *globalOptions) load(cmd *cobra.Command) error {
	path, explicit := opts.configPath, opts.configPath != ""
	if !explicit {
		path = DefaultConfigPath()
	}

	cfg, err := LoadConfig(path)
	switch {
	case err == nil:
	case !explicit && errors.Is(err, fs.ErrNotExist):
		cfg = Config{}
	default:
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("gopher-plus") {
		cfg.GopherPlus, _ = flags.GetBool("gopher-plus")
	}
	if flags.Changed("dial-timeout") {
		cfg.DialTimeout, _ = flags.GetDuration("dial-timeout")
	}
	if flags.Changed("read-timeout") {
		cfg.ReadTimeout, _ = flags.GetDuration("read-timeout")
	}
	if flags.Changed("dns-server") {
		cfg.DNSServer, _ = flags.GetString("dns-server")
	}
	if flags.Changed("dns-cache") {
		cfg.DNSCache, _ = flags.GetString("dns-cache")
	}
	if flags.Changed("download-dir") {
		cfg.DownloadDir, _ = flags.GetString("download-dir")
	}
	if flags.Changed("verbose") {
		cfg.Verbose, _ = flags.GetBool("verbose")
	}

	opts.cfg = cfg
	return nil
}

func (opts *globalOptions) logHandler() slog.Handler {
	level := slog.LevelInfo
	if opts.cfg.Verbose {
		level = slog.LevelDebug
	}
	return slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
}

// session is a client whose address cache is persisted when closed.
type session struct {
	*rower.Client
	cache     *rower.AddressCache
	cachePath string
	logger    *slog.Logger
}

func (opts *globalOptions) newSession() (*session, error) {
	handler := opts.logHandler()
	cache := rower.NewAddressCache(0)

	s := &session{
		cache:     cache,
		cachePath: opts.cfg.DNSCache,
		logger:    slog.New(handler),
	}

	if s.cachePath != "" {
		snap, err := os.ReadFile(s.cachePath)
		switch {
		case err == nil:
			if err := cache.UnmarshalBinary(snap); err != nil {
				s.logger.Warn("ignoring DNS cache", "path", s.cachePath, "error", err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("read DNS cache: %w", err)
		}
	}

	client, err := rower.NewClient(append(opts.cfg.ClientOptions(),
		rower.WithLog(handler),
		rower.WithAddressCache(cache),
	)...)
	if err != nil {
		return nil, err
	}
	s.Client = client
	return s, nil
}

func (s *session) Close() error {
	if s.cachePath == "" {
		return nil
	}
	snap, err := s.cache.MarshalBinary()
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.cachePath, snap, 0o600); err != nil {
		return fmt.Errorf("write DNS cache: %w", err)
	}
	s.logger.Debug("DNS cache saved", "path", s.cachePath, "entries", s.cache.Len())
	return nil
}
