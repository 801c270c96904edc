// Package commands implements the finctl command tree.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/fincache"
	"github.com/unkn0wn-root/fincache/backend/rest"
	"github.com/unkn0wn-root/fincache/credential"
	asynchook "github.com/unkn0wn-root/fincache/hooks/async"
	"github.com/unkn0wn-root/fincache/internal/config"
	zaplog "github.com/unkn0wn-root/fincache/log/zap"
	pr "github.com/unkn0wn-root/fincache/provider"
	"github.com/unkn0wn-root/fincache/provider/bigcache"
	"github.com/unkn0wn-root/fincache/provider/ristretto"
	"github.com/unkn0wn-root/fincache/sloghooks"
)

// CLI wires configuration to a fincache.Client built on first use.
type CLI struct {
	cfg     config.Config
	log     *zap.Logger
	out     io.Writer
	errOut  io.Writer
	rootCmd *cobra.Command

	backend fincache.Backend // nil => rest client for cfg.BaseURL
	creds   credential.Store // nil => credential.File at cfg.TokenFile
	client  *fincache.Client
	hooks   *asynchook.Hooks
}

type Option func(*CLI)

// WithBackend replaces the HTTP backend. Used for testing.
func WithBackend(b fincache.Backend) Option { return func(c *CLI) { c.backend = b } }

func WithCredentials(s credential.Store) Option { return func(c *CLI) { c.creds = s } }

func WithOutput(w io.Writer) Option { return func(c *CLI) { c.out = w } }

// WithErrOutput sets where traced hook events go. Defaults to stderr.
func WithErrOutput(w io.Writer) Option { return func(c *CLI) { c.errOut = w } }

func New(cfg config.Config, log *zap.Logger, opts ...Option) *CLI {
	if log == nil {
		log = zap.NewNop()
	}
	c := &CLI{cfg: cfg, log: log, out: os.Stdout, errOut: os.Stderr}
	for _, o := range opts {
		o(c)
	}

	rootCmd := &cobra.Command{
		Use:           "finctl",
		Short:         "Personal finance from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(c.out)

	rootCmd.AddCommand(c.newLoginCmd())
	rootCmd.AddCommand(c.newLogoutCmd())
	rootCmd.AddCommand(c.newWhoamiCmd())
	rootCmd.AddCommand(c.newDashboardCmd())
	rootCmd.AddCommand(c.newCategoriesCmd())
	rootCmd.AddCommand(c.newCategoryCmd())
	rootCmd.AddCommand(c.newTxCmd())
	rootCmd.AddCommand(c.newChartCmd())
	rootCmd.AddCommand(c.newFilterCmd())
	c.rootCmd = rootCmd
	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	err := c.rootCmd.Execute()
	if cerr := c.close(ctx); err == nil {
		err = cerr
	}
	return err
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

func (c *CLI) clientFor(ctx context.Context) (*fincache.Client, error) {
	if c.client != nil {
		return c.client, nil
	}
	if c.creds == nil {
		c.creds = credential.NewFile(c.cfg.TokenFile)
	}
	logger := zaplog.New(c.log)
	backend := c.backend
	if backend == nil {
		rc, err := rest.New(c.cfg.BaseURL, c.creds, rest.WithTimeout(c.cfg.Timeout), rest.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		backend = rc
	}
	provider, err := c.provider(ctx)
	if err != nil {
		return nil, err
	}
	var hooks fincache.Hooks
	if c.cfg.TraceHooks {
		sl := slog.New(slog.NewTextHandler(c.errOut, &slog.HandlerOptions{Level: slog.LevelDebug}))
		c.hooks = asynchook.New(sloghooks.New(sl, sloghooks.Options{FetchSkippedEvery: 1}), 1, 256)
		hooks = c.hooks
	}
	cl, err := fincache.New(fincache.Options{
		Backend:              backend,
		Credentials:          c.creds,
		Provider:             provider,
		Codec:                c.cfg.Cache.Codec,
		MaxDecode:            c.cfg.Cache.MaxDecode,
		StaleTime:            c.cfg.Cache.StaleTime,
		Logger:               logger,
		Hooks:                hooks,
		RollbackFailedDelete: c.cfg.Cache.RollbackFailedDelete,
	})
	if err != nil {
		_ = provider.Close(ctx)
		if c.hooks != nil {
			c.hooks.Close()
			c.hooks = nil
		}
		return nil, err
	}
	c.client = cl
	return cl, nil
}

// close releases the client and flushes queued hook events.
func (c *CLI) close(ctx context.Context) error {
	var err error
	if c.client != nil {
		err = c.client.Close(ctx)
		c.client = nil
	}
	if c.hooks != nil {
		c.hooks.Close()
		if n := c.hooks.Dropped(); n > 0 {
			c.log.Debug("hook events dropped", zap.Uint64("count", n))
		}
		c.hooks = nil
	}
	return err
}

func (c *CLI) provider(ctx context.Context) (pr.Provider, error) {
	switch c.cfg.Cache.Provider {
	case config.ProviderBigCache:
		return bigcache.New(ctx, bigcache.DefaultConfig())
	case config.ProviderRistretto, "":
		return ristretto.New(ristretto.DefaultConfig())
	}
	return nil, fmt.Errorf("unknown cache provider %q", c.cfg.Cache.Provider)
}
