// Command finctl is a terminal client for the finance backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/fincache"
	"github.com/unkn0wn-root/fincache/cmd/finctl/commands"
	"github.com/unkn0wn-root/fincache/internal/config"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		// Logger is not available yet
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		return 2
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		return 2
	}
	defer func() { _ = logger.Sync() }()

	cli := commands.New(cfg, logger)
	cli.SetArgs(args)
	if err := cli.Execute(ctx); err != nil {
		return report(err)
	}
	return 0
}

func report(err error) int {
	var fe *fincache.Error
	if !errors.As(err, &fe) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	switch fe.Kind {
	case fincache.KindAuthInvalid:
		fmt.Fprintln(os.Stderr, "Error: session expired or missing; run `finctl login`")
	default:
		fmt.Fprintln(os.Stderr, "Error:", fe.UserMessage())
	}
	return 1
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("FINCTL_LOG_LEVEL: %w", err)
	}
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.DisableStacktrace = true
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}
