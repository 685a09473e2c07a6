package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MegaGrindStone/portfolio-chat/internal/client"
	"github.com/MegaGrindStone/portfolio-chat/internal/endpoint"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type options struct {
	origin    string
	baseURL   string
	overrides string
	timeout   time.Duration
	logFile   string
	title     string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "portfolio-chat",
		Short:         "Chat with a portfolio assistant from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.origin, "origin", "http://localhost:8000",
		"origin the widget is considered to be served from; a loopback host talks to the local backend")
	flags.StringVar(&opts.baseURL, "base-url", "", "override the production API base URL")
	flags.StringVar(&opts.overrides, "overrides", "", "TOML file with base_url and endpoints overrides")
	flags.DurationVar(&opts.timeout, "timeout", 60*time.Second, "timeout of a single chat request")
	flags.StringVar(&opts.logFile, "log-file", "", "write logs to this file instead of discarding them")
	rootCmd.Flags().StringVar(&opts.title, "title", "Assistant", "name shown in the widget header")

	rootCmd.AddCommand(newAskCmd(opts), newHealthCmd(opts))
	return rootCmd
}

// resolver builds the endpoint resolver from the flags. --base-url wins over a base_url in the overrides
// file.
func (o *options) resolver() (*endpoint.Resolver, error) {
	var ov *endpoint.Overrides
	if o.overrides != "" {
		loaded, err := endpoint.LoadOverrides(o.overrides)
		if err != nil {
			return nil, err
		}
		ov = loaded
	}
	if o.baseURL != "" {
		if ov == nil {
			ov = &endpoint.Overrides{}
		}
		ov.BaseURL = &o.baseURL
	}
	return endpoint.New(endpoint.DefaultConfig(), endpoint.HostOf(o.origin), ov), nil
}

// logger returns a logger writing to --log-file, and a closer for it. Without the flag logs are discarded,
// since stderr belongs to the terminal UI.
func (o *options) logger() (*slog.Logger, io.Closer, error) {
	if o.logFile == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), io.NopCloser(nil), nil
	}
	f, err := os.OpenFile(o.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open log file")
	}
	return slog.New(slog.NewTextHandler(f, nil)), f, nil
}

func (o *options) client() (client.Client, *slog.Logger, io.Closer, error) {
	r, err := o.resolver()
	if err != nil {
		return client.Client{}, nil, nil, errors.Wrap(err, "resolve endpoints")
	}
	logger, closer, err := o.logger()
	if err != nil {
		return client.Client{}, nil, nil, err
	}
	logger.Info("Resolved endpoints",
		slog.Bool("local", r.Local()),
		slog.String("chat", r.URL(endpoint.Chat)),
		slog.String("health", r.URL(endpoint.Health)))

	httpClient := &http.Client{Timeout: o.timeout}
	return client.New(r, httpClient, logger), logger, closer, nil
}

