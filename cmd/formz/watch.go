package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/formz"
	"github.com/zoobzio/formz/pkg/prometheus"
)

type watchOptions struct {
	format      string
	debounce    time.Duration
	metricsAddr string
	history     int
	source      sourceOptions
}

var watchCmd = &cobra.Command{
	Use:   "watch <document>",
	Short: "Rebuild a form whenever its input document changes",
	Long: `Watches an input document and rebuilds the form each time it changes.
Rejected documents are logged and the previous form is kept.

The --source flag selects where the document lives:
  file        a path on disk (default)
  redis       a key on --redis-addr
  consul      a KV key on --consul-addr
  nats        a key in the JetStream bucket --nats-bucket on --nats-url
  kubernetes  <name>/<key> of a ConfigMap, or a Secret with --secret,
              read in-cluster from --namespace`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts watchOptions
		opts.format, _ = cmd.Flags().GetString("format")
		opts.debounce, _ = cmd.Flags().GetDuration("debounce")
		opts.metricsAddr, _ = cmd.Flags().GetString("metrics-addr")
		opts.history, _ = cmd.Flags().GetInt("error-history")
		opts.source = readSourceFlags(cmd)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runWatch(ctx, cmd.OutOrStdout(), args[0], opts)
	},
}

func init() {
	watchCmd.Flags().Duration("debounce", formz.DefaultDebounce, "Coalesce changes arriving within this window")
	watchCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :2112")
	watchCmd.Flags().Int("error-history", 10, "Number of rejected documents to remember")
	addSourceFlags(watchCmd)
	rootCmd.AddCommand(watchCmd)
}

func runWatch(ctx context.Context, out io.Writer, target string, opts watchOptions) error {
	codec, err := codecFor(opts.format)
	if err != nil {
		return err
	}

	watcher, closeSource, err := openSource(ctx, target, opts.source)
	if err != nil {
		return err
	}
	defer closeSource()

	liveOpts := []formz.LiveOption{
		formz.WithCodec(codec),
		formz.WithDebounce(opts.debounce),
		formz.WithLogger(logger),
		formz.WithErrorHistory(opts.history),
	}

	if opts.metricsAddr != "" {
		reg := prom.NewRegistry()
		provider, err := prometheus.New(reg)
		if err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
		liveOpts = append(liveOpts, formz.WithMetrics(provider))

		srv := &http.Server{
			Addr:              opts.metricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("serving metrics", "addr", opts.metricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
		defer srv.Close()
	}

	hookAudit()
	defer capitan.Shutdown()

	stopped := make(chan struct{})
	liveOpts = append(liveOpts, formz.WithOnStop(func(formz.State) { close(stopped) }))

	var form *formz.Form
	live := formz.NewLive(watcher, func(inputs []formz.Input) error {
		form = formz.Build(inputs, form)
		fmt.Fprintf(out, "form rebuilt: %d inputs, %d controls, %s\n", len(inputs), countControls(form), form.Status())
		return nil
	}, liveOpts...)

	if err := live.Start(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		if live.State() == formz.StateLoading {
			return err
		}
		logger.Warn("initial document rejected", "error", err)
	}

	select {
	case <-ctx.Done():
	case <-stopped:
	}
	logger.Info("stopped watching", "state", live.State().String())
	return nil
}

// hookAudit logs live form transitions and rejected documents.
func hookAudit() {
	capitan.Hook(formz.LiveStateChanged, func(_ context.Context, e *capitan.Event) {
		from, _ := formz.KeyOldState.From(e)
		to, _ := formz.KeyNewState.From(e)
		logger.Info("state changed", "from", from, "to", to)
	})
	capitan.Hook(formz.LiveValidationFailed, func(_ context.Context, e *capitan.Event) {
		msg, _ := formz.KeyError.From(e)
		logger.Warn("document invalid", "error", msg)
	})
	capitan.Hook(formz.LiveDecodeFailed, func(_ context.Context, e *capitan.Event) {
		msg, _ := formz.KeyError.From(e)
		logger.Warn("document unreadable", "error", msg)
	})
}
