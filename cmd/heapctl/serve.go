package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/pavanmanishd/heapmgr"
)

var (
	serveAddr      string
	serveNamespace string
	serveCfg       = stressConfig{Workers: 4, Rate: 200, Seed: 1, MaxSize: 4096}
)

func init() {
	cmd := newServeCmd()
	cmd.Flags().StringVar(&serveAddr, "addr", ":2112", "Metrics listen address")
	cmd.Flags().StringVar(&serveNamespace, "namespace", "heapmgr", "Metric namespace")
	cmd.Flags().IntVar(&serveCfg.Workers, "workers", serveCfg.Workers, "Concurrent workers")
	cmd.Flags().Float64Var(&serveCfg.Rate, "rate", serveCfg.Rate, "Operations per second across all workers (0 = unlimited)")
	cmd.Flags().Uint64Var(&serveCfg.Seed, "seed", serveCfg.Seed, "Random seed")
	rootCmd.AddCommand(cmd)
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run a continuous workload and export heap metrics",
		Long: `The serve command runs the stress workload until interrupted and serves
Prometheus metrics for the heap on /metrics.

Example:
  heapctl serve
  heapctl serve --addr 127.0.0.1:9100 --rate 1000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			m, err := openHeap(cmd)
			if err != nil {
				return err
			}
			defer m.Close()
			return runServe(ctx, cmd, m)
		},
	}
}

func runServe(ctx context.Context, cmd *cobra.Command, m *heapmgr.HeapManager) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		heapmgr.NewCollector(m, serveNamespace),
		collectors.NewGoCollector(),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: serveAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()
	fmt.Fprintf(cmd.OutOrStdout(), "metrics available at http://%s/metrics\n", serveAddr)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg := serveCfg
	cfg.Ops = 0
	stressErr := make(chan error, 1)
	go func() {
		stressErr <- runStress(ctx, m, cfg)
	}()

	var err error
	select {
	case err = <-serveErr:
		cancel()
		<-stressErr
	case err = <-stressErr:
	case <-ctx.Done():
		err = <-stressErr
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil && err == nil {
		err = serr
	}
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	printMetrics(cmd.OutOrStdout(), m)
	return err
}
