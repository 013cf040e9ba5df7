package enginecoreed

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/forgecore/enginecore/internal/enginerr"
	"github.com/forgecore/enginecore/pkg/enginelog"
)

func newRunCmd() *cobra.Command {
	var pluginDir, importersDir, metricsAddr string
	var frames int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Boot an engine and step it until exit is requested",
		RunE: func(cmd *cobra.Command, args []string) error {
			enginelog.InitDefault()

			eng, err := newDemoEngine(pluginDir, importersDir)
			if err != nil {
				return err
			}

			if metricsAddr != "" {
				srv := startMetricsServer(metricsAddr, eng.Assets(), eng.Plugins())
				defer srv.Shutdown(context.Background())
			}

			if err := eng.Start(); err != nil && !errors.Is(err, enginerr.ErrExitRequested) {
				return err
			}
			if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
				enginelog.Warn("enginecoreed", "systemd notify ready failed: %v", err)
			} else if ok {
				enginelog.Debug("enginecoreed", "systemd readiness notification sent")
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				enginelog.Info("enginecoreed", "shutdown signal received")
				eng.RequestExit()
			}()
			defer signal.Stop(sigCh)

			for i := 0; frames <= 0 || i < frames; i++ {
				if _, err := eng.Step(); err != nil {
					if errors.Is(err, enginerr.ErrExitRequested) {
						break
					}
					return err
				}
			}

			if _, err := daemon.SdNotify(false, daemon.SdNotifyStopping); err != nil {
				enginelog.Warn("enginecoreed", "systemd notify stopping failed: %v", err)
			}
			return eng.Shutdown()
		},
	}

	cmd.Flags().StringVar(&pluginDir, "plugin-dir", "", "directory of *.so plugins to load")
	cmd.Flags().StringVar(&importersDir, "importers-dir", "", "directory of *.so asset-importer plugins to load")
	cmd.Flags().IntVar(&frames, "frames", 0, "stop after this many frames (0 = run until signaled)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics on this address (e.g. :9090)")
	return cmd
}

// startMetricsServer registers collectors on a private registry (never
// the global default, since the harness may run more than once in a
// test process) and serves it over HTTP until the returned server is
// shut down.
func startMetricsServer(addr string, collectors ...prometheus.Collector) *http.Server {
	reg := prometheus.NewRegistry()
	for _, c := range collectors {
		reg.MustRegister(c)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			enginelog.Error("enginecoreed", err, "metrics server exited")
		}
	}()
	enginelog.Info("enginecoreed", "serving metrics on %s/metrics", addr)
	return srv
}
