package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/cephmsgr/internal/logger"
	"github.com/marmos91/cephmsgr/internal/wireaddr"
	"github.com/marmos91/cephmsgr/pkg/adminapi"
	"github.com/marmos91/cephmsgr/pkg/ceph"
	"github.com/marmos91/cephmsgr/pkg/metrics"
	"github.com/marmos91/cephmsgr/pkg/pool"
	"github.com/marmos91/cephmsgr/pkg/telemetry"
)

var serveAdminCmd = &cobra.Command{
	Use:   "serve-admin",
	Short: "Dial every configured monitor and serve the admin HTTP API",
	Long: `Dial every address in cluster.monitor_addresses concurrently via
pkg/pool, then serve pkg/adminapi's /healthz, /metrics, and /status over
HTTP until interrupted. Intended for running cephctl as a long-lived
connection-health sidecar rather than a one-shot CLI invocation.`,
	RunE: runServeAdmin,
}

func runServeAdmin(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	shutdownTelemetry, err := telemetry.Init(cmd.Context(), telemetry.Config{
		Enabled:     cfg.Telemetry.Enabled,
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() { _ = shutdownTelemetry(context.Background()) }()

	var m *metrics.ConnectionMetrics
	if cfg.Metrics.Enabled {
		m = metrics.Init()
	}

	entity, err := entityFromConfig(cfg)
	if err != nil {
		return err
	}
	keyring, err := ceph.LoadKeyring(cfg.Keyring.Path, entity)
	if err != nil {
		return fmt.Errorf("loading keyring: %w", err)
	}

	p := pool.New(ceph.Config{
		Entity:       entity,
		Keyring:      keyring,
		SupportRev21: cfg.Cluster.SupportRev21,
		DialTimeout:  10 * time.Second,
	}, m, len(cfg.Cluster.MonitorAddresses))

	targets := make([]pool.Target, len(cfg.Cluster.MonitorAddresses))
	for i, addr := range cfg.Cluster.MonitorAddresses {
		targets[i] = pool.Target{Name: fmt.Sprintf("mon-%d", i), Addr: addr, EntityType: wireaddr.EntityTypeMon}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := p.Dial(ctx, targets); err != nil {
		logger.WarnCtx(ctx, "serve-admin: one or more monitors failed to dial", logger.Err(err))
	}
	defer p.Close()

	router := adminapi.NewRouter(adminapi.Config{JWTSecret: cfg.Admin.JWTSecret}, p)
	srv := &http.Server{Addr: cfg.Admin.Address, Handler: router}

	errCh := make(chan error, 1)
	go func() {
		logger.InfoCtx(ctx, "serve-admin: listening", slog.String("addr", cfg.Admin.Address))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("admin API server: %w", err)
		}
		return nil
	}
}
