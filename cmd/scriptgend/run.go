package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/jihwankim/scriptgend/internal/evaluator"
	"github.com/jihwankim/scriptgend/internal/metadata"
	"github.com/jihwankim/scriptgend/internal/observability"
	"github.com/jihwankim/scriptgend/internal/session"
	"github.com/jihwankim/scriptgend/internal/sweep"
	"github.com/jihwankim/scriptgend/internal/xmltemplate"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Args:  cobra.NoArgs,
	Short: "Run the evaluator session: websocket transport, emission listener, stdin controller",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logLevel := observability.Level(cfg.Logging.Level)
	if verbose {
		logLevel = observability.LevelDebug
	}
	logger := observability.NewLogger(observability.LoggerConfig{
		Level:  logLevel,
		Format: observability.Format(cfg.Logging.Format),
		Output: os.Stdout,
	})
	metrics := observability.NewMetrics()

	logger.Info("scriptgend starting", "version", version)

	registry := metadata.NewRegistry()
	sweepConfig := sweep.New(registry)

	resources := resolveResources(cfg.Templates.ResourceDir, logger)
	loader := xmltemplate.NewLoader(resources, cfg.Templates.ProductVersion)

	trigger := make(chan struct{}, 100)
	dispatcher := evaluator.NewDispatcher(sweepConfig, trigger, metrics, logger)
	signalWatch := session.NewSignalWatch()

	listener := session.NewEmissionListener(dispatcher, trigger, loader, cfg.Output.ScriptPath, metrics, logger)
	go listener.Run(signalWatch.Done())

	stdinController := session.NewStdinController(dispatcher, signalWatch, cfg.Reload.SystemInfoPath, logger)
	go stdinController.Run(os.Stdin)

	go signalWatch.Watch()

	mux := http.NewServeMux()
	mux.Handle("/ws", session.NewTransport(dispatcher, logger))
	mux.Handle("/metrics", metrics.Handler())
	if cfg.Server.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(cfg.Server.StaticDir)))
	}

	httpServer := &http.Server{Addr: cfg.Server.ListenAddr, Handler: mux}
	go func() {
		logger.Info("listening", "addr", cfg.Server.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "error", err.Error())
			signalWatch.Stop()
		}
	}()

	<-signalWatch.Done()
	logger.Info("shutting down")
	return httpServer.Close()
}

// resolveResources starts from the embedded template catalog and overlays
// any on-disk override found at <resourceDir>/<ID>.xml, per spec.md §4.K
// ("embedded resources win if absent").
func resolveResources(resourceDir string, logger *observability.Logger) map[string]string {
	resources := xmltemplate.DefaultResources()
	if resourceDir == "" {
		return resources
	}
	for id := range resources {
		path := filepath.Join(resourceDir, id+".xml")
		body, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		resources[id] = string(body)
		if logger != nil {
			logger.Debug("loaded on-disk template override", "id", id, "path", path)
		}
	}
	return resources
}
