// Command kmeans-explorer serves the step-by-step K-Means explorer API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/kmeans-explorer/internal/api"
	"github.com/banshee-data/kmeans-explorer/internal/config"
	"github.com/banshee-data/kmeans-explorer/internal/monitoring"
	"github.com/banshee-data/kmeans-explorer/internal/session"
	"github.com/banshee-data/kmeans-explorer/internal/version"
)

var (
	listen      = flag.String("listen", "", "Listen address (overrides config, default :8080)")
	configPath  = flag.String("config", "", "Path to JSON config file (default: "+config.DefaultConfigPath+" when present)")
	verbose     = flag.Bool("verbose", false, "Log per-request session and run detail")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	monitoring.SetVerbose(*verbose)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *listen != "" {
		cfg.Listen = listen
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", cfg.GetListen())
	if err != nil {
		log.Fatalf("failed to listen on %s: %v", cfg.GetListen(), err)
	}

	log.Printf("kmeans-explorer %s listening on %s", version.String(), ln.Addr())
	if err := serve(ctx, cfg, ln); err != nil {
		log.Fatalf("server error: %v", err)
	}
	log.Printf("Graceful shutdown complete")
}

// loadConfig reads path, or the default config file when path is empty and
// the file exists. With neither, built-in defaults apply.
func loadConfig(path string) (*config.ExplorerConfig, error) {
	if path != "" {
		return config.LoadConfig(path)
	}
	if _, err := os.Stat(config.DefaultConfigPath); err == nil {
		return config.LoadConfig(config.DefaultConfigPath)
	}
	return &config.ExplorerConfig{}, nil
}

// serve runs the API on ln until ctx is cancelled, then shuts down within the
// configured timeout.
func serve(ctx context.Context, cfg *config.ExplorerConfig, ln net.Listener) error {
	sessions := session.NewStore(cfg.GetSessionTTL(), cfg.GetSessionCleanup())
	srv := api.NewServer(cfg, sessions, nil)

	server := &http.Server{
		Handler: srv.Handler(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("shutting down HTTP server...")

		srv.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			// Force close the server if graceful shutdown fails
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}
		log.Printf("HTTP server routine stopped")
		return nil
	})
	return g.Wait()
}
