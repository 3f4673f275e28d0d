// Command sdg generates a synthetic image dataset: it sweeps a camera and
// light over a scene, renders each configuration and writes bounding-box
// annotations for every visible object.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/sdg/internal/config"
	"github.com/banshee-data/sdg/internal/monitoring"
	"github.com/banshee-data/sdg/internal/pipeline"
	"github.com/banshee-data/sdg/internal/version"
)

var (
	configPath  = flag.String("config", config.ExampleConfigPath, "Path to a .json, .yaml or .yml run configuration")
	adminListen = flag.String("admin-listen", "", "Serve debug pages and the SQL console on this address while running (e.g. localhost:8081)")
	showVersion = flag.Bool("version", false, "Print version and exit")
	quiet       = flag.Bool("quiet", false, "Only log warnings and lifecycle events")
	trace       = flag.Bool("trace", false, "Log per-object projection detail")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	monitoring.SetLogWriters(logWriters(os.Stderr, *quiet, *trace))

	cfg, err := config.LoadRenderingConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	gen, err := pipeline.New(cfg)
	if err != nil {
		log.Fatalf("failed to set up generator: %v", err)
	}
	defer gen.Store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *adminListen != "" {
		shutdown, err := serveAdmin(*adminListen, gen)
		if err != nil {
			log.Fatalf("failed to start admin server: %v", err)
		}
		defer shutdown()
	}

	res, err := gen.Run(ctx)
	if err != nil {
		log.Fatalf("run %s failed: %v", res.RunID, err)
	}
	if res.Cancelled {
		monitoring.Opsf("run %s cancelled after %d snapshots", res.RunID, res.Snapshots)
		return
	}
	monitoring.Opsf("wrote %d annotations to %s", res.Snapshots, cfg.TargetPath)
}

// logWriters maps the verbosity flags onto the three log streams.
func logWriters(w io.Writer, quiet, trace bool) monitoring.LogWriters {
	lw := monitoring.LogWriters{Ops: w, Diag: w}
	if quiet {
		lw.Diag = nil
	}
	if trace {
		lw.Trace = w
	}
	return lw
}

// serveAdmin starts the debug server and returns a function that stops it.
func serveAdmin(addr string, gen *pipeline.Generator) (func(), error) {
	mux := http.NewServeMux()
	if err := gen.Store.AttachAdminRoutes(mux); err != nil {
		return nil, err
	}
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			monitoring.Opsf("admin server error: %v", err)
		}
	}()
	monitoring.Opsf("admin pages on http://%s/debug/", addr)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			monitoring.Opsf("admin server shutdown error: %v", err)
			server.Close()
		}
	}, nil
}
