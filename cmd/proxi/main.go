package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"

	"proxi/internal/buildinfo"
	"proxi/internal/ingest"
	"proxi/internal/logging"
	"proxi/internal/proxi"
	"proxi/internal/query"
	"proxi/internal/server"
	"proxi/internal/setup"
	"proxi/internal/shutdown"
)

func main() {
	_, _ = fmt.Fprint(os.Stdout, buildinfo.Graffiti)
	_, _ = fmt.Fprintf(
		os.Stdout,
		"%s: %s, %s\n",
		buildinfo.Info.Name(),
		buildinfo.Info.Time(),
		buildinfo.Info.Tag(),
	)

	ctx, done := shutdown.New()
	logger := logging.FromContext(ctx)
	go http.ListenAndServe("0.0.0.0:8080", nil)
	if err := run(ctx, done); err != nil {
		logger.Fatal(err)
	}

	defer done()
}

func run(ctx context.Context, cancel func()) error {
	config := proxi.Config{}
	env, err := setup.Setup(ctx, &config)
	if err != nil {
		return fmt.Errorf("setup.Setup: %w", err)
	}
	defer env.Close(ctx)

	shutdownCh := make(chan error, 1)
	idx, err := env.ProvideIndex()(shutdownCh)
	if err != nil {
		return fmt.Errorf("index provider function error: %w", err)
	}
	if err := idx.Run(ctx); err != nil {
		return fmt.Errorf("index.Run: %w", err)
	}

	srv, err := server.New(config.SrvAddr)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	mux := http.NewServeMux()

	ingestHandler, err := ingest.NewHandler(&config.Ingest, idx)
	if err != nil {
		return fmt.Errorf("ingest.NewHandler: %w", err)
	}
	knnHandler, err := query.NewKNNHandler(&config.Query, idx)
	if err != nil {
		return fmt.Errorf("query.NewKNNHandler: %w", err)
	}
	radialHandler, err := query.NewRadialHandler(&config.Query, idx)
	if err != nil {
		return fmt.Errorf("query.NewRadialHandler: %w", err)
	}

	mux.Handle("/points", ingestHandler)
	mux.Handle("/knn", knnHandler)
	mux.Handle("/radial", radialHandler)
	mux.Handle("/health", server.HandleHealth(ctx))

	go func() {
		if err := srv.ServeHTTPHandler(ctx, mux); err != nil {
			cancel()
		}
	}()

	return <-shutdownCh
}
