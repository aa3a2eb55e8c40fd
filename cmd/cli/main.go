package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/YaniYesh22/snot/internal/buildinfo"
	"github.com/YaniYesh22/snot/internal/client/cli"
	"github.com/YaniYesh22/snot/internal/client/config"
	"github.com/YaniYesh22/snot/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	// warnings and errors only, the REPL owns stdout
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})
	logger := logging.NewSlogLogger(slog.New(handler))

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
