// Command kiosk runs the presence-aware assistant server.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rashidlabs/go-kiosk/internal/log"
	"github.com/rashidlabs/go-kiosk/pkg/kiosk"
)

func main() {
	cfg := kiosk.LoadEnv()

	flag.StringVar(&cfg.Host, "host", cfg.Host, "Listen host")
	flag.IntVar(&cfg.Port, "port", cfg.Port, "Listen port")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.ProgramsPath, "programs", cfg.ProgramsPath, "Path to programs corpus JSON")
	flag.StringVar(&cfg.RulesPath, "rules", cfg.RulesPath, "Path to rules corpus JSON")
	flag.IntVar(&cfg.CameraIndex, "camera", cfg.CameraIndex, "Local camera index (-1 to disable)")
	flag.Parse()

	log.Init(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", log.Err(err))
		os.Exit(1)
	}

	app, err := kiosk.New(cfg)
	if err != nil {
		log.Error("failed to start kiosk", log.Err(err))
		os.Exit(1)
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Error("server exited", log.Err(err))
		os.Exit(1)
	}
}
