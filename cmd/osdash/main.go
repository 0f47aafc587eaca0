package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/prabalesh/osdash/internal/config"
	"github.com/prabalesh/osdash/internal/logging"
	"github.com/prabalesh/osdash/internal/ui"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	os.Exit(run(*configPath))
}

// run returns the process exit code so deferred cleanup happens before exit.
func run(configPath string) int {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Error loading config: %v", err)
		return 1
	}

	logger, closeLog := logging.Open(cfg.Log.File, cfg.Log.Level)
	defer closeLog()

	app, err := ui.NewApp(cfg, logger)
	if err != nil {
		logger.Error("startup failed", logging.ErrAttr(err))
		log.Printf("Error starting simulator: %v", err)
		return 1
	}
	logger.Info("simulator started", slog.String("config", configPath), slog.Duration("tick", cfg.TickInterval))

	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		logger.Error("program exited", logging.ErrAttr(err))
		log.Printf("Error running program: %v", err)
		return 1
	}
	return 0
}
