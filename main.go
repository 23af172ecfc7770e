package main

import (
	"errors"
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/locationgame/config"
	"github.com/milk9111/locationgame/logger"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "locationgame.yaml", "config file (defaults are used when it does not exist)")
	sceneName := flag.String("scene", "", "scene to load (airport, grocerystore)")
	debug := flag.Bool("debug", false, "enable debug logging and the plan overlay")
	feedEnabled := flag.Bool("feed", false, "serve the camera pose over websocket")
	watch := flag.Bool("watch", false, "reload scenes and scripts when prefab files change")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *sceneName != "" {
		cfg.Scene = *sceneName
	}
	if *debug {
		cfg.Debug = true
		cfg.Logging.Level = "debug"
		cfg.Logging.Development = true
	}
	if *feedEnabled {
		cfg.Feed.Enabled = true
	}
	if *watch {
		cfg.Watch = true
	}

	lg, err := logger.New(cfg.Logging)
	if err != nil {
		log.Fatal(err)
	}

	if err := run(cfg, lg); err != nil {
		lg.Fatal("game stopped", zap.Error(err))
	}
	_ = lg.Sync()
}

func run(cfg config.Config, lg *zap.Logger) error {
	game, err := NewGame(cfg, lg)
	if err != nil {
		return err
	}
	defer game.Close()

	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetWindowTitle(cfg.Window.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}
