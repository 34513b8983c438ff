package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	battlefield := flag.String("battlefield", "battlefield.yaml", "battlefield prefab under prefabs/")
	scenario := flag.String("scenario", "", "scenario script, or \"none\" to drive the units by hand")
	debug := flag.Bool("debug", false, "enable debug logging and force overlays")
	baseMonitor := flag.Bool("m", false, "use base monitor instead of primary (for multi-monitor setups)")
	flag.Parse()

	logCfg := zap.NewDevelopmentConfig()
	logCfg.DisableStacktrace = true
	if !*debug {
		logCfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	logger, err := logCfg.Build()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if *baseMonitor {
		ebiten.SetMonitor(ebiten.AppendMonitors(nil)[0])
	}

	game, err := NewGame(*battlefield, *scenario, *debug, logger)
	if err != nil {
		logger.Fatal("failed to start", zap.Error(err))
	}
	defer game.Close()

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(game.ScreenSize())
	ebiten.SetWindowTitle("skirmish - " + game.sim.Spec().Name)

	if err := ebiten.RunGame(game); err != nil && err != ebiten.Termination {
		logger.Fatal("game exited", zap.Error(err))
	}
}
