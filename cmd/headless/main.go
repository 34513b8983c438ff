// headless runs a battlefield without a window and prints where every squad
// ended up.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/skirmish/sim"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	battlefield := flag.String("battlefield", sim.DefaultBattlefield, "battlefield prefab under prefabs/")
	scenario := flag.String("scenario", "", "scenario script, or \"none\" (defaults to the battlefield's)")
	ticks := flag.Int("ticks", 0, "ticks to run; 0 runs until the scenario finishes")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logger, err := newLogger(*debug)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	s, err := sim.New(sim.Config{Battlefield: *battlefield, Scenario: *scenario}, logger)
	if err != nil {
		logger.Fatal("failed to load battlefield", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runErr := s.Run(ctx, *ticks)
	printSummary(s.Snapshot())
	if runErr != nil {
		logger.Error("run stopped", zap.Error(runErr))
		os.Exit(1)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	if !debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	return cfg.Build()
}

type squadSummary struct {
	units     int
	following int
	sum       cp.Vector
}

func printSummary(snap sim.Snapshot) {
	squads := map[string]*squadSummary{}
	for _, u := range snap.Units {
		sq := squads[u.Squad]
		if sq == nil {
			sq = &squadSummary{}
			squads[u.Squad] = sq
		}
		sq.units++
		sq.sum = sq.sum.Add(u.Position)
		if u.State.IsFollowing() {
			sq.following++
		}
	}
	names := make([]string, 0, len(squads))
	for name := range squads {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("tick %d, grid ready %v, %d active orders\n", snap.Tick, snap.GridReady, len(snap.Orders))
	for _, name := range names {
		sq := squads[name]
		c := sq.sum.Mult(1 / float64(sq.units))
		fmt.Printf("  %-8s %3d units  %3d following  centroid (%.0f, %.0f)\n", name, sq.units, sq.following, c.X, c.Y)
	}
	if snap.LastError != nil {
		fmt.Printf("  last order error: %v\n", snap.LastError)
	}
}
