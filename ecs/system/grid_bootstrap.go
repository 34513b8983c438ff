package system

import (
	"errors"

	"github.com/milk9111/skirmish/ecs"
	"github.com/milk9111/skirmish/movement"
	"github.com/milk9111/skirmish/nav"
	"go.uber.org/zap"
)

// GridBootstrapSystem builds the occupancy grid once static obstacles are
// queryable. Until then every tick is a retry.
type GridBootstrapSystem struct {
	nav      *Navigation
	attempts int
	failed   bool
}

func NewGridBootstrapSystem(n *Navigation) *GridBootstrapSystem {
	return &GridBootstrapSystem{nav: n}
}

func (gb *GridBootstrapSystem) Attempts() int {
	return gb.attempts
}

func (gb *GridBootstrapSystem) Update(_ *ecs.World) {
	if gb == nil || gb.nav == nil || gb.failed || gb.nav.Grid != nil {
		return
	}
	gb.attempts++

	grid, err := nav.BuildGrid(gb.nav.Bounds, gb.nav.CellSize, gb.nav.Physics)
	if errors.Is(err, nav.ErrGridNotReady) {
		gb.nav.Logger.Debug("grid deferred", zap.Int("attempt", gb.attempts))
		return
	}
	if err != nil {
		gb.failed = true
		gb.nav.LastError = err
		gb.nav.Logger.Error("grid build failed", zap.Error(err))
		return
	}

	gb.nav.Grid = grid
	gb.nav.Registry = movement.NewRegistry(grid, gb.nav.Logger)
	gb.nav.Logger.Info("grid ready",
		zap.Int("width", grid.Width),
		zap.Int("height", grid.Height),
		zap.Int("attempts", gb.attempts),
	)
}
