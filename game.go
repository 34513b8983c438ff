package main

import (
	"fmt"
	"image/color"
	"math"
	"os"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/skirmish/ecs"
	"github.com/milk9111/skirmish/ecs/component"
	"github.com/milk9111/skirmish/ecs/system/debugdraw"
	"github.com/milk9111/skirmish/nav"
	"github.com/milk9111/skirmish/prefabs"
	"github.com/milk9111/skirmish/sim"
	"go.uber.org/zap"
	"golang.design/x/clipboard"
)

const (
	// snapRadius is how many rings of cells a right-click may be moved to
	// land on a walkable cell.
	snapRadius  = 4
	panSpeed    = 6.0
	minDragSize = 4.0
	prefabsDir  = "prefabs"
)

var (
	backgroundColor = color.RGBA{R: 0x18, G: 0x1a, B: 0x20, A: 0xff}
	dragColor       = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xc0}
)

type overlays struct {
	grid    bool
	flow    bool
	path    bool
	physics bool
	forces  bool
}

type Game struct {
	sim     *sim.Simulation
	logger  *zap.Logger
	watcher *prefabs.Watcher
	ui      *ebitenui.UI

	paused   bool
	stepOnce bool
	quit     bool
	overlays overlays

	dragging  bool
	dragStart cp.Vector

	clipboardErr error
	message      string
	messageTicks int
}

func NewGame(battlefield, scenario string, debug bool, logger *zap.Logger) (*Game, error) {
	s, err := sim.New(sim.Config{Battlefield: battlefield, Scenario: scenario, DebugForces: debug}, logger)
	if err != nil {
		return nil, err
	}
	g := &Game{
		sim:      s,
		logger:   logger,
		overlays: overlays{flow: true, path: true, forces: debug},
	}
	g.clipboardErr = clipboard.Init()
	if g.clipboardErr != nil {
		logger.Warn("clipboard unavailable", zap.Error(g.clipboardErr))
	}

	// Hot reload only works against an on-disk prefabs directory.
	if _, err := os.Stat(prefabsDir); err == nil {
		w, err := prefabs.NewWatcher(prefabsDir, prefabsDir+"/units", prefabsDir+"/scripts")
		if err != nil {
			logger.Warn("prefab watcher disabled", zap.Error(err))
		} else {
			g.watcher = w
		}
	}

	g.ui = NewPauseUI(g)
	return g, nil
}

func (g *Game) Close() {
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
}

// ScreenSize is the battlefield size in pixels at zoom 1.
func (g *Game) ScreenSize() (int, int) {
	spec := g.sim.Spec()
	return int(math.Ceil(spec.Width)), int(math.Ceil(spec.Height))
}

func (g *Game) Update() error {
	if g.quit {
		return ebiten.Termination
	}
	g.drainReloads()
	if g.messageTicks > 0 {
		g.messageTicks--
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if g.paused {
		g.ui.Update()
		if inpututil.IsKeyJustPressed(ebiten.KeyPeriod) {
			g.stepOnce = true
		}
	}
	g.handleOverlayKeys()
	g.handleCamera()
	g.handleMouse()

	if !g.paused || g.stepOnce {
		g.stepOnce = false
		g.sim.Step()
		for _, evt := range g.sim.DrainNotices() {
			if rejected, ok := evt.Data.(ecs.OrderRejectedEvent); ok {
				g.flash(fmt.Sprintf("order rejected: %v", rejected.Err))
			}
		}
	}
	return nil
}

func (g *Game) handleOverlayKeys() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyG):
		g.overlays.grid = !g.overlays.grid
	case inpututil.IsKeyJustPressed(ebiten.KeyF):
		g.overlays.flow = !g.overlays.flow
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		g.overlays.path = !g.overlays.path
	case inpututil.IsKeyJustPressed(ebiten.KeyB):
		g.overlays.physics = !g.overlays.physics
	case inpututil.IsKeyJustPressed(ebiten.KeyV):
		g.setForces(!g.overlays.forces)
	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		g.copyField()
	}
}

func (g *Game) setForces(on bool) {
	g.overlays.forces = on
	g.sim.SetDebugForces(on)
}

func (g *Game) handleCamera() {
	tr, ok := ecs.Get(g.sim.World(), g.sim.Camera(), component.TransformComponent.Kind())
	if !ok {
		return
	}
	cam, _ := ecs.Get(g.sim.World(), g.sim.Camera(), component.CameraComponent.Kind())
	if ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		tr.X -= panSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		tr.X += panSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		tr.Y -= panSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) || ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		tr.Y += panSpeed
	}
	if cam == nil {
		return
	}
	if _, wy := ebiten.Wheel(); wy != 0 {
		cam.Zoom = math.Max(0.25, math.Min(4, cam.Zoom*math.Pow(1.1, wy)))
	}
}

// screenToWorld inverts the camera transform used by the debug draw helpers.
func (g *Game) screenToWorld(x, y int) cp.Vector {
	camX, camY, zoom := 0.0, 0.0, 1.0
	if tr, ok := ecs.Get(g.sim.World(), g.sim.Camera(), component.TransformComponent.Kind()); ok {
		camX, camY = tr.X, tr.Y
	}
	if cam, ok := ecs.Get(g.sim.World(), g.sim.Camera(), component.CameraComponent.Kind()); ok && cam.Zoom > 0 {
		zoom = cam.Zoom
	}
	return cp.Vector{X: float64(x)/zoom + camX, Y: float64(y)/zoom + camY}
}

func (g *Game) handleMouse() {
	mx, my := ebiten.CursorPosition()
	cursor := g.screenToWorld(mx, my)

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.dragging = true
		g.dragStart = cursor
	}
	if g.dragging && inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		g.dragging = false
		bb := cp.NewBBForExtents(g.dragStart.Lerp(cursor, 0.5), math.Abs(cursor.X-g.dragStart.X)/2, math.Abs(cursor.Y-g.dragStart.Y)/2)
		if bb.R-bb.L < minDragSize && bb.T-bb.B < minDragSize {
			bb = cp.NewBBForCircle(cursor, minDragSize*2)
		}
		picked := g.sim.Select(bb, "")
		g.logger.Debug("selection", zap.Int("agents", len(picked)))
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) {
		g.orderSelected(cursor)
	}
}

// orderSelected sends the selection to the walkable cell nearest target.
// Clicks outside the grid are passed through so the rejection is reported.
func (g *Game) orderSelected(target cp.Vector) {
	selected := g.sim.Selected()
	if len(selected) == 0 {
		return
	}
	if grid := g.sim.Grid(); grid != nil {
		if c, ok := grid.CellFromWorld(target); ok {
			if snapped, ok := grid.NearestWalkable(c, snapRadius); ok {
				target = grid.WorldFromCell(snapped)
			}
		}
	}
	g.sim.IssueOrder(selected, target)
}

func (g *Game) drainReloads() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case change, ok := <-g.watcher.Events:
			if !ok {
				g.watcher = nil
				return
			}
			g.applyReload(change)
		case err, ok := <-g.watcher.Errors:
			if ok {
				g.logger.Warn("prefab watcher error", zap.Error(err))
			}
		default:
			return
		}
	}
}

func (g *Game) applyReload(change prefabs.Change) {
	kind, ok := prefabs.UnitKind(change.Path)
	if !ok {
		g.logger.Info("prefab changed; restart to apply", zap.String("path", change.Path))
		return
	}
	n, err := g.sim.RetuneKind(kind)
	if err != nil {
		g.logger.Warn("unit reload failed", zap.String("kind", kind), zap.Error(err))
		g.flash(fmt.Sprintf("reload %s failed: %v", kind, err))
		return
	}
	g.flash(fmt.Sprintf("reloaded %s (%d units)", kind, n))
}

// copyField puts the active flow field, or the bare grid, on the clipboard.
func (g *Game) copyField() {
	if g.clipboardErr != nil {
		g.flash("clipboard unavailable")
		return
	}
	var text string
	if order, ok := g.sim.ActiveField(); ok && order.Field != nil {
		text = order.Field.String()
	} else if grid := g.sim.Grid(); grid != nil {
		text = grid.String()
	}
	if text == "" {
		g.flash("nothing to copy yet")
		return
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	g.flash("flow field copied")
}

func (g *Game) flash(msg string) {
	g.message = msg
	g.messageTicks = 180
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)
	w := g.sim.World()

	if g.overlays.grid {
		debugdraw.DrawGridDebug(g.sim.Grid(), w, screen)
	}
	var field *nav.FlowField
	var path nav.Path
	if order, ok := g.sim.ActiveField(); ok {
		field, path = order.Field, order.DebugPath
	}
	if g.overlays.flow && field != nil {
		debugdraw.DrawFlowFieldDebug(field, w, screen)
	}
	if g.overlays.path && len(path) > 0 {
		debugdraw.DrawPathDebug(g.sim.Grid(), path, w, screen)
	}
	debugdraw.DrawObstaclesDebug(w, screen)
	if g.overlays.physics {
		debugdraw.DrawPhysicsDebug(g.sim.Physics().Space(), w, screen)
	}
	debugdraw.DrawAgentsDebug(w, screen, g.overlays.forces)

	if g.dragging {
		mx, my := ebiten.CursorPosition()
		start := g.worldToScreen(g.dragStart)
		x0, y0 := math.Min(start.X, float64(mx)), math.Min(start.Y, float64(my))
		vector.StrokeRect(screen, float32(x0), float32(y0), float32(math.Abs(float64(mx)-start.X)), float32(math.Abs(float64(my)-start.Y)), 1, dragColor, false)
	}

	debugdraw.DrawNavigationStatus(g.sim.Navigation(), screen, 4, 4)
	status := fmt.Sprintf("FPS %.0f  selected %d", ebiten.ActualFPS(), len(g.sim.Selected()))
	if g.paused {
		status += "  [paused]"
	}
	if sc := g.sim.Scenario(); sc != nil {
		switch {
		case sc.Failed():
			status += "  scenario failed"
		case sc.Done():
			status += "  scenario done"
		}
	}
	sw, sh := g.ScreenSize()
	ebitenutil.DebugPrintAt(screen, status, 4, sh-20)
	if g.messageTicks > 0 {
		ebitenutil.DebugPrintAt(screen, g.message, sw/3, sh-20)
	}

	if g.paused {
		g.ui.Draw(screen)
	}
}

func (g *Game) worldToScreen(p cp.Vector) cp.Vector {
	origin := g.screenToWorld(0, 0)
	unit := g.screenToWorld(1, 0)
	zoom := 1 / (unit.X - origin.X)
	return cp.Vector{X: (p.X - origin.X) * zoom, Y: (p.Y - origin.Y) * zoom}
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	w, h := g.ScreenSize()
	return float64(w), float64(h)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}
