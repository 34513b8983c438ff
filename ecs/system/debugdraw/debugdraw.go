// Package debugdraw renders navigation and physics overlays for the ebiten viewer.
package debugdraw

import (
	"fmt"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/skirmish/ecs"
	"github.com/milk9111/skirmish/ecs/component"
	"github.com/milk9111/skirmish/ecs/system"
	"github.com/milk9111/skirmish/nav"
)

const (
	debugCircleSegments = 24
	debugDotSize        = 4
)

var (
	blockedCellColor = color.NRGBA{R: 90, G: 40, B: 40, A: 160}
	gridLineColor    = color.NRGBA{R: 60, G: 60, B: 70, A: 120}
	flowArrowColor   = color.NRGBA{R: 120, G: 200, B: 255, A: 200}
	goalColor        = color.NRGBA{R: 255, G: 220, B: 60, A: 255}
	pathColor        = color.NRGBA{R: 255, G: 120, B: 40, A: 230}
	selectionColor   = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	obstacleColor    = color.NRGBA{R: 110, G: 104, B: 96, A: 255}
	forceColors      = [...]color.NRGBA{
		{R: 255, G: 80, B: 80, A: 255},  // separation
		{R: 80, G: 255, B: 80, A: 255},  // cohesion
		{R: 80, G: 160, B: 255, A: 255}, // alignment
		{R: 255, G: 255, B: 80, A: 255}, // flow
	}
)

// DrawPhysicsDebug outlines every shape in the space.
func DrawPhysicsDebug(space *cp.Space, w *ecs.World, screen *ebiten.Image) {
	if space == nil || w == nil || screen == nil {
		return
	}
	camX, camY, zoom := debugCameraTransform(w)
	drawer := &physicsDebugDrawer{screen: screen, camX: camX, camY: camY, zoom: zoom}
	cp.DrawSpace(space, drawer)
}

// DrawGridDebug shades blocked cells and draws cell borders.
func DrawGridDebug(grid *nav.Grid, w *ecs.World, screen *ebiten.Image) {
	if grid == nil || screen == nil {
		return
	}
	camX, camY, zoom := debugCameraTransform(w)
	size := float32(grid.CellSize * zoom)
	for row := 0; row < grid.Height; row++ {
		for col := 0; col < grid.Width; col++ {
			c := nav.Coord{Row: row, Col: col}
			bb := grid.CellBB(c)
			x := float32((bb.L - camX) * zoom)
			y := float32((bb.B - camY) * zoom)
			if !grid.Walkable(c) {
				vector.FillRect(screen, x, y, size, size, blockedCellColor, false)
			}
			vector.StrokeRect(screen, x, y, size, size, 1, gridLineColor, false)
		}
	}
}

// DrawFlowFieldDebug draws one arrow per reachable cell and marks the goal.
func DrawFlowFieldDebug(field *nav.FlowField, w *ecs.World, screen *ebiten.Image) {
	if field == nil || field.Retired() || screen == nil {
		return
	}
	grid := field.Grid()
	camX, camY, zoom := debugCameraTransform(w)
	arrow := grid.CellSize * 0.35
	for i := 0; i < grid.Len(); i++ {
		c := grid.CoordOf(i)
		center := grid.WorldFromCell(c)
		dir := field.Direction(c)
		if dir == nav.DirNone {
			continue
		}
		tip := center.Add(dir.Vector().Normalize().Mult(arrow))
		drawWorldLine(screen, center, tip, camX, camY, zoom, flowArrowColor)
		drawWorldCircle(screen, tip, 1.5, camX, camY, zoom, flowArrowColor)
	}
	goal := field.GoalPosition()
	drawWorldCircle(screen, goal, grid.CellSize*0.4, camX, camY, zoom, goalColor)
}

// DrawPathDebug draws a cell path as a polyline through cell centres.
func DrawPathDebug(grid *nav.Grid, path nav.Path, w *ecs.World, screen *ebiten.Image) {
	if grid == nil || len(path) < 2 || screen == nil {
		return
	}
	camX, camY, zoom := debugCameraTransform(w)
	for i := 1; i < len(path); i++ {
		drawWorldLine(screen, grid.WorldFromCell(path[i-1]), grid.WorldFromCell(path[i]), camX, camY, zoom, pathColor)
	}
}

// DrawObstaclesDebug fills every obstacle entity's footprint.
func DrawObstaclesDebug(w *ecs.World, screen *ebiten.Image) {
	if w == nil || screen == nil {
		return
	}
	camX, camY, zoom := debugCameraTransform(w)
	ecs.ForEach3(w, component.ObstacleTagComponent.Kind(), component.TransformComponent.Kind(), component.PhysicsBodyComponent.Kind(), func(_ ecs.Entity, _ *component.ObstacleTag, tr *component.Transform, pb *component.PhysicsBody) {
		sx, sy := float32((tr.X-camX)*zoom), float32((tr.Y-camY)*zoom)
		if pb.Radius > 0 {
			vector.FillCircle(screen, sx, sy, float32(pb.Radius*zoom), obstacleColor, true)
			return
		}
		hw, hh := float32(pb.Width*zoom/2), float32(pb.Height*zoom/2)
		vector.FillRect(screen, sx-hw, sy-hh, hw*2, hh*2, obstacleColor, false)
	})
}

// DrawAgentsDebug draws each agent in its squad colour with a heading tick,
// a ring when selected and, if present, its last steering forces.
func DrawAgentsDebug(w *ecs.World, screen *ebiten.Image, showForces bool) {
	if w == nil || screen == nil {
		return
	}
	camX, camY, zoom := debugCameraTransform(w)
	ecs.ForEach3(w, component.AgentComponent.Kind(), component.TransformComponent.Kind(), component.PhysicsBodyComponent.Kind(), func(e ecs.Entity, agent *component.Agent, tr *component.Transform, pb *component.PhysicsBody) {
		pos := vec(tr.X, tr.Y)
		radius := pb.Radius
		if radius <= 0 {
			radius = 6
		}
		sx, sy := (pos.X-camX)*zoom, (pos.Y-camY)*zoom
		vector.FillCircle(screen, float32(sx), float32(sy), float32(radius*zoom), agent.Color, true)
		facing := pos.Add(cp.ForAngle(tr.Rotation).Mult(radius * 1.6))
		drawWorldLine(screen, pos, facing, camX, camY, zoom, selectionColor)
		if ecs.Has(w, e, component.SelectedTagComponent.Kind()) {
			drawWorldCircle(screen, pos, radius+3, camX, camY, zoom, selectionColor)
		}
		if !showForces {
			return
		}
		dbg, ok := ecs.Get(w, e, component.SteeringDebugComponent.Kind())
		if !ok {
			return
		}
		scale := radius * 3
		for i, f := range []cp.Vector{dbg.Forces.Separation, dbg.Forces.Cohesion, dbg.Forces.Alignment, dbg.Forces.Flow} {
			if f.LengthSq() == 0 {
				continue
			}
			drawWorldLine(screen, pos, pos.Add(f.Mult(scale)), camX, camY, zoom, forceColors[i])
		}
	})
}

// DrawNavigationStatus prints tick, order and error state in the corner.
func DrawNavigationStatus(n *system.Navigation, screen *ebiten.Image, x, y int) {
	if n == nil || screen == nil {
		return
	}
	orders := 0
	if n.Registry != nil {
		orders = len(n.Registry.ActiveOrders())
	}
	status := "grid: pending"
	if n.Grid != nil {
		status = fmt.Sprintf("grid: %dx%d", n.Grid.Width, n.Grid.Height)
	}
	text := fmt.Sprintf("tick: %d\n%s\norders: %d", n.Tick, status, orders)
	if n.LastError != nil {
		text += "\nlast error: " + n.LastError.Error()
	}
	ebitenutil.DebugPrintAt(screen, text, x, y)
}

type physicsDebugDrawer struct {
	screen *ebiten.Image
	camX   float64
	camY   float64
	zoom   float64
}

func (d *physicsDebugDrawer) DrawCircle(pos cp.Vector, angle, radius float64, outline, fill cp.FColor, data interface{}) {
	if radius <= 0 {
		return
	}
	c := toNRGBA(outline)
	drawWorldCircle(d.screen, pos, radius, d.camX, d.camY, d.zoom, c)
	end := cp.Vector{X: pos.X + math.Cos(angle)*radius, Y: pos.Y + math.Sin(angle)*radius}
	drawWorldLine(d.screen, pos, end, d.camX, d.camY, d.zoom, c)
}

func (d *physicsDebugDrawer) DrawSegment(a, b cp.Vector, fill cp.FColor, data interface{}) {
	drawWorldLine(d.screen, a, b, d.camX, d.camY, d.zoom, toNRGBA(fill))
}

func (d *physicsDebugDrawer) DrawFatSegment(a, b cp.Vector, radius float64, outline, fill cp.FColor, data interface{}) {
	c := toNRGBA(outline)
	drawWorldLine(d.screen, a, b, d.camX, d.camY, d.zoom, c)
	if radius > 0 {
		drawWorldCircle(d.screen, a, radius, d.camX, d.camY, d.zoom, c)
		drawWorldCircle(d.screen, b, radius, d.camX, d.camY, d.zoom, c)
	}
}

func (d *physicsDebugDrawer) DrawPolygon(count int, verts []cp.Vector, radius float64, outline, fill cp.FColor, data interface{}) {
	if count <= 0 {
		return
	}
	drawWorldPolygon(d.screen, verts[:count], d.camX, d.camY, d.zoom, toNRGBA(outline))
}

func (d *physicsDebugDrawer) DrawDot(size float64, pos cp.Vector, fill cp.FColor, data interface{}) {
	if size <= 0 {
		size = debugDotSize
	}
	half := size / 2
	c := toNRGBA(fill)
	drawWorldLine(d.screen, cp.Vector{X: pos.X - half, Y: pos.Y}, cp.Vector{X: pos.X + half, Y: pos.Y}, d.camX, d.camY, d.zoom, c)
	drawWorldLine(d.screen, cp.Vector{X: pos.X, Y: pos.Y - half}, cp.Vector{X: pos.X, Y: pos.Y + half}, d.camX, d.camY, d.zoom, c)
}

func (d *physicsDebugDrawer) Flags() uint {
	return cp.DRAW_SHAPES
}

func (d *physicsDebugDrawer) OutlineColor() cp.FColor {
	return cp.FColor{R: 0.2, G: 1, B: 0.2, A: 0.9}
}

func (d *physicsDebugDrawer) ShapeColor(shape *cp.Shape, data interface{}) cp.FColor {
	return cp.FColor{R: 0.1, G: 0.6, B: 0.1, A: 0.5}
}

func (d *physicsDebugDrawer) ConstraintColor() cp.FColor {
	return cp.FColor{R: 1, G: 0.5, B: 0.1, A: 0.9}
}

func (d *physicsDebugDrawer) CollisionPointColor() cp.FColor {
	return cp.FColor{R: 1, G: 0.2, B: 0.2, A: 0.9}
}

func (d *physicsDebugDrawer) Data() interface{} {
	return nil
}

func drawWorldLine(screen *ebiten.Image, a, b cp.Vector, camX, camY, zoom float64, c color.Color) {
	x1, y1 := (a.X-camX)*zoom, (a.Y-camY)*zoom
	x2, y2 := (b.X-camX)*zoom, (b.Y-camY)*zoom
	vector.StrokeLine(screen, float32(x1), float32(y1), float32(x2), float32(y2), 1, c, true)
}

func drawWorldPolygon(screen *ebiten.Image, verts []cp.Vector, camX, camY, zoom float64, c color.Color) {
	for i := 0; i < len(verts); i++ {
		drawWorldLine(screen, verts[i], verts[(i+1)%len(verts)], camX, camY, zoom, c)
	}
}

func drawWorldCircle(screen *ebiten.Image, center cp.Vector, radius, camX, camY, zoom float64, c color.Color) {
	if radius <= 0 {
		return
	}
	points := make([]cp.Vector, 0, debugCircleSegments)
	for i := 0; i < debugCircleSegments; i++ {
		t := (2 * math.Pi) * (float64(i) / float64(debugCircleSegments))
		points = append(points, cp.Vector{X: center.X + math.Cos(t)*radius, Y: center.Y + math.Sin(t)*radius})
	}
	drawWorldPolygon(screen, points, camX, camY, zoom, c)
}

func toNRGBA(c cp.FColor) color.NRGBA {
	return color.NRGBA{
		R: uint8(clamp01(c.R) * 255),
		G: uint8(clamp01(c.G) * 255),
		B: uint8(clamp01(c.B) * 255),
		A: uint8(clamp01(c.A) * 255),
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func debugCameraTransform(w *ecs.World) (float64, float64, float64) {
	camX, camY := 0.0, 0.0
	zoom := 1.0
	if w == nil {
		return camX, camY, zoom
	}
	camEntity, ok := w.First(component.CameraComponent.Kind())
	if !ok {
		return camX, camY, zoom
	}
	if camTransform, ok := ecs.Get(w, camEntity, component.TransformComponent.Kind()); ok {
		camX = camTransform.X
		camY = camTransform.Y
	}
	if camComp, ok := ecs.Get(w, camEntity, component.CameraComponent.Kind()); ok && camComp.Zoom > 0 {
		zoom = camComp.Zoom
	}
	return camX, camY, zoom
}

func vec(x, y float64) cp.Vector {
	return cp.Vector{X: x, Y: y}
}
