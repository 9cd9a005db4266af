package main

import (
	"image/color"
	"math"

	"github.com/abagaild/lupine-engine-sub002/common"
	"github.com/abagaild/lupine-engine-sub002/physics"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jakecoffman/cp"
)

var (
	staticColor    = color.RGBA{R: 0x66, G: 0xb3, B: 0xff, A: 0xff}
	kinematicColor = color.RGBA{R: 0x33, G: 0xff, B: 0x33, A: 0xff}
	dynamicColor   = color.RGBA{R: 0xe6, G: 0x66, B: 0xe6, A: 0xff}
	sensorColor    = color.RGBA{R: 0xff, G: 0xd9, B: 0x33, A: 0xff}
)

// outlineDrawer strokes body outlines onto screen. The world is y-up, the
// screen y-down, and camX scrolls horizontally.
type outlineDrawer struct {
	screen *ebiten.Image
	camX   float64
}

func (d *outlineDrawer) toScreen(v cp.Vector) (float32, float32) {
	return float32(v.X - d.camX), float32(common.BaseHeight - v.Y)
}

func (d *outlineDrawer) line(a, b cp.Vector, c color.Color) {
	x0, y0 := d.toScreen(a)
	x1, y1 := d.toScreen(b)
	vector.StrokeLine(d.screen, x0, y0, x1, y1, 1, c, true)
}

func (d *outlineDrawer) circle(center cp.Vector, radius float64, c color.Color) {
	x, y := d.toScreen(center)
	vector.StrokeCircle(d.screen, x, y, float32(radius), 1, c, true)
}

func (d *outlineDrawer) drawBody(w *physics.World, h physics.Handle) {
	if d.screen == nil {
		return
	}
	kind, _ := w.Kind(h)
	for _, o := range w.Outlines(h) {
		c := bodyColor(kind, o.Sensor)
		switch o.Kind {
		case physics.ShapeCircle:
			d.circle(o.Points[0], o.Radius, c)
		case physics.ShapeSegment:
			d.fatSegment(o.Points[0], o.Points[1], o.Radius, c)
		default:
			for i := range o.Points {
				d.line(o.Points[i], o.Points[(i+1)%len(o.Points)], c)
			}
		}
	}
}

func (d *outlineDrawer) fatSegment(a, b cp.Vector, radius float64, c color.Color) {
	if radius <= 0.5 {
		d.line(a, b, c)
		return
	}
	n := b.Sub(a).Perp().Normalize().Mult(radius)
	d.line(a.Add(n), b.Add(n), c)
	d.line(a.Sub(n), b.Sub(n), c)
	d.circle(a, radius, c)
	d.circle(b, radius, c)
}

// arrow draws a short normal indicator, used for floor and wall normals.
func (d *outlineDrawer) arrow(from, dir cp.Vector, c color.Color) {
	if dir.LengthSq() == 0 {
		return
	}
	tip := from.Add(dir.Normalize().Mult(16))
	d.line(from, tip, c)
	back := dir.Normalize().Mult(-5)
	d.line(tip, tip.Add(back.Rotate(cp.ForAngle(math.Pi/6))), c)
	d.line(tip, tip.Add(back.Rotate(cp.ForAngle(-math.Pi/6))), c)
}

func bodyColor(kind physics.BodyKind, sensor bool) color.Color {
	if sensor {
		return sensorColor
	}
	switch kind {
	case physics.BodyStatic:
		return staticColor
	case physics.BodyKinematic:
		return kinematicColor
	}
	return dynamicColor
}
