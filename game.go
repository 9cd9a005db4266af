package main

import (
	"fmt"
	"image/color"
	"log"
	"math"
	"path/filepath"

	"github.com/abagaild/lupine-engine-sub002/common"
	"github.com/abagaild/lupine-engine-sub002/prefabs"
	"github.com/abagaild/lupine-engine-sub002/sim"
	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

var background = color.RGBA{R: 0x12, G: 0x14, B: 0x1a, A: 0xff}

type Game struct {
	frames int

	opts    sim.Options
	session *sim.Session
	input   *Input
	watcher *prefabs.Watcher

	debug    bool
	paused   bool
	stepOnce bool
	pauseUI  *ebitenui.UI

	camX  float64
	maxX  float64
	focus string
}

func NewGame(sceneName string, debug, strict, watch bool) (*Game, error) {
	opts := sim.Options{Strict: strict}
	session, err := sim.Open(sceneName, opts)
	if err != nil {
		return nil, err
	}

	spec, err := prefabs.LoadInputSpec()
	if err != nil {
		log.Printf("failed to load input actions: %v", err)
	}

	g := &Game{
		opts:    opts,
		session: session,
		input:   NewInput(spec),
		debug:   debug,
		focus:   "player",
	}
	g.pauseUI = NewPauseUI(g)
	g.measure()

	if watch {
		w, err := prefabs.NewWatcher(prefabs.DiskDir, filepath.Join(prefabs.DiskDir, "scripts"))
		if err != nil {
			log.Printf("hot reload disabled: %v", err)
		} else {
			g.watcher = w
		}
	}
	return g, nil
}

// measure finds how far right the scene reaches so the camera can stop there.
func (g *Game) measure() {
	g.maxX = 0
	w := g.session.World
	for _, h := range w.Bodies() {
		for _, o := range w.Outlines(h) {
			for _, p := range o.Points {
				g.maxX = math.Max(g.maxX, p.X+o.Radius)
			}
		}
	}
}

func (g *Game) Update() error {
	g.frames++
	g.input.Update()
	g.pollWatcher()

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.paused = !g.paused
	}
	if g.paused {
		g.pauseUI.Update()
		if !g.stepOnce {
			return nil
		}
		g.stepOnce = false
	}

	if err := g.session.Step(1/float64(ebiten.TPS()), g.input); err != nil {
		return err
	}
	g.follow()
	return nil
}

func (g *Game) follow() {
	h, ok := g.session.Body(g.focus)
	if !ok {
		return
	}
	pos, _ := g.session.World.Position(h)
	target := common.Clamp(pos.X-common.BaseWidth/2, 0, g.maxX-common.BaseWidth)
	g.camX = common.Lerp(g.camX, target, 0.1)
}

func (g *Game) pollWatcher() {
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
			g.apply(change)
		case err, ok := <-g.watcher.Errors:
			if ok {
				log.Printf("watch: %v", err)
			}
		default:
			return
		}
	}
}

func (g *Game) apply(change prefabs.Change) {
	next, err := g.session.Reload(change, g.opts)
	if err != nil {
		log.Printf("reload %s: %v", change.Path, err)
		return
	}
	if next != g.session {
		g.session = next
		g.measure()
	}
}

// reload rebuilds the scene from its source, keeping the current one on
// failure.
func (g *Game) reload() {
	g.apply(prefabs.Change{Path: g.session.Source})
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(background)

	d := &outlineDrawer{screen: screen, camX: g.camX}
	w := g.session.World
	for _, h := range w.Bodies() {
		d.drawBody(w, h)
	}

	hud := fmt.Sprintf("%s  frames: %d  FPS: %.2f", g.session.Doc.Name, g.session.Frames, ebiten.ActualFPS())
	if h, ok := g.session.Body(g.focus); ok {
		pos, _ := w.Position(h)
		vel, _ := w.Velocity(h)
		hud += fmt.Sprintf("\n%s pos=(%.1f, %.1f) vel=(%.1f, %.1f)", g.focus, pos.X, pos.Y, vel.X, vel.Y)
		if ctrl, ok := g.session.Host.Controllers().Get(h); ok {
			hud += fmt.Sprintf("\nfloor=%v wall=%v ceiling=%v", ctrl.IsOnFloor(), ctrl.IsOnWall(), ctrl.IsOnCeiling())
			if g.debug {
				d.arrow(pos, ctrl.FloorNormal(), staticColor)
				d.arrow(pos, ctrl.WallNormal(), dynamicColor)
			}
		}
	}
	if g.debug {
		for _, sn := range g.session.Snapshots() {
			hud += "\n" + sn.String()
		}
	}
	ebitenutil.DebugPrint(screen, hud)

	if g.paused {
		g.pauseUI.Draw(screen)
	}
}

func (g *Game) Close() {
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return common.BaseWidth, common.BaseHeight
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}
