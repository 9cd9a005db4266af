package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/abagaild/lupine-engine-sub002/scene"
	"github.com/abagaild/lupine-engine-sub002/sim"
)

// held presses a fixed set of actions on every frame.
type held map[string]bool

func (h held) Pressed(action string) bool     { return h[action] }
func (h held) JustPressed(action string) bool { return h[action] }

func main() {
	sceneName := flag.String("scene", "sandbox.yaml", "scene in prefabs/, or a path to a .yaml/.tmx file")
	frames := flag.Int("frames", 120, "frames to simulate")
	tps := flag.Int("tps", 60, "frames per simulated second")
	every := flag.Int("every", 30, "print body state every N frames (0 prints only the last frame)")
	strict := flag.Bool("strict", false, "abort on the first binding or script error")
	actions := flag.String("hold", "", "comma-separated actions held down for the whole run, e.g. right,jump")
	flag.Parse()

	if err := run(os.Stdout, *sceneName, *frames, *tps, *every, *strict, *actions); err != nil {
		log.Fatal(err)
	}
}

func run(out io.Writer, name string, frames, tps, every int, strict bool, actions string) error {
	if tps <= 0 {
		return fmt.Errorf("simulate: tps must be positive, got %d", tps)
	}
	s, err := open(name, sim.Options{Strict: strict})
	if err != nil {
		return err
	}
	defer s.Close()

	in := held{}
	for _, a := range strings.Split(actions, ",") {
		if a = strings.TrimSpace(a); a != "" {
			in[a] = true
		}
	}

	dt := 1 / float64(tps)
	for i := 1; i <= frames; i++ {
		if err := s.Step(dt, in); err != nil {
			return fmt.Errorf("simulate: frame %d: %w", i, err)
		}
		if (every > 0 && i%every == 0) || i == frames {
			fmt.Fprintf(out, "frame %d\n", i)
			for _, sn := range s.Snapshots() {
				fmt.Fprintf(out, "  %s\n", sn)
			}
		}
	}
	return nil
}

// open reads name from disk when it is an existing file and from prefabs
// otherwise.
func open(name string, opts sim.Options) (*sim.Session, error) {
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		doc, err := scene.Load(os.DirFS(filepath.Dir(name)), filepath.Base(name))
		if err != nil {
			return nil, err
		}
		return sim.Build(doc, opts)
	}
	return sim.Open(name, opts)
}
