package main

import (
	"flag"
	"log"

	"github.com/abagaild/lupine-engine-sub002/common"
	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	sceneName := flag.String("scene", "sandbox.yaml", "scene in prefabs/ (.yaml document or .tmx map)")
	debug := flag.Bool("debug", false, "list every body and draw contact normals")
	strict := flag.Bool("strict", false, "abort on the first binding or script error")
	watch := flag.Bool("watch", false, "reload scenes and scripts edited under prefabs/")
	baseMonitor := flag.Bool("m", false, "use base monitor instead of primary (for multi-monitor setups)")
	flag.Parse()

	if *baseMonitor {
		ebiten.SetMonitor(ebiten.AppendMonitors(nil)[0])
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(common.BaseWidth, common.BaseHeight)
	ebiten.SetWindowTitle("lupine physics sandbox")

	game, err := NewGame(*sceneName, *debug, *strict, *watch)
	if err != nil {
		log.Fatal(err)
	}
	defer game.Close()

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
