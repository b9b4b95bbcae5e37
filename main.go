package main

import (
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/gonewx/laststand/pkg/app"
)

func main() {
	cfg := app.ParseFlags()

	a, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("failed to initialize: %v", err)
	}

	ebiten.SetWindowSize(app.GameWindowWidth, app.GameWindowHeight)
	ebiten.SetWindowTitle("Last Stand")

	if err := ebiten.RunGame(a); err != nil {
		log.Fatal(err)
	}
}
