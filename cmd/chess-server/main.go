package main

import (
	"flag"
	"log"

	"github.com/hailam/chessgui/internal/engine"
	"github.com/hailam/chessgui/internal/server"
	"github.com/hailam/chessgui/internal/storage"
)

var (
	addr       = flag.String("addr", ":3000", "listen address")
	origins    = flag.String("origins", "", "allowed CORS origins (default: any)")
	dataDir    = flag.String("data", "", "database directory (default: platform data dir, \"none\" disables saves)")
	difficulty = flag.String("difficulty", "medium", "engine difficulty: easy, medium or hard")
	depth      = flag.Int("depth", 0, "engine search depth in plies (default: from difficulty)")
	hintDepth  = flag.Int("hint-depth", engine.HintDepth, "hint search depth in plies")
)

func main() {
	flag.Parse()

	d, err := engine.ParseDifficulty(*difficulty)
	if err != nil {
		log.Fatal(err)
	}

	var store *storage.Storage
	switch *dataDir {
	case "none":
	case "":
		store, err = storage.NewStorage()
	default:
		store, err = storage.Open(*dataDir)
	}
	if err != nil {
		log.Fatal("could not open storage: ", err)
	}
	if store != nil {
		defer store.Close()
	}

	manager := server.NewManager(server.Config{
		Store:      store,
		Difficulty: d,
		AIDepth:    *depth,
		HintDepth:  *hintDepth,
	})
	app := server.New(manager, *origins)

	log.Printf("[HTTP] Listening on %s", *addr)
	if err := app.Listen(*addr); err != nil {
		log.Print(err)
	}
}
