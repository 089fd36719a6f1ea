package main

import (
	"flag"
	"log"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/hailam/chessgui/internal/console"
	"github.com/hailam/chessgui/internal/engine"
	"github.com/hailam/chessgui/internal/storage"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	dataDir    = flag.String("data", "", "database directory (default: platform data dir, \"none\" disables storage)")
	difficulty = flag.String("difficulty", "", "engine difficulty: easy, medium or hard")
	depth      = flag.Int("depth", 0, "engine search depth in plies")
	hintDepth  = flag.Int("hint-depth", 0, "hint search depth in plies")
	automated  = flag.String("ai", "", "comma separated sides played by the engine, e.g. black or white,black; \"none\" for two humans")
)

func main() {
	flag.Parse()

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
		log.Printf("CPU profiling enabled, writing to %s", profilePath)
	}

	store, err := openStore(*dataDir)
	if err != nil {
		log.Printf("Warning: storage not available: %v", err)
	}
	if store != nil {
		defer store.Close()
	}

	prefs := storage.DefaultPreferences()
	if store != nil {
		if prefs, err = store.LoadPreferences(); err != nil {
			log.Printf("Warning: preferences not loaded: %v", err)
		}
	}
	if err := applyFlags(prefs); err != nil {
		log.Fatal(err)
	}
	if store != nil {
		if err := store.SavePreferences(prefs); err != nil {
			log.Printf("Warning: preferences not saved: %v", err)
		}
	}

	c := console.New(console.Config{
		Store:      store,
		Automated:  prefs.AutomatedSides(),
		Difficulty: prefs.Difficulty,
		AIDepth:    prefs.AIDepth,
		HintDepth:  prefs.HintDepth,
	}, os.Stdout)

	if store != nil {
		if first, _ := store.IsFirstLaunch(); first {
			c.Run(strings.NewReader("help"))
			store.MarkFirstLaunchComplete()
		}
	}

	if err := c.Run(os.Stdin); err != nil {
		log.Fatal(err)
	}
}

func openStore(dir string) (*storage.Storage, error) {
	switch dir {
	case "none":
		return nil, nil
	case "":
		return storage.NewStorage()
	}
	return storage.Open(dir)
}

// applyFlags overrides the stored preferences with the flags given on the
// command line.
func applyFlags(prefs *storage.UserPreferences) error {
	var err error
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "difficulty":
			var d engine.Difficulty
			if d, err = engine.ParseDifficulty(*difficulty); err == nil {
				prefs.Difficulty = d
				prefs.AIDepth = engine.DifficultyDepth[d]
			}
		case "depth":
			prefs.AIDepth = *depth
		case "hint-depth":
			prefs.HintDepth = *hintDepth
		case "ai":
			prefs.Automated = nil
			for _, side := range strings.Split(*automated, ",") {
				if side = strings.TrimSpace(side); side != "" && side != "none" {
					prefs.Automated = append(prefs.Automated, side)
				}
			}
		}
	})
	return err
}
