package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/annel0/tileworld/internal/api"
	"github.com/annel0/tileworld/internal/config"
	"github.com/annel0/tileworld/internal/logging"
	"github.com/annel0/tileworld/internal/pipeline"
	"github.com/annel0/tileworld/internal/ruleset"
	"github.com/annel0/tileworld/internal/vec"
	"github.com/annel0/tileworld/internal/world"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML конфигурация (необязательно)")
		seed       = flag.Int64("seed", 0, "сид мира (0: из конфигурации)")
		x          = flag.Int("x", 0, "координата чанка X")
		y          = flag.Int("y", 0, "координата чанка Y")
		noPaths    = flag.Bool("no-paths", false, "не прокладывать дороги")
		settle     = flag.Bool("settle", false, "считать чанк поселением")
		density    = flag.Float64("density", -1, "плотность точек маршрута [0,1]")
		rulesDir   = flag.String("rules", "", "каталог с правилами вместо встроенных")
		strict     = flag.Bool("strict", false, "строгая проверка симметрии правил")
		format     = flag.String("format", "map", "вывод: map, json, stats")
		verbose    = flag.Bool("v", false, "подробный лог")
	)
	flag.Parse()

	level := logging.WARN
	if *verbose {
		level = logging.DEBUG
	}
	logging.SetDefaultLogger(logging.NewConsoleLogger("chunk-dump", os.Stderr, level))
	logging.GetLoggerManager().Configure(false, level)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Конфигурация: %v", err)
	}
	if *seed != 0 {
		cfg.World.Seed = *seed
	}
	if *noPaths {
		disabled := false
		cfg.Paths.Enabled = &disabled
	}

	opts := ruleset.Options{Strict: *strict || cfg.Ruleset.Strict}
	var rules *ruleset.Set
	switch dir := firstNonEmpty(*rulesDir, cfg.Ruleset.Dir); dir {
	case "":
		rules, err = ruleset.LoadDefault(opts)
	default:
		rules, err = ruleset.LoadDir(dir, opts)
	}
	if err != nil {
		log.Fatalf("❌ Правила: %v", err)
	}

	pcfg := pipeline.ConfigFrom(cfg)
	if *density >= 0 {
		pcfg.Paths.Density = *density
	}
	if *settle {
		pcfg.Settlements.Probability = 1
	}
	gen, err := pipeline.New(pcfg, pipeline.Deps{Rules: rules})
	if err != nil {
		log.Fatalf("❌ Конвейер: %v", err)
	}
	defer gen.Close()

	coords := vec.Vec2{X: *x, Y: *y}
	start := time.Now()
	chunk, err := gen.Generate(context.Background(), coords)
	if err != nil {
		log.Fatalf("❌ Генерация %v: %v", coords, err)
	}
	took := time.Since(start)

	switch *format {
	case "map":
		fmt.Print(chunk.RenderASCII())
		fmt.Println()
		printStats(chunk, pcfg.Seed, took)
	case "stats":
		printStats(chunk, pcfg.Seed, took)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(api.Summarize(chunk)); err != nil {
			log.Fatalf("❌ JSON: %v", err)
		}
	default:
		log.Fatalf("❌ Неизвестный формат %q", *format)
	}
}

func printStats(c *world.Chunk, seed int64, took time.Duration) {
	s := api.Summarize(c)
	fmt.Printf("Чанк (%d,%d), сид %d, %v\n", s.X, s.Y, seed, took.Round(time.Microsecond))
	fmt.Printf("  объектов: %d, размещений: %d, дорог: %d\n", s.Objects, s.Placements, s.Paths)
	fmt.Printf("  поселение: %v, домов: %d\n", s.Settled, s.Buildings)
	fmt.Printf("  попыток WFC: %d, откат на Empty: %v\n", s.Attempts, s.Degraded)

	names := make([]string, 0, len(s.Terrain))
	for name := range s.Terrain {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-12s %4d\n", name, s.Terrain[name])
	}
	fmt.Println("Легенда: ~ глубокая вода, - мелководье, . песок, , трава, ; лес, T дерево, R руины, * декор, = | + дороги")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
