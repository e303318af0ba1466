package pipeline

import (
	"github.com/annel0/tileworld/internal/config"
	"github.com/annel0/tileworld/internal/pathfinding"
	"github.com/annel0/tileworld/internal/settlement"
	"github.com/annel0/tileworld/internal/util"
	"github.com/annel0/tileworld/internal/wfc"
)

// ConfigFrom собирает параметры конвейера из файла конфигурации
func ConfigFrom(c *config.Config) Config {
	seed := c.World.GetSeed()

	noise := util.DefaultNoiseParams()
	if c.World.ElevationScale > 0 {
		noise.ElevationScale = c.World.ElevationScale
	}
	if c.World.MoistureScale > 0 {
		noise.MoistureScale = c.World.MoistureScale
	}
	if c.World.Octaves > 0 {
		noise.Octaves = c.World.Octaves
	}

	paths := pathfinding.DefaultConfig(seed)
	paths.Density = c.Paths.GetDensity()
	paths.Margin = c.Paths.GetMargin()
	paths.MaxExpansions = c.Paths.GetMaxExpansions()
	paths.CacheSize = c.Paths.GetCacheSize()

	settlements := settlement.DefaultConfig(seed)
	settlements.Probability = c.Settlements.GetProbability()
	settlements.Density = c.Settlements.GetBuildingDensity()

	return Config{
		Seed:               seed,
		Noise:              noise,
		PathsEnabled:       c.Paths.IsEnabled(),
		Paths:              paths,
		SettlementsEnabled: c.Settlements.IsEnabled(),
		Settlements:        settlements,
		ElevationPenalty:   c.Paths.GetElevationPenalty(),
		Wfc: wfc.Options{
			Seed:             seed,
			RetryBudget:      c.Wfc.GetRetryBudget(),
			FootprintRetries: c.Wfc.GetFootprintRetries(),
		},
		Workers:   c.Pipeline.GetWorkers(),
		QueueSize: c.Pipeline.GetQueueSize(),
	}
}
