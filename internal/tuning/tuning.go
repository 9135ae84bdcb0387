package tuning

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/snrgy-studios/glorb-animator/internal/palette"
	"github.com/snrgy-studios/glorb-animator/internal/playback"
	"github.com/snrgy-studios/glorb-animator/internal/sim"
)

type Tuning struct {
	Subdivision int    `yaml:"subdivision"`
	MeshOBJ     string `yaml:"mesh_obj"`
	Seed        int64  `yaml:"seed"`

	Playback Playback     `yaml:"playback"`
	Snake    Snake        `yaml:"snake"`
	Palette  PaletteHexes `yaml:"palette"`
}

type Playback struct {
	MinIndex   int  `yaml:"min_index"`
	MaxIndex   int  `yaml:"max_index"`
	Loop       bool `yaml:"loop"`
	IntervalMs int  `yaml:"interval_ms"`
}

type Snake struct {
	InitialMaxLength int     `yaml:"initial_max_length"`
	SpawnThreshold   float64 `yaml:"spawn_threshold"`
	FoodThreshold    float64 `yaml:"food_threshold"`
	MaxSpawnsPerTick int     `yaml:"max_spawns_per_tick"`
	MaxFoodPerTick   int     `yaml:"max_food_per_tick"`
}

type PaletteHexes struct {
	Background string `yaml:"background"`
	Food       string `yaml:"food"`
}

func Defaults() Tuning {
	p := sim.DefaultParams()
	return Tuning{
		Subdivision: 2,
		Seed:        1337,
		Playback: Playback{
			MinIndex:   0,
			MaxIndex:   500,
			Loop:       true,
			IntervalMs: 300,
		},
		Snake: Snake{
			InitialMaxLength: p.InitialMaxLength,
			SpawnThreshold:   p.SpawnThreshold,
			FoodThreshold:    p.FoodThreshold,
			MaxSpawnsPerTick: p.MaxSpawnsPerTick,
			MaxFoodPerTick:   p.MaxFoodPerTick,
		},
		Palette: PaletteHexes{
			Background: "#0d0d0d",
			Food:       "#ffff00",
		},
	}
}

// Load reads path over Defaults(). An empty path returns the defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	if strings.TrimSpace(path) == "" {
		t.Normalize()
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.Normalize()
	// A relative mesh path names a file next to the tuning file.
	if t.MeshOBJ != "" && !filepath.IsAbs(t.MeshOBJ) {
		t.MeshOBJ = filepath.Join(filepath.Dir(path), t.MeshOBJ)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t *Tuning) Normalize() {
	if t == nil {
		return
	}
	t.MeshOBJ = strings.TrimSpace(t.MeshOBJ)
	t.Palette.Background = strings.TrimSpace(t.Palette.Background)
	t.Palette.Food = strings.TrimSpace(t.Palette.Food)
	// Update intervals below 10ms are raised to the floor.
	if t.Playback.IntervalMs > 0 && time.Duration(t.Playback.IntervalMs)*time.Millisecond < playback.MinInterval {
		t.Playback.IntervalMs = int(playback.MinInterval / time.Millisecond)
	}
}

func (t Tuning) Validate() error {
	if t.Subdivision < 1 {
		return fmt.Errorf("subdivision must be >= 1")
	}
	if t.Playback.MinIndex < 0 {
		return fmt.Errorf("playback.min_index must be >= 0")
	}
	if t.Playback.MaxIndex < t.Playback.MinIndex {
		return fmt.Errorf("playback.max_index %d must be >= min_index %d", t.Playback.MaxIndex, t.Playback.MinIndex)
	}
	if t.Playback.IntervalMs <= 0 {
		return fmt.Errorf("playback.interval_ms must be > 0")
	}
	if t.Snake.InitialMaxLength < 1 {
		return fmt.Errorf("snake.initial_max_length must be >= 1")
	}
	if t.Snake.SpawnThreshold < 0 || t.Snake.SpawnThreshold >= 1 {
		return fmt.Errorf("snake.spawn_threshold must be in [0, 1)")
	}
	if t.Snake.FoodThreshold < 0 || t.Snake.FoodThreshold >= 1 {
		return fmt.Errorf("snake.food_threshold must be in [0, 1)")
	}
	if t.Snake.MaxSpawnsPerTick < 1 {
		return fmt.Errorf("snake.max_spawns_per_tick must be >= 1")
	}
	if t.Snake.MaxFoodPerTick < 1 {
		return fmt.Errorf("snake.max_food_per_tick must be >= 1")
	}
	if _, err := t.Colors(); err != nil {
		return err
	}
	return nil
}

func (t Tuning) SimParams() sim.Params {
	return sim.Params{
		InitialMaxLength: t.Snake.InitialMaxLength,
		SpawnThreshold:   t.Snake.SpawnThreshold,
		FoodThreshold:    t.Snake.FoodThreshold,
		MaxSpawnsPerTick: t.Snake.MaxSpawnsPerTick,
		MaxFoodPerTick:   t.Snake.MaxFoodPerTick,
	}
}

func (t Tuning) PlaybackConfig() playback.Config {
	return playback.Config{
		Min:  t.Playback.MinIndex,
		Max:  t.Playback.MaxIndex,
		Loop: t.Playback.Loop,
	}
}

func (t Tuning) Interval() time.Duration {
	return time.Duration(t.Playback.IntervalMs) * time.Millisecond
}

func (t Tuning) Colors() (palette.Palette, error) {
	return palette.FromHex(t.Palette.Background, t.Palette.Food)
}
