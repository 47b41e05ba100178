package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Snapshot encodings
const (
	EncodingMsgpack = "msgpack"
	EncodingJSON    = "json"
)

// Config holds every fixed simulation constant. It never changes after the
// game starts.
type Config struct {
	Cols int
	Rows int

	TickInterval      time.Duration
	ProjectileStep    time.Duration
	BotDecision       time.Duration
	ShotCooldown      time.Duration
	Invulnerability   time.Duration
	RespawnShotGrace  time.Duration
	ExplosionDuration time.Duration
	ExplosionFrame    time.Duration
	BotRespawnDelay   time.Duration
	BotCount          int
	Walls             []Vec
	SnapshotEncoding  string
	InitialPoolSize   int
	SpawnAttempts     int
	MaxPlayers        int
}

// DefaultConfig returns the stock arena: 50x30, no walls, three bots
func DefaultConfig() Config {
	return Config{
		Cols:              50,
		Rows:              30,
		TickInterval:      100 * time.Millisecond,
		ProjectileStep:    100 * time.Millisecond,
		BotDecision:       200 * time.Millisecond,
		ShotCooldown:      300 * time.Millisecond,
		Invulnerability:   2 * time.Second,
		RespawnShotGrace:  2 * time.Second,
		ExplosionDuration: 600 * time.Millisecond,
		ExplosionFrame:    200 * time.Millisecond,
		BotRespawnDelay:   3 * time.Second,
		BotCount:          3,
		SnapshotEncoding:  EncodingMsgpack,
		InitialPoolSize:   64,
		SpawnAttempts:     200,
		MaxPlayers:        32,
	}
}

// Validate rejects configurations the simulation cannot run with
func (c Config) Validate() error {
	if c.Cols < FootprintSize || c.Rows < FootprintSize {
		return fmt.Errorf("board %dx%d smaller than %dx%d", c.Cols, c.Rows, FootprintSize, FootprintSize)
	}
	intervals := map[string]time.Duration{
		"tick_ms":            c.TickInterval,
		"projectile_step_ms": c.ProjectileStep,
		"bot_decision_ms":    c.BotDecision,
		"explosion_frame_ms": c.ExplosionFrame,
	}
	for name, d := range intervals {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	windows := map[string]time.Duration{
		"shot_cooldown_ms": c.ShotCooldown,
		"invulnerable_ms":  c.Invulnerability,
		"shot_grace_ms":    c.RespawnShotGrace,
		"bot_respawn_ms":   c.BotRespawnDelay,
	}
	for name, d := range windows {
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	if c.ExplosionDuration < c.ExplosionFrame*2 {
		return errors.New("explosion_ms must cover at least two frames")
	}
	if c.BotCount < 0 {
		return errors.New("bot_count must not be negative")
	}
	if c.MaxPlayers < 1 {
		return errors.New("max_players must be at least 1")
	}
	for _, w := range c.Walls {
		if w.X < 0 || w.X >= c.Cols || w.Y < 0 || w.Y >= c.Rows {
			return fmt.Errorf("wall (%d,%d) outside board", w.X, w.Y)
		}
	}
	switch c.SnapshotEncoding {
	case EncodingMsgpack, EncodingJSON:
	default:
		return fmt.Errorf("unknown snapshot encoding %q", c.SnapshotEncoding)
	}
	return nil
}

// fileConfig is the TOML shape; durations are milliseconds and an omitted
// key keeps the default
type fileConfig struct {
	Board struct {
		Cols  int    `toml:"cols"`
		Rows  int    `toml:"rows"`
		Walls []Vec  `toml:"walls"`
		Map   string `toml:"map"`
	} `toml:"board"`
	Timing struct {
		TickMS           *int64 `toml:"tick_ms"`
		ProjectileStepMS *int64 `toml:"projectile_step_ms"`
		BotDecisionMS    *int64 `toml:"bot_decision_ms"`
		ShotCooldownMS   *int64 `toml:"shot_cooldown_ms"`
		InvulnerableMS   *int64 `toml:"invulnerable_ms"`
		ShotGraceMS      *int64 `toml:"shot_grace_ms"`
		ExplosionMS      *int64 `toml:"explosion_ms"`
		ExplosionFrameMS *int64 `toml:"explosion_frame_ms"`
		BotRespawnMS     *int64 `toml:"bot_respawn_ms"`
	} `toml:"timing"`
	Bots struct {
		Count *int `toml:"count"`
	} `toml:"bots"`
	Server struct {
		SnapshotEncoding string `toml:"snapshot_encoding"`
		MaxPlayers       int    `toml:"max_players"`
	} `toml:"server"`
}

// LoadConfig reads a TOML file on top of DefaultConfig. An empty path
// returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.applyTOML(raw); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyTOML(raw []byte) error {
	var fc fileConfig
	if err := toml.Unmarshal(raw, &fc); err != nil {
		return err
	}

	if fc.Board.Map != "" {
		cols, rows, walls, err := ParseWallMap(fc.Board.Map)
		if err != nil {
			return err
		}
		c.Cols, c.Rows = cols, rows
		c.Walls = append(c.Walls, walls...)
	}
	if fc.Board.Cols > 0 {
		c.Cols = fc.Board.Cols
	}
	if fc.Board.Rows > 0 {
		c.Rows = fc.Board.Rows
	}
	c.Walls = append(c.Walls, fc.Board.Walls...)

	setMS(&c.TickInterval, fc.Timing.TickMS)
	setMS(&c.ProjectileStep, fc.Timing.ProjectileStepMS)
	setMS(&c.BotDecision, fc.Timing.BotDecisionMS)
	setMS(&c.ShotCooldown, fc.Timing.ShotCooldownMS)
	setMS(&c.Invulnerability, fc.Timing.InvulnerableMS)
	setMS(&c.RespawnShotGrace, fc.Timing.ShotGraceMS)
	setMS(&c.ExplosionDuration, fc.Timing.ExplosionMS)
	setMS(&c.ExplosionFrame, fc.Timing.ExplosionFrameMS)
	setMS(&c.BotRespawnDelay, fc.Timing.BotRespawnMS)

	if fc.Bots.Count != nil {
		c.BotCount = *fc.Bots.Count
	}
	if fc.Server.SnapshotEncoding != "" {
		c.SnapshotEncoding = strings.ToLower(fc.Server.SnapshotEncoding)
	}
	if fc.Server.MaxPlayers > 0 {
		c.MaxPlayers = fc.Server.MaxPlayers
	}
	return nil
}

func setMS(d *time.Duration, ms *int64) {
	if ms != nil {
		*d = time.Duration(*ms) * time.Millisecond
	}
}

// ParseWallMap reads an ASCII layout where '#' is a wall and any other
// character is floor. The board size is taken from the widest line and the
// number of non-empty lines.
func ParseWallMap(contents string) (cols, rows int, walls []Vec, err error) {
	scanner := bufio.NewScanner(strings.NewReader(contents))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if line == "" {
			continue
		}
		for x, ch := range []rune(line) {
			if ch == '#' {
				walls = append(walls, Vec{X: x, Y: rows})
			}
		}
		if n := len([]rune(line)); n > cols {
			cols = n
		}
		rows++
	}
	if err := scanner.Err(); err != nil {
		return 0, 0, nil, err
	}
	if rows == 0 {
		return 0, 0, nil, errors.New("empty wall map")
	}
	return cols, rows, walls, nil
}
