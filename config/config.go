// Package config holds the single authoritative set of tunable constants
// for the match service. A Config value is built once at process start and
// threaded explicitly into every component that needs it; nothing in this
// package is a package-level singleton.
package config

import "time"

// Config holds every tunable parameter of the physics kernel, the match
// state machine, and the connection endpoint.
type Config struct {
	// Field of play.
	FieldWidth  float64 `json:"fieldWidth"`
	FieldHeight float64 `json:"fieldHeight"`

	// Paddle.
	PaddleWidth  float64 `json:"paddleWidth"`
	PaddleHeight float64 `json:"paddleHeight"`
	PaddleStep   float64 `json:"paddleStep"`

	// Ball.
	BallRadius   float64 `json:"ballRadius"`
	InitialSpeed float64 `json:"initialSpeed"`
	MaxSpeed     float64 `json:"maxSpeed"`
	SpeedRamp    float64 `json:"speedRamp"` // multiplier applied on every paddle hit

	// Scoring.
	MaxScore int `json:"maxScore"`

	// Tick source.
	TickRate time.Duration `json:"tickRate"` // e.g. time.Second/60

	// Match lifecycle timing. CountdownTick is the interval between
	// countdown frames, one second in production; tests shrink it to
	// drive a match into Playing without real-time waits.
	CountdownSeconds  int           `json:"countdownSeconds"`
	CountdownTick     time.Duration `json:"countdownTick"`
	ReconnectGrace    time.Duration `json:"reconnectGrace"`
	CleanupDelay      time.Duration `json:"cleanupDelay"`
	IdleConnectionTTL time.Duration `json:"idleConnectionTtl"`
	PingCadence       time.Duration `json:"pingCadence"`
	AskTimeout        time.Duration `json:"askTimeout"`

	// Outbound per-connection queue depth before snapshots start dropping.
	OutboundQueueDepth int `json:"outboundQueueDepth"`
}

// Default returns the authoritative game constants: an 800x600 field,
// 60 Hz tick rate, score cap of 11.
func Default() Config {
	return Config{
		FieldWidth:  800,
		FieldHeight: 600,

		PaddleWidth:  15,
		PaddleHeight: 100,
		PaddleStep:   6,

		BallRadius:   8,
		InitialSpeed: 5,
		MaxSpeed:     12,
		SpeedRamp:    1.05,

		MaxScore: 11,

		TickRate: time.Second / 60,

		CountdownSeconds:  3,
		CountdownTick:     time.Second,
		ReconnectGrace:    30 * time.Second,
		CleanupDelay:      5 * time.Second,
		IdleConnectionTTL: 60 * time.Second,
		PingCadence:       25 * time.Second,
		AskTimeout:        500 * time.Millisecond,

		OutboundQueueDepth: 8,
	}
}

// Fast returns a config tuned for quick, deterministic test runs: a tiny
// score cap and near-zero lifecycle timers, same field and physics
// constants as Default so the invariants under test still hold.
func Fast() Config {
	cfg := Default()
	cfg.MaxScore = 3
	cfg.TickRate = time.Millisecond
	cfg.CountdownSeconds = 0
	cfg.ReconnectGrace = 50 * time.Millisecond
	cfg.CleanupDelay = 10 * time.Millisecond
	cfg.IdleConnectionTTL = 200 * time.Millisecond
	cfg.PingCadence = 50 * time.Millisecond
	cfg.AskTimeout = 50 * time.Millisecond
	return cfg
}
