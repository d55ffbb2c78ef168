// Package kiosk assembles the presence-aware assistant: websocket hub,
// vision-based presence tracking, dialogue orchestration, speech gating, and
// the avatar stream, behind one Fiber server.
package kiosk

import (
	"fmt"
	"time"

	"github.com/rashidlabs/go-kiosk/internal/config"
	"github.com/rashidlabs/go-kiosk/pkg/avatar"
	"github.com/rashidlabs/go-kiosk/pkg/dialogue"
	"github.com/rashidlabs/go-kiosk/pkg/presence"
	"github.com/rashidlabs/go-kiosk/pkg/vision"
)

// Config holds the full kiosk configuration.
type Config struct {
	Host      string
	Port      int
	LogLevel  string
	StaticDir string // Served at /; empty disables static serving

	GeminiAPIKey string
	GeminiModel  string

	ProgramsPath string
	RulesPath    string

	// CameraIndex selects a server-attached camera for presence watching.
	// Negative disables it; presence then relies on client-streamed frames.
	CameraIndex int

	FrameSkip     int           // Classify 1 in N incoming frames
	RotationEvery int           // Rotation fallback on every Nth classified frame
	MaxHistory    int           // Per-session transcript cap
	FramePeriod   time.Duration // Avatar frame emission period
	WatchdogPad   time.Duration // Added to estimated speech duration before forced release

	Presence presence.Config
	Dialogue dialogue.Config
	Vision   vision.Config
	Avatar   avatar.LibraryConfig
}

// DefaultConfig returns production kiosk settings.
func DefaultConfig() Config {
	return Config{
		Host:          "0.0.0.0",
		Port:          8080,
		LogLevel:      "info",
		StaticDir:     "static",
		GeminiModel:   "gemini-2.0-flash",
		ProgramsPath:  "data/programs.json",
		RulesPath:     "data/rules.json",
		CameraIndex:   -1,
		FrameSkip:     5,
		RotationEvery: 4,
		MaxHistory:    20,
		FramePeriod:   33 * time.Millisecond,
		WatchdogPad:   time.Second,
		Presence:      presence.DefaultConfig(),
		Dialogue:      dialogue.DefaultConfig(),
		Vision:        vision.DefaultConfig(),
		Avatar:        avatar.DefaultLibraryConfig(),
	}
}

// LoadEnv returns the default configuration overlaid with environment
// variables. A .env file in the working directory is honored.
func LoadEnv() Config {
	config.LoadDotenv()

	cfg := DefaultConfig()
	cfg.Host = config.Env("KIOSK_HOST", cfg.Host)
	cfg.Port = config.EnvInt("KIOSK_PORT", cfg.Port)
	cfg.LogLevel = config.Env("KIOSK_LOG_LEVEL", cfg.LogLevel)
	cfg.StaticDir = config.Env("KIOSK_STATIC_DIR", cfg.StaticDir)

	cfg.GeminiAPIKey = config.Env("GEMINI_API_KEY", "")
	cfg.GeminiModel = config.Env("GEMINI_MODEL", cfg.GeminiModel)

	cfg.ProgramsPath = config.Env("KIOSK_PROGRAMS_PATH", cfg.ProgramsPath)
	cfg.RulesPath = config.Env("KIOSK_RULES_PATH", cfg.RulesPath)
	cfg.CameraIndex = config.EnvInt("KIOSK_CAMERA_INDEX", cfg.CameraIndex)

	cfg.Presence.EnterDelay = config.EnvDuration("KIOSK_ENTER_DELAY", cfg.Presence.EnterDelay)
	cfg.Presence.LeaveDelay = config.EnvDuration("KIOSK_LEAVE_DELAY", cfg.Presence.LeaveDelay)
	cfg.Presence.PostSpeechGrace = config.EnvDuration("KIOSK_POST_SPEECH_GRACE", cfg.Presence.PostSpeechGrace)

	cfg.Dialogue.DedupeWindow = config.EnvDuration("KIOSK_DEDUPE_WINDOW", cfg.Dialogue.DedupeWindow)
	cfg.Dialogue.GreetCooldown = config.EnvDuration("KIOSK_GREET_COOLDOWN", cfg.Dialogue.GreetCooldown)
	cfg.Dialogue.FarewellCooldown = config.EnvDuration("KIOSK_FAREWELL_COOLDOWN", cfg.Dialogue.FarewellCooldown)

	cfg.Vision.FrontalCascadePath = config.Env("KIOSK_FRONTAL_CASCADE", cfg.Vision.FrontalCascadePath)
	cfg.Vision.ProfileCascadePath = config.Env("KIOSK_PROFILE_CASCADE", cfg.Vision.ProfileCascadePath)

	cfg.Avatar.IdleVideoPath = config.Env("KIOSK_AVATAR_IDLE", cfg.Avatar.IdleVideoPath)
	cfg.Avatar.TalkingVideoPath = config.Env("KIOSK_AVATAR_TALKING", cfg.Avatar.TalkingVideoPath)
	cfg.Avatar.FallbackImage = config.Env("KIOSK_AVATAR_FALLBACK", cfg.Avatar.FallbackImage)

	return cfg
}

// Validate reports whether the configuration can serve.
func (c Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return nil
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
