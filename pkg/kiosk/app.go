package kiosk

import (
	"context"
	"encoding/base64"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/rashidlabs/go-kiosk/internal/log"
	"github.com/rashidlabs/go-kiosk/pkg/avatar"
	"github.com/rashidlabs/go-kiosk/pkg/dialogue"
	"github.com/rashidlabs/go-kiosk/pkg/hub"
	"github.com/rashidlabs/go-kiosk/pkg/llm"
	"github.com/rashidlabs/go-kiosk/pkg/presence"
	"github.com/rashidlabs/go-kiosk/pkg/protocol"
	"github.com/rashidlabs/go-kiosk/pkg/rag"
	"github.com/rashidlabs/go-kiosk/pkg/session"
	"github.com/rashidlabs/go-kiosk/pkg/speech"
	"github.com/rashidlabs/go-kiosk/pkg/vision"
)

// App is the assembled kiosk application.
type App struct {
	cfg Config

	hub       *hub.Hub
	lock      *speech.Lock
	tracker   *presence.Tracker
	sessions  *session.Store
	dialogue  *dialogue.Orchestrator
	scheduler *avatar.Scheduler

	// classifier is nil when the cascade files are unavailable; the kiosk
	// then serves conversation without vision-driven presence.
	classifier *vision.Classifier

	samplerMu sync.Mutex
	samplers  map[string]*vision.Sampler
}

// New wires the kiosk components from a validated configuration.
func New(cfg Config) (*App, error) {
	index, err := rag.Load(cfg.ProgramsPath, cfg.RulesPath)
	if err != nil {
		return nil, err
	}
	log.Info("knowledge base loaded",
		"programs", index.ProgramCount(), "rules", index.RuleCount())

	lib, err := avatar.LoadLibrary(cfg.Avatar)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:      cfg,
		hub:      hub.New("kiosk"),
		sessions: session.NewStore(cfg.MaxHistory),
		samplers: make(map[string]*vision.Sampler),
	}

	a.lock = speech.NewLock(cfg.WatchdogPad, speech.Events{
		OnSpeakingChanged: func(clientID string, speaking bool) {
			a.hub.SendEvent(clientID, protocol.EventSpeakingChanged,
				protocol.SpeakingData{Speaking: speaking})
		},
		OnReply: func(clientID, text string) {
			a.hub.SendEvent(clientID, protocol.EventReplyText, protocol.ReplyData{Text: text})
			a.hub.SendEvent(clientID, protocol.EventReplyAudioCue, protocol.ReplyData{Text: text})
		},
	})
	a.tracker = presence.NewTracker(cfg.Presence, a.lock)

	gen := llm.NewClient(llm.Config{
		APIKey:       cfg.GeminiAPIKey,
		Model:        cfg.GeminiModel,
		SystemPrompt: llm.SystemPrompt,
	})
	a.dialogue = dialogue.New(cfg.Dialogue, a.sessions, gen, index, a.lock)

	a.classifier, err = vision.New(cfg.Vision)
	if err != nil {
		log.Warn("face classifier unavailable, presence detection disabled", log.Err(err))
		a.classifier = nil
	}

	a.scheduler = avatar.NewScheduler(lib, cfg.FramePeriod, a.lock.AnySpeaking, a.broadcastFrame)

	a.hub.OnConnect = a.handleConnect
	a.hub.OnDisconnect = a.handleDisconnect
	a.hub.OnEvent = a.handleEvent
	a.hub.OnBinary = a.handleFrame

	return a, nil
}

// Run serves the kiosk until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	go a.hub.Run(ctx)
	go a.scheduler.Run(ctx)

	if a.cfg.CameraIndex >= 0 {
		go a.runWatcher(ctx)
	}

	srv := fiber.New(fiber.Config{
		AppName:               "go-kiosk",
		DisableStartupMessage: true,
	})

	srv.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"clients": a.hub.ClientCount(),
		})
	})

	srv.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	srv.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		client := hub.NewClient(a.hub, conn)
		client.Run()
	}))

	if a.cfg.StaticDir != "" {
		srv.Static("/", a.cfg.StaticDir)
	}

	go func() {
		<-ctx.Done()
		if err := srv.ShutdownWithTimeout(5 * time.Second); err != nil {
			log.Error("server shutdown", log.Err(err))
		}
	}()

	log.Info("kiosk listening", "addr", a.cfg.Addr())
	return srv.Listen(a.cfg.Addr())
}

// Close releases vision resources.
func (a *App) Close() error {
	if a.classifier != nil {
		return a.classifier.Close()
	}
	return nil
}

// broadcastFrame pushes one avatar frame to all clients. Skipped entirely
// when nobody is connected.
func (a *App) broadcastFrame(jpeg []byte) {
	if a.hub.ClientCount() == 0 {
		return
	}
	a.hub.BroadcastEvent(protocol.EventVideoFrame, protocol.VideoFrameData{
		Frame: base64.StdEncoding.EncodeToString(jpeg),
	})
}

// sampler returns the client's frame sampler, creating one on first use.
func (a *App) sampler(clientID string) *vision.Sampler {
	a.samplerMu.Lock()
	defer a.samplerMu.Unlock()
	s, ok := a.samplers[clientID]
	if !ok {
		s = vision.NewSampler(a.cfg.FrameSkip, a.cfg.RotationEvery)
		a.samplers[clientID] = s
	}
	return s
}

func (a *App) dropSampler(clientID string) {
	a.samplerMu.Lock()
	defer a.samplerMu.Unlock()
	delete(a.samplers, clientID)
}
