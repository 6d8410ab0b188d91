// Package server assembles the tutoring gateway: routes, middleware,
// upstream gateway clients, and the drain sequence for graceful shutdown.
package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/LMSAIH/xhacks2026-sub000/pkg/core/llm"
	"github.com/LMSAIH/xhacks2026-sub000/pkg/core/voice/stt"
	"github.com/LMSAIH/xhacks2026-sub000/pkg/core/voice/tts"
	"github.com/LMSAIH/xhacks2026-sub000/pkg/gateway/chat"
	"github.com/LMSAIH/xhacks2026-sub000/pkg/gateway/config"
	"github.com/LMSAIH/xhacks2026-sub000/pkg/gateway/handlers"
	"github.com/LMSAIH/xhacks2026-sub000/pkg/gateway/lifecycle"
	"github.com/LMSAIH/xhacks2026-sub000/pkg/gateway/live/session"
	"github.com/LMSAIH/xhacks2026-sub000/pkg/gateway/live/sessions"
	"github.com/LMSAIH/xhacks2026-sub000/pkg/gateway/mw"
	"github.com/LMSAIH/xhacks2026-sub000/pkg/gateway/ratelimit"
	"github.com/LMSAIH/xhacks2026-sub000/pkg/tutor"
)

type Server struct {
	cfg    config.Config
	logger *slog.Logger
	mux    *http.ServeMux

	httpClient *http.Client
	limiter    *ratelimit.Limiter
	lifecycle  *lifecycle.Lifecycle
	tracker    *sessions.Tracker
	catalog    *tutor.Catalog
	gateways   session.Gateways
	chats      *chat.Registry
}

func New(cfg config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout: 10 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	gateways := buildGateways(cfg, httpClient)

	s := &Server{
		cfg:        cfg,
		logger:     logger,
		mux:        http.NewServeMux(),
		httpClient: httpClient,
		limiter: ratelimit.New(ratelimit.Config{
			RPS:   cfg.LimitRPS,
			Burst: cfg.LimitBurst,
		}),
		lifecycle: &lifecycle.Lifecycle{},
		tracker:   sessions.NewTracker(cfg.LiveMaxSessions),
		catalog:   tutor.NewCatalog(),
		gateways:  gateways,
		chats: chat.NewRegistry(gateways.Generator, chat.Config{
			Capacity:        cfg.ChatMaxSessions,
			TTL:             cfg.ChatSessionTTL,
			HistoryWindow:   cfg.ChatHistoryWindow,
			MaxReplyTokens:  cfg.LiveMaxReplyTokens,
			Temperature:     cfg.LiveTemperature,
			MaxMessageChars: cfg.ChatMaxMessageChars,
		}),
	}

	s.routes()
	return s
}

// buildGateways wires the recognition, generation, and synthesis clients the
// configuration selects.
func buildGateways(cfg config.Config, httpClient *http.Client) session.Gateways {
	var recognizer stt.Recognizer
	switch cfg.STTProvider {
	case config.STTCartesia:
		recognizer = stt.NewCartesiaWithClient(cfg.CartesiaAPIKey, "", httpClient)
	default:
		recognizer = stt.NewDeepgramWithClient(cfg.DeepgramAPIKey, cfg.DeepgramBaseURL, httpClient)
	}

	var synthesizer tts.Synthesizer
	switch cfg.TTSProvider {
	case config.TTSCartesia:
		synthesizer = tts.NewCartesiaWithClient(cfg.CartesiaAPIKey, "", httpClient)
	default:
		synthesizer = tts.NewElevenLabsWithClient(cfg.ElevenLabsAPIKey, cfg.ElevenLabsBaseURL, httpClient)
	}

	return session.Gateways{
		Recognizer:  recognizer,
		Generator:   llm.NewOpenAIWithClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, httpClient),
		Synthesizer: synthesizer,
	}
}

func (s *Server) routes() {
	s.mux.Handle("GET /healthz", handlers.HealthHandler{})
	s.mux.Handle("GET /readyz", handlers.ReadyHandler{Lifecycle: s.lifecycle})

	s.mux.Handle("GET /v1/voices", handlers.VoicesHandler{Catalog: s.catalog})
	s.mux.Handle("GET /v1/courses", handlers.CoursesHandler{Directory: s.catalog})
	s.mux.Handle("GET /v1/courses/{id}", handlers.CourseHandler{Directory: s.catalog})
	s.mux.Handle("GET /v1/courses/{id}/outline", handlers.OutlineHandler{Outlines: s.catalog})

	s.mux.Handle("POST /v1/chat", handlers.ChatHandler{Registry: s.chats, Logger: s.logger})
	s.mux.Handle("DELETE /v1/chat/{id}", handlers.ChatDeleteHandler{Registry: s.chats})

	s.mux.Handle("GET /v1/live", handlers.LiveHandler{
		Config:    s.cfg,
		Logger:    s.logger,
		Lifecycle: s.lifecycle,
		Tracker:   s.tracker,
		Gateways:  s.gateways,
		Catalog:   s.catalog,
	})

	s.mux.Handle("/", handlers.NotFoundHandler{})
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.RateLimit(s.limiter, s.cfg.TrustProxyHeaders, h)
	h = mw.CORS(s.cfg.CORSAllowedOrigins, h)
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}

// SetDraining flips readiness and refuses new live sessions.
func (s *Server) SetDraining() {
	s.lifecycle.SetDraining(true)
}

// WarnLiveSessionsDraining tells every live session the gateway is going away.
func (s *Server) WarnLiveSessionsDraining() {
	sent := s.tracker.WarnAll("draining", "gateway is shutting down")
	if sent > 0 {
		s.logger.Info("warned live sessions", "count", sent)
	}
}

// WaitLiveSessions blocks until every live session unwinds or ctx expires.
func (s *Server) WaitLiveSessions(ctx context.Context) bool {
	return s.tracker.Wait(ctx)
}

// CancelLiveSessions hard-cancels whatever is still running.
func (s *Server) CancelLiveSessions() {
	canceled := s.tracker.CancelAll()
	if canceled > 0 {
		s.logger.Warn("canceled live sessions", "count", canceled)
	}
}
