// Package server exposes a simulator over HTTP. Phones stream sensor events
// over a websocket and every client receives the ball state each frame.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/san-kum/tiltball/internal/physics"
	"github.com/san-kum/tiltball/internal/sensor"
	"github.com/san-kum/tiltball/internal/sim"
)

const (
	DefaultAddr     = ":8080"
	shutdownTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Config struct {
	Addr string
	FPS  int
}

// StateMsg is broadcast once per frame and served by GET /state.
type StateMsg struct {
	Type     string           `json:"type"`
	Frame    int              `json:"frame"`
	Time     float64          `json:"time"`
	Body     physics.Body     `json:"body"`
	Viewport physics.Viewport `json:"viewport"`
	Bounced  string           `json:"bounced"`
	Heading  *float64         `json:"heading,omitempty"`
	Clients  int              `json:"clients"`
}

type Server struct {
	cfg    Config
	sim    *sim.Simulator
	hub    *Hub
	router *gin.Engine
	start  time.Time
	nextID atomic.Int64

	mu      sync.Mutex
	last    sim.Frame
	heading *float64
}

func New(s *sim.Simulator, cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.FPS <= 0 {
		cfg.FPS = sim.DefaultFPS
	}
	srv := &Server{
		cfg:   cfg,
		sim:   s,
		hub:   NewHub(),
		start: time.Now(),
		last:  sim.Frame{Body: s.Snapshot()},
	}
	srv.router = srv.routes()
	return srv
}

func (s *Server) routes() *gin.Engine {
	r := gin.Default()
	r.GET("/health", s.handleHealth)
	r.GET("/state", s.handleState)
	r.GET("/ws", s.handleWebSocket)
	return r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.hub.Run(ctx)
	go s.Loop(ctx)

	httpSrv := &http.Server{Addr: s.cfg.Addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[HTTP] listening on %s", s.cfg.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	log.Printf("[HTTP] shutting down")
	return httpSrv.Shutdown(shutdownCtx)
}

// Loop steps the simulator at the configured frame rate and broadcasts the
// result until ctx is done.
func (s *Server) Loop(ctx context.Context) {
	ticker := time.NewTicker(time.Second / time.Duration(s.cfg.FPS))
	defer ticker.Stop()
	log.Printf("[SIM] frame loop at %d fps", s.cfg.FPS)

	for {
		select {
		case <-ctx.Done():
			log.Printf("[SIM] frame loop stopped at frame %d", s.sim.FrameIndex())
			return
		case <-ticker.C:
			s.hub.Broadcast(s.step())
		}
	}
}

func (s *Server) step() StateMsg {
	f := s.sim.Step()
	s.mu.Lock()
	s.last = f
	s.mu.Unlock()
	return s.State()
}

// State reports the most recent frame.
func (s *Server) State() StateMsg {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StateMsg{
		Type:     "state",
		Frame:    s.last.Index,
		Time:     s.last.Time,
		Body:     s.last.Body,
		Viewport: s.sim.Viewport(),
		Bounced:  s.last.Events.Bounced.String(),
		Heading:  s.heading,
		Clients:  s.hub.Count(),
	}
}

// Feed applies events from src until ctx is done or src stops.
func (s *Server) Feed(ctx context.Context, src sensor.Source) error {
	events := make(chan sensor.Event, sendBuffer)
	errCh := make(chan error, 1)
	go func() { errCh <- src.Run(ctx, events) }()

	for {
		select {
		case ev := <-events:
			s.apply(ev)
		case err := <-errCh:
			for len(events) > 0 {
				s.apply(<-events)
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}

// apply feeds a client event to the simulator and keeps its heading.
func (s *Server) apply(ev sensor.Event) {
	s.sim.Apply(ev)
	if h, _, ok := ev.Orientation.Heading(); ok {
		s.mu.Lock()
		s.heading = &h
		s.mu.Unlock()
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "tiltball",
		"uptime":  time.Since(s.start).String(),
		"clients": s.hub.Count(),
		"frame":   s.sim.FrameIndex(),
	})
}

func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, s.State())
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] upgrade error: %v", err)
		return
	}

	client := &Client{
		id:   fmt.Sprintf("c%d", s.nextID.Add(1)),
		srv:  s,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	select {
	case s.hub.register <- client:
	case <-s.hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
