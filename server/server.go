// Package server streams a running swarm to browsers over WebSocket.
// Connected clients steer the predator with their pointer; when every food
// source is exhausted the run is announced as done and a new one starts.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/game"
)

// Server owns the streamed swarm and its viewers.
type Server struct {
	cfg      *config.Config
	conns    *ConnManager
	upgrader websocket.Upgrader

	mu      sync.Mutex // protects everything below
	swarm   *game.Swarm
	runID   string
	seed    int64
	started time.Time
	target  r2.Vec
}

// New creates a server and starts its first run with seed.
func New(cfg *config.Config, seed int64) (*Server, error) {
	s := &Server{
		cfg:   cfg,
		conns: NewConnManager(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow all origins; the stream is read-only apart from the pointer
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		target: r2.Vec{X: cfg.World.SpaceSize / 2, Y: cfg.World.SpaceSize / 2},
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.startRun(seed); err != nil {
		return nil, err
	}
	return s, nil
}

// startRun replaces the swarm. Caller must hold s.mu.
func (s *Server) startRun(seed int64) error {
	if s.swarm != nil {
		s.swarm.Close()
	}
	swarm, err := game.NewSwarm(s.cfg, game.Options{Seed: seed})
	if err != nil {
		return fmt.Errorf("starting run: %w", err)
	}
	swarm.SpawnInitial()

	s.swarm = swarm
	s.seed = seed
	s.runID = uuid.New().String()
	s.started = time.Now()
	slog.Info("run started", "run_id", s.runID, "seed", seed)
	return nil
}

// Handler returns the HTTP handler serving the WebSocket endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Server.Path, s.handleWS)
	return mux
}

// RunID returns the id of the current run.
func (s *Server) RunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runID
}

// Target returns the current pursuit target.
func (s *Server) Target() r2.Vec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// Clients returns the number of connected viewers.
func (s *Server) Clients() int {
	return s.conns.Count()
}

func (s *Server) setTarget(p r2.Vec) {
	size := s.cfg.World.SpaceSize
	p.X = math.Min(math.Max(p.X, 0), size)
	p.Y = math.Min(math.Max(p.Y, 0), size)

	s.mu.Lock()
	s.target = p
	s.mu.Unlock()
}

// sendErrorAndClose sends an error message then closes the connection.
func sendErrorAndClose(ws *websocket.Conn, msg string) {
	data, _ := json.Marshal(ErrorMsg{Type: MsgError, Message: msg})
	_ = ws.WriteMessage(websocket.TextMessage, data)
	ws.Close()
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade error", "error", err)
		return
	}

	// Check limits after upgrade so the client can receive the reason
	if limit := s.cfg.Server.MaxClients; limit > 0 && s.conns.Count() >= limit {
		sendErrorAndClose(ws, "server full")
		return
	}

	conn := NewConn(ws)

	// Welcome goes out before the first state frame can
	s.mu.Lock()
	welcome := WelcomeMsg{
		Type:  MsgWelcome,
		ID:    conn.ID,
		RunID: s.runID,
		Size:  s.cfg.World.SpaceSize,
	}
	if _, ok := s.swarm.Predator(); ok {
		welcome.Predator = 1
	}
	s.mu.Unlock()
	if err := conn.Send(welcome); err != nil {
		slog.Warn("ws write error", "client", conn.ID, "error", err)
		conn.Close()
		return
	}
	s.conns.Add(conn)
	slog.Info("viewer connected", "client", conn.ID, "clients", s.conns.Count())

	onDisconnect := func(c *Conn) {
		s.conns.Remove(c.ID)
		slog.Info("viewer disconnected", "client", c.ID, "clients", s.conns.Count())
	}

	// Blocking read loop until the client disconnects
	conn.ReadLoop(s.setTarget, onDisconnect)
}

// Run drives the swarm at server.tick_rate until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	rate := s.cfg.Server.TickRate
	if rate <= 0 {
		rate = 30
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()
	slog.Info("stream loop started", "tick_rate", rate)

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return nil
		case <-ticker.C:
			if err := s.Tick(); err != nil {
				return err
			}
		}
	}
}

// Tick advances the swarm one step and broadcasts the frame. A finished run
// is announced and replaced.
func (s *Server) Tick() error {
	s.mu.Lock()
	s.swarm.Step(s.cfg.Physics.DT, s.target)
	state := s.buildState()

	var done *DoneMsg
	if s.swarm.Terminated() {
		done = &DoneMsg{
			Type:    MsgDone,
			RunID:   s.runID,
			Steps:   s.swarm.Steps(),
			SimTime: s.swarm.SimTime(),
			Elapsed: time.Since(s.started).Seconds(),
		}
		slog.Info("run complete", "run_id", s.runID, "seed", s.seed, "steps", done.Steps, "elapsed", done.Elapsed)
		if err := s.startRun(s.seed + 1); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.mu.Unlock()

	s.broadcast(state)
	if done != nil {
		s.broadcast(done)
	}
	return nil
}

// buildState encodes the current swarm. Caller must hold s.mu.
func (s *Server) buildState() StateMsg {
	agents := s.swarm.Agents()
	foods := s.swarm.Foods()

	msg := StateMsg{
		Type:   MsgState,
		RunID:  s.runID,
		Step:   s.swarm.Steps(),
		Agents: make([][4]float64, len(agents)),
		Food:   make([]FoodDTO, len(foods)),
	}
	for i, a := range agents {
		msg.Agents[i] = [4]float64{
			round2(a.Pos.X),
			round2(a.Pos.Y),
			round2(math.Atan2(a.Heading.Y, a.Heading.X)),
			float64(a.Drive),
		}
	}
	for i, f := range foods {
		msg.Food[i] = FoodDTO{
			X:         round2(f.Pos.X),
			Y:         round2(f.Pos.Y),
			Radius:    f.Radius,
			Remaining: f.Remaining,
			Intensity: round2(f.Intensity),
		}
	}
	if p, ok := s.swarm.Predator(); ok {
		msg.Predator = &[3]float64{round2(p.Pos.X), round2(p.Pos.Y), round2(math.Atan2(p.Heading.Y, p.Heading.X))}
		msg.Target = &[2]float64{round2(s.target.X), round2(s.target.Y)}
	}
	return msg
}

// broadcast encodes msg once and sends it to every viewer.
func (s *Server) broadcast(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("encoding frame", "error", err)
		return
	}
	for _, c := range s.conns.Snapshot() {
		if err := c.SendRaw(data); err != nil {
			slog.Warn("ws write error", "client", c.ID, "error", err)
			c.Close()
		}
	}
}

func (s *Server) shutdown() {
	for _, c := range s.conns.Snapshot() {
		c.Close()
	}
	s.mu.Lock()
	s.swarm.Close()
	s.mu.Unlock()
	slog.Info("stream loop stopped")
}
