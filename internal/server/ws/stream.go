// Package ws streams plan runs over WebSocket: the client sends one plan request and
// receives progress events followed by the response.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rgehrsitz/bufferplan/internal/calculation"
	"github.com/rgehrsitz/bufferplan/internal/domain"
)

const (
	// writeWait is the maximum time to wait for a write to complete.
	writeWait = 10 * time.Second

	// readWait bounds how long the client has to send its request.
	readWait = 30 * time.Second

	// maxMessageSize is the maximum size of an incoming message.
	maxMessageSize = 4096

	progressBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Result is what a completed run reports back.
type Result struct {
	RunID    string
	Cached   bool
	Response *domain.PlanResponse
}

// RunFunc evaluates a plan, reporting progress as it goes.
type RunFunc func(ctx context.Context, name string, req domain.PlanRequest, progress calculation.ProgressFunc) (*Result, error)

// Message types sent to the client.
const (
	TypeProgress = "progress"
	TypeResult   = "result"
	TypeError    = "error"
)

// Request is the single message a client sends.
type Request struct {
	Name string `json:"name,omitempty"`
	domain.PlanRequest
}

// Message is one frame sent to the client.
type Message struct {
	Type     string                     `json:"type"`
	Progress *calculation.ProgressEvent `json:"progress,omitempty"`
	RunID    string                     `json:"runId,omitempty"`
	Cached   bool                       `json:"cached,omitempty"`
	Payload  *domain.PlanResponse       `json:"payload,omitempty"`
	Error    string                     `json:"error,omitempty"`
	Problems []string                   `json:"problems,omitempty"`
}

// Streamer serves GET /ws/simulate.
type Streamer struct {
	Run    RunFunc
	Logger *slog.Logger
}

// NewStreamer creates a Streamer.
func NewStreamer(run RunFunc, logger *slog.Logger) *Streamer {
	return &Streamer{Run: run, Logger: logger}
}

// HandleWS upgrades the connection and serves one run.
func (s *Streamer) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Logger.Error("ws: upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(readWait))

	var req Request
	if err := conn.ReadJSON(&req); err != nil {
		s.send(conn, Message{Type: TypeError, Error: "invalid request: " + err.Error()})
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// A read error means the client went away; abandon the run.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	events := make(chan calculation.ProgressEvent, progressBuffer)
	type outcome struct {
		res *Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := s.Run(ctx, req.Name, req.PlanRequest, func(ev calculation.ProgressEvent) {
			select {
			case events <- ev:
			default:
				// Slow client; intermediate progress is droppable.
			}
		})
		done <- outcome{res, err}
	}()

	for {
		select {
		case ev := <-events:
			if err := s.send(conn, Message{Type: TypeProgress, Progress: &ev}); err != nil {
				cancel()
			}
		case out := <-done:
			for len(events) > 0 {
				ev := <-events
				_ = s.send(conn, Message{Type: TypeProgress, Progress: &ev})
			}
			s.finish(conn, out.res, out.err)
			return
		}
	}
}

func (s *Streamer) finish(conn *websocket.Conn, res *Result, err error) {
	if err != nil {
		msg := Message{Type: TypeError, Error: err.Error()}
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			msg.Problems = ve.Problems
		}
		_ = s.send(conn, msg)
	} else {
		_ = s.send(conn, Message{Type: TypeResult, RunID: res.RunID, Cached: res.Cached, Payload: res.Response})
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (s *Streamer) send(conn *websocket.Conn, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.Logger.Debug("ws: write failed", slog.String("error", err.Error()))
		return err
	}
	return nil
}
