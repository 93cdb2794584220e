package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const methodSendStreaming = "message/send_streaming"

// Server plays a Script as if it were an agent service: it accepts sends,
// streams the scripted frames to every subscriber of the thread and waits for
// tool call decisions where the script says so.
type Server struct {
	e      *echo.Echo
	script *Script
	ctx    context.Context

	sends atomic.Int64

	mu        sync.Mutex
	subs      map[string]map[chan []byte]struct{}
	decisions map[string]chan string

	upgrader websocket.Upgrader
}

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	ID      json.RawMessage `json:"id"`
	Params  struct {
		Message struct {
			MessageId string `json:"messageId"`
			ContextId string `json:"contextId"`
			Parts     []struct {
				Kind string `json:"kind"`
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"message"`
	} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func New(ctx context.Context, script *Script) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		e:         e,
		script:    script,
		ctx:       ctx,
		subs:      make(map[string]map[chan []byte]struct{}),
		decisions: make(map[string]chan string),
	}

	// Start a run
	e.POST("/agents/:agent_id", s.sendMessage)
	// Subscribe to a thread
	e.GET("/agents/:agent_id/threads/:thread_id/events", s.streamEvents)
	// Tool call decisions
	e.POST("/tool-calls/:id/approve", s.decide(DecisionApproved))
	e.POST("/tool-calls/:id/reject", s.decide(DecisionRejected))

	e.GET("/ping", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	return s
}

func (s *Server) Handler() http.Handler { return s.e }

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := http.Server{
		Handler:           s.e,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && ctx.Err() == nil {
		slog.Error("[replay] failed to serve", "error", err)
		return err
	}
	return nil
}

func (s *Server) sendMessage(c echo.Context) error {
	var req rpcRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
	}
	if req.Method != methodSendStreaming {
		return c.JSON(http.StatusOK, map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   rpcError{Code: -32601, Message: "method not found: " + req.Method},
		})
	}
	thread := req.Params.Message.ContextId
	if thread == "" {
		return c.JSON(http.StatusOK, map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   rpcError{Code: -32602, Message: "message.contextId is required"},
		})
	}

	task := strings.ReplaceAll(uuid.Must(uuid.NewV7()).String(), "-", "")
	run := s.script.run(int(s.sends.Add(1) - 1))
	slog.Info("[replay] starting run", "agent_id", c.Param("agent_id"), "thread_id", thread, "task_id", task)
	go s.play(run, thread, task)

	return c.JSON(http.StatusOK, map[string]any{
		"jsonrpc": "2.0",
		"id":      req.ID,
		"result": map[string]any{
			"id":        task,
			"contextId": thread,
			"kind":      "task",
			"status":    map[string]string{"state": "submitted"},
		},
	})
}

func (s *Server) play(run Run, thread, task string) {
	expand := strings.NewReplacer("${task_id}", task, "${thread_id}", thread)
	decision := ""

	for _, st := range run.Steps {
		if st.When != "" && st.When != decision {
			continue
		}
		if st.Delay > 0 {
			select {
			case <-time.After(st.Delay):
			case <-s.ctx.Done():
				return
			}
		}
		if st.Await != "" {
			select {
			case decision = <-s.decisionCh(expand.Replace(st.Await)):
			case <-s.ctx.Done():
				return
			}
		}
		if st.Frame != nil {
			data, err := render(st.Frame, thread, task)
			if err != nil {
				slog.Error("[replay] failed to render frame", "error", err)
				continue
			}
			s.broadcast(thread, data)
		}
	}
}

func (s *Server) decide(decision string) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		select {
		case s.decisionCh(id) <- decision:
		default:
			return echo.NewHTTPError(http.StatusConflict, "tool call already decided")
		}
		slog.Info("[replay] tool call decided", "tool_call_id", id, "decision", decision)
		return c.NoContent(http.StatusNoContent)
	}
}

func (s *Server) decisionCh(id string) chan string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.decisions[id]
	if !ok {
		ch = make(chan string, 1)
		s.decisions[id] = ch
	}
	return ch
}

func (s *Server) subscribe(thread string) chan []byte {
	ch := make(chan []byte, 256)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs[thread] == nil {
		s.subs[thread] = make(map[chan []byte]struct{})
	}
	s.subs[thread][ch] = struct{}{}
	return ch
}

func (s *Server) unsubscribe(thread string, ch chan []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs[thread], ch)
	if len(s.subs[thread]) == 0 {
		delete(s.subs, thread)
	}
}

// broadcast drops the frame for subscribers that are too slow.
func (s *Server) broadcast(thread string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs[thread] {
		select {
		case ch <- data:
		default:
			slog.Warn("[replay] subscriber too slow, dropping frame", "thread_id", thread)
		}
	}
}

// streamEvents serves server-sent events, or a websocket when the client asks
// for an upgrade on the same path.
func (s *Server) streamEvents(c echo.Context) error {
	if websocket.IsWebSocketUpgrade(c.Request()) {
		return s.streamWebSocket(c)
	}

	thread := c.Param("thread_id")
	ch := s.subscribe(thread)
	defer s.unsubscribe(thread, ch)

	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Flush()

	keepAlive := time.NewTicker(15 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		case <-s.ctx.Done():
			return nil
		case <-keepAlive.C:
			fmt.Fprint(c.Response(), ": keep-alive\n\n")
			c.Response().Flush()
		case data := <-ch:
			fmt.Fprintf(c.Response(), "data: %s\n\n", data)
			c.Response().Flush()
		}
	}
}

func (s *Server) streamWebSocket(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	thread := c.Param("thread_id")
	ch := s.subscribe(thread)
	defer s.unsubscribe(thread, ch)

	// the client never writes; reading detects it going away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return nil
		case <-s.ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return nil
		case data := <-ch:
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return nil
			}
		}
	}
}
