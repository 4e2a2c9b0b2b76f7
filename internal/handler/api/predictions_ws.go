package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"EVDemand/internal/domain/models"
	"EVDemand/internal/usecase"
	xlogger "EVDemand/pkg/logger"
)

const (
	wsMaxMessageBytes = 64 << 10
	wsWriteWait       = 5 * time.Second
)

// PredictionsWSHandler runs an interactive prediction session over a
// websocket. Each text frame is one request, each reply one result.
type PredictionsWSHandler struct {
	logger       *xlogger.Logger
	processor    *usecase.RequestProcessor
	upgrader     websocket.Upgrader
	pingInterval time.Duration
}

func NewPredictionsWSHandler(logger *xlogger.Logger, processor *usecase.RequestProcessor, pingInterval time.Duration, allowOrigins []string) *PredictionsWSHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	h := &PredictionsWSHandler{logger: logger, processor: processor, pingInterval: pingInterval}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(allowOrigins),
	}
	return h
}

func (h *PredictionsWSHandler) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}
	id := uuid.NewString()
	s := &wsSession{
		id:   id,
		conn: conn,
		h:    h,
		l:    h.logger.With(xlogger.String("session", id)),
	}
	s.run(c.Request().Context())
	return nil
}

type wsSession struct {
	id   string
	conn *websocket.Conn
	h    *PredictionsWSHandler
	l    *xlogger.Logger
	wmu  sync.Mutex
}

func (s *wsSession) run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	defer s.conn.Close()

	s.l.Info("websocket session opened")
	s.conn.SetReadLimit(wsMaxMessageBytes)
	_ = s.conn.SetReadDeadline(time.Now().Add(2 * s.h.pingInterval))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(2 * s.h.pingInterval))
	})

	go s.keepalive(ctx)

	for {
		mt, b, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.l.Warn("websocket read error", xlogger.Error(err))
			}
			s.l.Info("websocket session closed")
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(2 * s.h.pingInterval))
		if mt != websocket.TextMessage {
			continue
		}
		if err := s.write(s.handle(ctx, b)); err != nil {
			s.l.Warn("websocket write error", xlogger.Error(err))
			return
		}
	}
}

func (s *wsSession) handle(ctx context.Context, b []byte) predictionReply {
	var req models.PredictionRequest
	if err := json.Unmarshal(b, &req); err != nil {
		return predictionReply{PredictionResult: models.PredictionResult{Error: &models.PredictionError{
			Kind:    models.ErrorKindValidation,
			Message: "invalid request JSON: " + err.Error(),
		}}}
	}
	rec := s.h.processor.Process(ctx, usecase.SourceWS, req)
	return predictionReply{ID: rec.ID, PredictionResult: rec.Result}
}

func (s *wsSession) write(v interface{}) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return s.conn.WriteJSON(v)
}

func (s *wsSession) keepalive(ctx context.Context) {
	t := time.NewTicker(s.h.pingInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.wmu.Lock()
			err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
			s.wmu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// originChecker allows any origin when the list is empty or contains "*".
func originChecker(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[o] = struct{}{}
	}
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}
