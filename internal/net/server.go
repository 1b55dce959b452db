// Package net serves a read-only mirror of the notebook to the local network:
// a gin HTTP API, a websocket op feed and mDNS discovery.
package net

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"InkBoard/internal/export"
	"InkBoard/internal/history"
	"InkBoard/internal/notebook"
	"InkBoard/internal/state"
)

const (
	defaultThumbWidth = 256
	maxThumbWidth     = 2048
	defaultHistory    = 20
)

// HistorySource lists recent recognitions.
type HistorySource interface {
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

// Server mirrors one notebook session.
type Server struct {
	session *notebook.Session
	history HistorySource
	hub     *Hub
	engine  *gin.Engine
	http    *http.Server
	cancel  func()
	log     *slog.Logger
}

// NewServer builds the router and subscribes the websocket hub to the
// session's ops. hist may be nil.
func NewServer(session *notebook.Session, hist HistorySource, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		session: session,
		history: hist,
		hub:     NewHub(logger),
		log:     logger,
	}
	s.cancel = session.Subscribe(s.hub.Broadcast)

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())
	api := r.Group("/api")
	api.GET("/pages", s.handlePages)
	api.GET("/strokes", s.handleStrokes)
	api.GET("/snapshot.png", s.handleSnapshot)
	api.GET("/thumbnail.png", s.handleThumbnail)
	api.GET("/history", s.handleHistory)
	r.GET("/ws", s.handleWS)
	s.engine = r
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) Hub() *Hub { return s.hub }

// ListenAndServe blocks until the server stops. It returns nil after Shutdown.
func (s *Server) ListenAndServe(port int) error {
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info("share server listening", "port", port)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("share server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("share request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

type pagesResponse struct {
	Pages  []state.Page `json:"pages"`
	Active int          `json:"active"`
}

func (s *Server) handlePages(c *gin.Context) {
	c.JSON(http.StatusOK, pagesResponse{
		Pages:  s.session.Pages(),
		Active: s.session.ActivePage().ID,
	})
}

func (s *Server) handleStrokes(c *gin.Context) {
	strokes := s.session.Strokes()
	if strokes == nil {
		strokes = []state.Stroke{}
	}
	c.JSON(http.StatusOK, strokes)
}

func (s *Server) handleSnapshot(c *gin.Context) {
	var buf bytes.Buffer
	if err := s.session.EncodePNG(&buf); err != nil {
		s.log.Error("encode snapshot", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not encode snapshot"})
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) handleThumbnail(c *gin.Context) {
	width := defaultThumbWidth
	if raw := c.Query("w"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxThumbWidth {
			c.JSON(http.StatusBadRequest, gin.H{"error": "w must be between 1 and 2048"})
			return
		}
		width = n
	}
	var buf bytes.Buffer
	if err := export.Thumbnail(&buf, s.session.Frame(), width); err != nil {
		s.log.Error("encode thumbnail", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not encode thumbnail"})
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) handleHistory(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history is disabled"})
		return
	}
	limit := defaultHistory
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	entries, err := s.history.Recent(c.Request.Context(), limit)
	if err != nil {
		s.log.Error("load history", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load history"})
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	c.JSON(http.StatusOK, entries)
}

// handleWS greets the peer with the page list and the committed strokes,
// then streams ops.
func (s *Server) handleWS(c *gin.Context) {
	s.hub.Serve(c.Writer, c.Request, s.greeting)
}

func (s *Server) greeting() []state.Op {
	strokes := s.session.Strokes()
	ops := make([]state.Op, 0, len(strokes)+1)
	ops = append(ops, state.Op{
		Type:   state.OpPage,
		PageID: s.session.ActivePage().ID,
		Pages:  s.session.Pages(),
	})
	for i := range strokes {
		ops = append(ops, state.Op{Type: state.OpInsertStroke, Stroke: &strokes[i]})
	}
	return ops
}
