// Package httpserver exposes stored histogram rows over a small JSON API.
package httpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tinytelemetry/awrhist/internal/model"
)

// QueryStore is the narrow store contract required by the HTTP API.
type QueryStore interface {
	model.ReadAPI
	SchemaDescription() string
}

// Server serves the histogram API.
type Server struct {
	addr      string
	store     QueryStore
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time

	mu    sync.Mutex
	bound string
}

// NewServer creates a new HTTP API server.
func NewServer(addr string, store QueryStore) *Server {
	if addr == "" {
		addr = "127.0.0.1:3000"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:   addr,
		store:  store,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/health", s.handleHealth)
	r.GET("/api/schema", s.handleSchema)
	r.GET("/api/histograms", s.handleHistograms)
	r.GET("/api/events", s.handleEvents)
	r.POST("/api/query", s.handleQuery)
	return r
}

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.routes(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.bound = listener.Addr().String()
	s.mu.Unlock()
	s.startTime = time.Now()

	go s.server.Serve(listener)
	return nil
}

// Addr returns the bound address once started, or the configured one before.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bound != "" {
		return s.bound
	}
	return s.addr
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	n, err := s.store.RowCount(model.RowFilter{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read health metrics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"uptime":    time.Since(s.startTime).String(),
		"row_count": n,
	})
}

func (s *Server) handleSchema(c *gin.Context) {
	tables, err := s.store.ExecuteQuery(
		"SELECT table_name, column_name, data_type FROM information_schema.columns WHERE table_schema = 'main' ORDER BY table_name, ordinal_position",
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read schema metadata"})
		return
	}

	schema := make(map[string][]map[string]string)
	for _, row := range tables {
		name := fmt.Sprintf("%v", row["table_name"])
		schema[name] = append(schema[name], map[string]string{
			"column": fmt.Sprintf("%v", row["column_name"]),
			"type":   fmt.Sprintf("%v", row["data_type"]),
		})
	}

	counts, err := s.store.TableRowCounts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read table row counts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"description": s.store.SchemaDescription(),
		"tables":      schema,
		"row_counts":  counts,
	})
}

// histogramJSON is the wire form of one stored row. Values are keyed by
// column name so clients do not need to know the layout.
type histogramJSON struct {
	RunID       string            `json:"run_id"`
	Layout      string            `json:"layout"`
	WaitEvent   string            `json:"wait_event"`
	Filename    string            `json:"filename"`
	Found       bool              `json:"found"`
	Columns     []string          `json:"columns"`
	Values      map[string]string `json:"values"`
	ExtractedAt time.Time         `json:"extracted_at"`
}

func (s *Server) handleHistograms(c *gin.Context) {
	filter := model.RowFilter{
		Layout:    c.Query("layout"),
		WaitEvent: c.Query("event"),
		Filename:  c.Query("filename"),
		RunID:     c.Query("run"),
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		filter.Limit = n
	}

	rows, err := s.store.ListRows(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list histograms"})
		return
	}

	out := make([]histogramJSON, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		values := make(map[string]string, len(r.Columns))
		for _, col := range r.Columns {
			values[col] = r.Value(col)
		}
		out = append(out, histogramJSON{
			RunID:       r.RunID,
			Layout:      r.Layout,
			WaitEvent:   r.WaitEvent,
			Filename:    r.Filename,
			Found:       r.Found,
			Columns:     r.Columns,
			Values:      values,
			ExtractedAt: r.ExtractedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"rows":      out,
		"row_count": len(out),
	})
}

func (s *Server) handleEvents(c *gin.Context) {
	sums, err := s.store.EventSummaries(c.Query("layout"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to summarize events"})
		return
	}

	events := make([]gin.H, 0, len(sums))
	for _, es := range sums {
		events = append(events, gin.H{
			"wait_event":  es.WaitEvent,
			"reports":     es.Reports,
			"found":       es.Found,
			"total_count": es.TotalCount,
		})
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (s *Server) handleQuery(c *gin.Context) {
	var req struct {
		SQL string `json:"sql" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body or missing sql field"})
		return
	}

	results, err := s.store.ExecuteQuery(req.SQL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var columns []string
	if len(results) > 0 {
		for col := range results[0] {
			columns = append(columns, col)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"columns":   columns,
		"rows":      results,
		"row_count": len(results),
	})
}
