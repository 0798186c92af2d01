package viewer

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mandi/internal/pipeline"
	"mandi/internal/types"

	"github.com/gin-gonic/gin"
)

// RunLister exposes recent fetch runs for the /api/runs endpoint.
type RunLister interface {
	List(ctx context.Context, limit int) ([]pipeline.Report, error)
}

// Server serves filtered views over the master dataset. It is a plain JSON
// API; rendering is left to whatever front end sits on top.
type Server struct {
	addr   string
	cache  *Cache
	runs   RunLister
	router *gin.Engine
}

// ServerConfig carries the viewer server dependencies.
type ServerConfig struct {
	Addr  string
	Cache *Cache
	Runs  RunLister
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Cache == nil {
		return nil, errors.New("cache cannot be nil")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8501"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		addr:   cfg.Addr,
		cache:  cfg.Cache,
		runs:   cfg.Runs,
		router: router,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", s.handleHealth)
	api := s.router.Group("/api")
	api.GET("/records", s.handleRecords)
	api.GET("/summary", s.handleSummary)
	api.GET("/runs", s.handleRuns)
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type recordDTO struct {
	State       string `json:"state"`
	District    string `json:"district"`
	Market      string `json:"market"`
	Commodity   string `json:"commodity"`
	Variety     string `json:"variety,omitempty"`
	MinPrice    string `json:"min_price"`
	MaxPrice    string `json:"max_price"`
	ModalPrice  string `json:"modal_price"`
	ArrivalDate string `json:"arrival_date"`
}

type recordFilter struct {
	state     string
	district  string
	market    string
	commodity string
	from      time.Time
	to        time.Time
}

func (f recordFilter) matches(r types.Record) bool {
	if f.state != "" && !strings.EqualFold(f.state, r.State) {
		return false
	}
	if f.district != "" && !strings.EqualFold(f.district, r.District) {
		return false
	}
	if f.market != "" && !strings.EqualFold(f.market, r.Market) {
		return false
	}
	if f.commodity != "" && !strings.EqualFold(f.commodity, r.Commodity) {
		return false
	}
	if !f.from.IsZero() && r.ArrivalDate.Before(f.from) {
		return false
	}
	if !f.to.IsZero() && r.ArrivalDate.After(f.to) {
		return false
	}
	return true
}

func (s *Server) handleRecords(c *gin.Context) {
	ds, _, err := s.cache.Dataset()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	limit := 1000
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	out := make([]recordDTO, 0, 64)
	for _, rec := range ds.Records {
		if !filter.matches(rec) {
			continue
		}
		out = append(out, recordDTO{
			State:       rec.State,
			District:    rec.District,
			Market:      rec.Market,
			Commodity:   rec.Commodity,
			Variety:     rec.Variety,
			MinPrice:    rec.MinPrice.String(),
			MaxPrice:    rec.MaxPrice.String(),
			ModalPrice:  rec.ModalPrice.String(),
			ArrivalDate: rec.ArrivalDate.Format(types.DateLayout),
		})
		if len(out) >= limit {
			break
		}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "records": out})
}

func parseFilter(c *gin.Context) (recordFilter, error) {
	f := recordFilter{
		state:     strings.TrimSpace(c.Query("state")),
		district:  strings.TrimSpace(c.Query("district")),
		market:    strings.TrimSpace(c.Query("market")),
		commodity: strings.TrimSpace(c.Query("commodity")),
	}
	var err error
	if f.from, err = parseDateParam(c.Query("from")); err != nil {
		return f, err
	}
	if f.to, err = parseDateParam(c.Query("to")); err != nil {
		return f, err
	}
	return f, nil
}

func parseDateParam(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(types.DateLayout, v, time.UTC)
}

func (s *Server) handleSummary(c *gin.Context) {
	ds, modTime, err := s.cache.Dataset()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if ds.Len() == 0 {
		// A missing master file is a normal state before the first
		// successful fetch run, not an error.
		c.JSON(http.StatusOK, gin.H{
			"records": 0,
			"message": "no data yet - waiting for the first fetch run",
		})
		return
	}
	states := make(map[string]struct{})
	commodities := make(map[string]struct{})
	var minDate, maxDate time.Time
	for _, rec := range ds.Records {
		states[rec.State] = struct{}{}
		commodities[rec.Commodity] = struct{}{}
		if minDate.IsZero() || rec.ArrivalDate.Before(minDate) {
			minDate = rec.ArrivalDate
		}
		if rec.ArrivalDate.After(maxDate) {
			maxDate = rec.ArrivalDate
		}
	}
	resp := gin.H{
		"records":     ds.Len(),
		"states":      len(states),
		"commodities": len(commodities),
		"date_from":   minDate.Format(types.DateLayout),
		"date_to":     maxDate.Format(types.DateLayout),
	}
	if !modTime.IsZero() {
		resp["last_modified"] = modTime.UTC().Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleRuns(c *gin.Context) {
	if s.runs == nil {
		c.JSON(http.StatusOK, gin.H{"runs": []any{}})
		return
	}
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	runs, err := s.runs.List(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
