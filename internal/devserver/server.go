// Package devserver is a fixture backend serving the REST collections and
// the /ws push channel that flowdash consumes. It holds sample data in
// memory and is meant for local development and tests.
package devserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"flowdash/internal/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server serves the fixture API.
type Server struct {
	engine  *gin.Engine
	hub     *Hub
	version string
	log     *logrus.Entry

	mu          sync.Mutex
	workflows   []model.Workflow
	agents      []model.Agent
	tasks       []model.Task
	suggestions []model.Suggestion
	tick        int

	scheduler *gocron.Scheduler
}

// New creates a server seeded with sample data.
func New(version string) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		engine:      gin.New(),
		hub:         NewHub(),
		version:     version,
		log:         logrus.WithField("component", "devserver"),
		workflows:   seedWorkflows(),
		agents:      seedAgents(),
		tasks:       seedTasks(),
		suggestions: seedSuggestions(),
	}
	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/ws", s.handleWS)

	api := s.engine.Group("/api")
	api.GET("/health", s.getHealth)

	api.GET("/workflows", s.listWorkflows)
	api.GET("/workflows/:id", s.getWorkflow)

	api.GET("/agents", s.listAgents)
	api.GET("/agents/:id", s.getAgent)

	api.GET("/tasks", s.listTasks)
	api.GET("/tasks/:id", s.getTask)
	api.PUT("/tasks/:id", s.updateTask)

	api.GET("/suggestions", s.listSuggestions)
	api.GET("/suggestions/:id", s.getSuggestion)
	api.POST("/suggestions/:id/approve", s.approveSuggestion)
	api.POST("/suggestions/:id/reject", s.rejectSuggestion)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Debug("Request served")
	}
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Hub exposes the push hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Publish broadcasts env on the channel matching its type.
func (s *Server) Publish(env *model.Envelope) int {
	return s.hub.Broadcast(env, ChannelFor(env.Type))
}

func (s *Server) publish(t model.MessageType, payload any) {
	env, err := model.NewEnvelope(t, payload)
	if err != nil {
		s.log.WithError(err).Error("Failed to build envelope")
		return
	}
	s.Publish(env)
}

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("Starting fixture backend")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
	}

	s.StopSimulation()
	s.hub.CloseAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.WithError(err).Warn("Websocket upgrade error")
		return
	}

	cl := s.hub.register(conn)
	defer func() {
		s.hub.unregister(cl)
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
			) {
				s.log.WithField("client", cl.id).WithError(err).Warn("Websocket read error")
			}
			return
		}

		var frame model.ControlFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			s.log.WithField("client", cl.id).WithError(err).Warn("Ignoring invalid control frame")
			continue
		}
		switch frame.Action {
		case model.ActionSubscribe:
			s.hub.subscribe(cl, frame.Channel)
		case model.ActionUnsubscribe:
			s.hub.unsubscribe(cl, frame.Channel)
		default:
			s.log.WithField("action", frame.Action).Warn("Ignoring unknown control action")
		}
	}
}

func (s *Server) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, model.Health{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   s.version,
	})
}

func respondError(c *gin.Context, status int, detail string) {
	c.JSON(status, gin.H{"detail": detail})
}

// paginate applies skip/limit query parameters.
func paginate[T any](c *gin.Context, items []T) (model.ListResponse[T], bool) {
	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		respondError(c, http.StatusBadRequest, "skip must be a non-negative integer")
		return model.ListResponse[T]{}, false
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 {
		respondError(c, http.StatusBadRequest, "limit must be a positive integer")
		return model.ListResponse[T]{}, false
	}

	page := []T{}
	if skip < len(items) {
		end := min(skip+limit, len(items))
		page = append(page, items[skip:end]...)
	}
	return model.ListResponse[T]{Items: page, Total: len(items), Skip: skip, Limit: limit}, true
}

// filterStatus keeps items whose status equals the status query parameter.
func filterStatus[T any](c *gin.Context, items []T, status func(T) string) []T {
	want := c.Query("status")
	if want == "" {
		return items
	}
	var out []T
	for _, it := range items {
		if status(it) == want {
			out = append(out, it)
		}
	}
	return out
}

func (s *Server) listWorkflows(c *gin.Context) {
	s.mu.Lock()
	items := filterStatus(c, append([]model.Workflow(nil), s.workflows...),
		func(w model.Workflow) string { return string(w.Status) })
	s.mu.Unlock()

	if page, ok := paginate(c, items); ok {
		c.JSON(http.StatusOK, page)
	}
}

func (s *Server) getWorkflow(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.workflows {
		if w.ID == c.Param("id") {
			c.JSON(http.StatusOK, w)
			return
		}
	}
	respondError(c, http.StatusNotFound, "workflow not found")
}

func (s *Server) listAgents(c *gin.Context) {
	s.mu.Lock()
	items := filterStatus(c, append([]model.Agent(nil), s.agents...),
		func(a model.Agent) string { return string(a.Status) })
	s.mu.Unlock()

	if page, ok := paginate(c, items); ok {
		c.JSON(http.StatusOK, page)
	}
}

func (s *Server) getAgent(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.agents {
		if a.ID == c.Param("id") {
			c.JSON(http.StatusOK, a)
			return
		}
	}
	respondError(c, http.StatusNotFound, "agent not found")
}

func (s *Server) listTasks(c *gin.Context) {
	s.mu.Lock()
	items := filterStatus(c, append([]model.Task(nil), s.tasks...),
		func(t model.Task) string { return string(t.Status) })
	s.mu.Unlock()

	if wf := c.Query("workflow_id"); wf != "" {
		var scoped []model.Task
		for _, t := range items {
			if t.WorkflowID == wf {
				scoped = append(scoped, t)
			}
		}
		items = scoped
	}

	if page, ok := paginate(c, items); ok {
		c.JSON(http.StatusOK, page)
	}
}

func (s *Server) getTask(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.ID == c.Param("id") {
			c.JSON(http.StatusOK, t)
			return
		}
	}
	respondError(c, http.StatusNotFound, "task not found")
}

// updateTask applies a partial task update and pushes it on "tasks".
func (s *Server) updateTask(c *gin.Context) {
	var patch model.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondError(c, http.StatusBadRequest, "invalid task update: "+err.Error())
		return
	}
	patch.ID = c.Param("id")

	s.mu.Lock()
	idx := -1
	for i := range s.tasks {
		if s.tasks[i].ID == patch.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		respondError(c, http.StatusNotFound, "task not found")
		return
	}
	updated := s.tasks[idx]
	patch.Apply(&updated)
	if err := updated.Validate(); err != nil {
		s.mu.Unlock()
		respondError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.tasks[idx] = updated
	s.mu.Unlock()

	s.publish(model.MsgTaskUpdate, patch)
	c.JSON(http.StatusOK, updated)
}

func (s *Server) listSuggestions(c *gin.Context) {
	s.mu.Lock()
	items := filterStatus(c, append([]model.Suggestion(nil), s.suggestions...),
		func(sg model.Suggestion) string { return string(sg.Status) })
	s.mu.Unlock()

	if page, ok := paginate(c, items); ok {
		c.JSON(http.StatusOK, page)
	}
}

func (s *Server) getSuggestion(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sg := range s.suggestions {
		if sg.ID == c.Param("id") {
			c.JSON(http.StatusOK, sg)
			return
		}
	}
	respondError(c, http.StatusNotFound, "suggestion not found")
}

func (s *Server) approveSuggestion(c *gin.Context) {
	s.reviewSuggestion(c, model.SuggestionApproved, c.Query("approved_by"))
}

func (s *Server) rejectSuggestion(c *gin.Context) {
	s.reviewSuggestion(c, model.SuggestionRejected, c.Query("rejected_by"))
}

func (s *Server) reviewSuggestion(c *gin.Context, status model.SuggestionStatus, reviewer string) {
	id := c.Param("id")

	s.mu.Lock()
	idx := -1
	for i := range s.suggestions {
		if s.suggestions[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		respondError(c, http.StatusNotFound, "suggestion not found")
		return
	}
	sg := &s.suggestions[idx]
	if sg.Status != model.SuggestionPending {
		s.mu.Unlock()
		respondError(c, http.StatusConflict, "suggestion already "+string(sg.Status))
		return
	}
	now := time.Now().UTC()
	sg.Status = status
	if status == model.SuggestionApproved {
		sg.ApprovedAt = &now
		sg.ApprovedBy = reviewer
	}
	result := *sg
	s.mu.Unlock()

	msgType := model.MsgSuggestionApproved
	if status == model.SuggestionRejected {
		msgType = model.MsgSuggestionRejected
	}
	s.publish(msgType, result)
	c.JSON(http.StatusOK, result)
}
