package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/ritzau/classdeps/pkg/analysis"
	"github.com/ritzau/classdeps/pkg/cache"
	"github.com/ritzau/classdeps/pkg/lens"
	"github.com/ritzau/classdeps/pkg/logging"
	"github.com/ritzau/classdeps/pkg/model"
	"github.com/ritzau/classdeps/pkg/pubsub"
)

var log = logging.New("web")

// maxRoundRequest bounds the body of a round request
const maxRoundRequest = 1 << 20

// RoundRequest is the body of POST /api/rounds
type RoundRequest struct {
	Changed []string `json:"changed"` // empty means every unit in the new snapshot
	Reason  string   `json:"reason"`
}

// RoundResponse is a completed round as served over HTTP
type RoundResponse struct {
	Summary      pubsub.RoundSummary         `json:"summary"`
	Trace        []analysis.TraceEntry       `json:"trace"`
	CrossPackage []analysis.CrossPackageMark `json:"crossPackage,omitempty"`
	Packages     map[string]int              `json:"packages"`
}

// Server represents the web server
type Server struct {
	router    *mux.Router
	runner    *analysis.Runner
	publisher pubsub.Publisher
}

// NewServer creates a new web server
func NewServer(runner *analysis.Runner, publisher pubsub.Publisher) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		runner:    runner,
		publisher: publisher,
	}
	s.setupRoutes()
	return s
}

// Handler returns the router wrapped with request logging
func (s *Server) Handler() http.Handler {
	return logging.RequestIDMiddleware(s.router)
}

func (s *Server) setupRoutes() {
	// SSE subscription endpoints
	s.router.HandleFunc("/api/subscribe/{topic}", s.handleSubscribe).Methods("GET")

	// API routes - more specific routes must come first
	s.router.HandleFunc("/api/status", s.handleStatus).Methods("GET")
	s.router.HandleFunc("/api/rounds", s.handleRunRound).Methods("POST")
	s.router.HandleFunc("/api/rounds/latest/graph", s.handleLatestGraph).Methods("GET")
	s.router.HandleFunc("/api/rounds/latest", s.handleLatestRound).Methods("GET")
	s.router.HandleFunc("/api/units/{name}/dependents", s.handleDependents).Methods("GET")
	s.router.HandleFunc("/api/units/{name}", s.handleUnit).Methods("GET")
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]
	if topic != pubsub.TopicStatus && topic != pubsub.TopicRounds {
		http.Error(w, "unknown topic "+topic, http.StatusNotFound)
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*") // CORS support

	sub, err := s.subscribe(r, topic)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer sub.Close()

	// Send initial comment to establish connection (Safari compatibility)
	fmt.Fprintf(w, ": connected\n\n")
	flush(w)

	for event := range sub.Events() {
		if err := pubsub.WriteSSE(w, event); err != nil {
			log.WarnContext(r.Context(), "error writing SSE event", "topic", topic, "error", err)
			return
		}
		flush(w)
	}
}

// subscribe resumes after the Last-Event-ID the browser sends on reconnect
func (s *Server) subscribe(r *http.Request, topic string) (pubsub.Subscription, error) {
	resumer, ok := s.publisher.(pubsub.Resumer)
	if last := r.Header.Get("Last-Event-ID"); ok && last != "" {
		after, err := strconv.Atoi(last)
		if err == nil && after > 0 {
			log.DebugContext(r.Context(), "resuming subscription", "topic", topic, "after", after)
			return resumer.SubscribeAfter(r.Context(), topic, after)
		}
		log.WarnContext(r.Context(), "ignoring invalid Last-Event-ID", "value", last)
	}
	return s.publisher.Subscribe(r.Context(), topic)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.runner.Status())
}

func (s *Server) handleRunRound(w http.ResponseWriter, r *http.Request) {
	var req RoundRequest
	body := http.MaxBytesReader(w, r.Body, maxRoundRequest)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid round request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Reason == "" {
		req.Reason = "requested over HTTP"
	}

	report, err := s.runner.Run(r.Context(), analysis.RoundOptions{Changed: req.Changed, Reason: req.Reason})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, roundResponse(report))
}

func (s *Server) handleLatestRound(w http.ResponseWriter, r *http.Request) {
	report := s.runner.Last()
	if report == nil {
		http.Error(w, "No round has completed yet", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, roundResponse(report))
}

func (s *Server) handleLatestGraph(w http.ResponseWriter, r *http.Request) {
	report := s.runner.Last()
	if report == nil {
		http.Error(w, "No round has completed yet", http.StatusNotFound)
		return
	}
	l, err := lensFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, graphData(l.Apply(report.Graph())))
}

// lensFromQuery reads ?focus=a,b&depth=2&rule=x&rule=y&hideDeferred=true
func lensFromQuery(r *http.Request) (*lens.Lens, error) {
	q := r.URL.Query()
	l := &lens.Lens{MaxDistance: lens.Unlimited, Rules: q["rule"]}
	if focus := q.Get("focus"); focus != "" {
		l.Focus = strings.Split(focus, ",")
	}
	if depth := q.Get("depth"); depth != "" {
		d, err := strconv.Atoi(depth)
		if err != nil {
			return nil, fmt.Errorf("invalid depth %q", depth)
		}
		l.MaxDistance = d
	}
	if hide := q.Get("hideDeferred"); hide != "" {
		b, err := strconv.ParseBool(hide)
		if err != nil {
			return nil, fmt.Errorf("invalid hideDeferred %q", hide)
		}
		l.HideDeferred = b
	}
	return l, nil
}

func (s *Server) handleUnit(w http.ResponseWriter, r *http.Request) {
	view, err := s.runner.Unit(mux.Vars(r)["name"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleDependents(w http.ResponseWriter, r *http.Request) {
	uses, err := s.runner.Dependents(mux.Vars(r)["name"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, uses)
}

func roundResponse(report *analysis.Report) RoundResponse {
	return RoundResponse{
		Summary:      report.Summary,
		Trace:        report.Trace(),
		CrossPackage: report.FindCrossPackageMarks(),
		Packages:     report.MarkedPackages(),
	}
}

// GraphData is the round graph with nodes flattened into a list
type GraphData struct {
	Nodes  []*model.Node  `json:"nodes"`
	Edges  []*model.Edge  `json:"edges"`
	Counts map[string]int `json:"counts"` // nodes per type
}

func graphData(g *model.Graph) *GraphData {
	return &GraphData{Nodes: g.SortedNodes(), Edges: g.Edges, Counts: g.CountByType()}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, analysis.ErrNotLoaded):
		status = http.StatusServiceUnavailable
	case errors.Is(err, cache.ErrUnitUnknown):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("failed to encode response", "error", err)
	}
}

func flush(w http.ResponseWriter) {
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Start serves on port until the listener fails
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	log.Info("starting web server", "url", fmt.Sprintf("http://localhost%s", addr))
	return http.ListenAndServe(addr, s.Handler())
}
