// Package apiserver exposes the capture engine over HTTP: output
// listing, one-shot capture endpoints returning encoded images, and a
// websocket stream of output hotplug notifications. It never streams
// frames — only metadata — since repeated-frame capture is out of
// scope for this engine.
package apiserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/dkasak/wlcap/internal/capture"
	"github.com/dkasak/wlcap/internal/encode"
	"github.com/dkasak/wlcap/internal/geometry"
	"github.com/dkasak/wlcap/internal/logger"
	"github.com/dkasak/wlcap/internal/wlsession"
)

// Server is the HTTP API in front of an Engine and its Session.
type Server struct {
	router   *mux.Router
	engine   *capture.Engine
	session  *wlsession.Session
	upgrader websocket.Upgrader
}

func NewServer(engine *capture.Engine, session *wlsession.Session) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		engine:  engine,
		session: session,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/outputs", s.handleListOutputs).Methods("GET")
	api.HandleFunc("/outputs/stream", s.handleOutputsStream)
	api.HandleFunc("/capture", s.handleCaptureOutput).Methods("GET")
	api.HandleFunc("/capture/region", s.handleCaptureRegion).Methods("GET")
	api.HandleFunc("/capture/all", s.handleCaptureAll).Methods("GET")
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start begins serving on port, wrapped with permissive CORS headers
// so a browser-based caller on a different origin can use it.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logger.WithComponent("apiserver").Info().Str("addr", addr).Msg("starting HTTP API")
	return http.ListenAndServe(addr, s.enableCORS(s.router))
}

func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleListOutputs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.engine.ListOutputs())
}

func (s *Server) handleOutputsStream(w http.ResponseWriter, r *http.Request) {
	log := logger.WithComponent("apiserver")
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	updates := s.session.Subscribe()
	defer s.session.Unsubscribe(updates)

	for ev := range updates {
		if err := conn.WriteJSON(ev); err != nil {
			log.Warn().Err(err).Msg("websocket write failed")
			return
		}
	}
}

func parseCommon(r *http.Request) (scale float64, overlayCursor bool, format encode.Format) {
	scale = 0
	if v := r.URL.Query().Get("scale"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			scale = f
		}
	}
	overlayCursor = r.URL.Query().Get("cursor") == "true"
	format = encode.PNG
	if v := r.URL.Query().Get("format"); v != "" {
		format = encode.Format(v)
	}
	return
}

func (s *Server) writeImage(w http.ResponseWriter, r *http.Request, spec capture.Spec, format encode.Format) {
	img, err := s.engine.Capture(r.Context(), spec)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	if err := encode.Encode(w, img, format); err != nil {
		logger.WithComponent("apiserver").Warn().Err(err).Msg("encode failed after headers were sent")
	}
}

func (s *Server) handleCaptureOutput(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("output")
	if name == "" {
		http.Error(w, "missing output parameter", http.StatusBadRequest)
		return
	}
	scale, cursor, format := parseCommon(r)
	s.writeImage(w, r, capture.Spec{Kind: capture.KindByOutput, Output: name, Scale: scale, OverlayCursor: cursor}, format)
}

func (s *Server) handleCaptureRegion(w http.ResponseWriter, r *http.Request) {
	rect, err := parseRectQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	scale, cursor, format := parseCommon(r)
	s.writeImage(w, r, capture.Spec{Kind: capture.KindByRegion, Region: rect, Scale: scale, OverlayCursor: cursor}, format)
}

func (s *Server) handleCaptureAll(w http.ResponseWriter, r *http.Request) {
	scale, cursor, format := parseCommon(r)
	s.writeImage(w, r, capture.Spec{Kind: capture.KindWholeScreen, Scale: scale, OverlayCursor: cursor}, format)
}

func parseRectQuery(r *http.Request) (geometry.Rectangle, error) {
	q := r.URL.Query()
	x, err1 := strconv.Atoi(q.Get("x"))
	y, err2 := strconv.Atoi(q.Get("y"))
	width, err3 := strconv.Atoi(q.Get("w"))
	height, err4 := strconv.Atoi(q.Get("h"))
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return geometry.Rectangle{}, fmt.Errorf("apiserver: expected integer x, y, w, h query parameters")
	}
	return geometry.Rectangle{X: x, Y: y, Width: width, Height: height}, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"outputs": strconv.Itoa(len(s.engine.ListOutputs())),
	})
}
