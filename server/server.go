package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"note_generator/generator"
	"note_generator/publisher"
	"note_generator/timeline"
)

const generateTimeout = 60 * time.Second

type Server struct {
	source generator.Source
	store  timeline.Store
	pub    *publisher.Publisher
	limit  int
	log    *logrus.Entry
}

// New wires the HTTP API. pub may be nil, in which case posting and
// timeline refresh are unavailable.
func New(source generator.Source, store timeline.Store, pub *publisher.Publisher, limit int, logger *logrus.Entry) (*Server, error) {
	if source == nil {
		return nil, errors.New("generator source required")
	}
	if store == nil {
		return nil, errors.New("timeline store required")
	}
	if logger == nil {
		logger = logrus.StandardLogger().WithField("pkg", "server")
	}
	if limit <= 0 {
		limit = publisher.DefaultTimelineLimit
	}
	return &Server{source: source, store: store, pub: pub, limit: limit, log: logger}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate", s.handleGenerate)
	mux.HandleFunc("/api/notes", s.handleNotes)
	mux.HandleFunc("/api/timeline/refresh", s.handleRefresh)
	return s.logMiddleware(mux)
}

// --- Handlers ---

type generateReq struct {
	Inputs  []string `json:"inputs"`
	Post    bool     `json:"post"`
	ReplyID string   `json:"reply_id"`
}

type generateResp struct {
	Text   string `json:"text"`
	NoteID string `json:"note_id,omitempty"`
	Inputs int    `json:"inputs"`
}

type notesReq struct {
	Notes []string `json:"notes"`
}

type notesResp struct {
	Notes []string `json:"notes"`
}

type errorResp struct {
	Error string `json:"error"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	var req generateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Post && s.pub == nil {
		writeError(w, http.StatusBadRequest, errors.New("posting is not configured"))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), generateTimeout)
	defer cancel()

	inputs := req.Inputs
	if len(inputs) == 0 {
		recent, err := s.store.Recent(ctx, s.limit)
		if err != nil {
			writeError(w, http.StatusBadGateway, err)
			return
		}
		inputs = recent
	}
	text, err := s.source.Compose(ctx, inputs)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	resp := generateResp{Text: text, Inputs: len(inputs)}
	if req.Post {
		id, err := s.pub.CreateNote(ctx, publisher.NoteParams{Text: text, ReplyID: req.ReplyID})
		if err != nil {
			writeError(w, http.StatusBadGateway, err)
			return
		}
		resp.NoteID = id
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNotes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit := s.limit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			limit = n
		}
		notes, err := s.store.Recent(r.Context(), limit)
		if err != nil {
			writeError(w, http.StatusBadGateway, err)
			return
		}
		writeJSON(w, http.StatusOK, notesResp{Notes: notes})
	case http.MethodPost:
		var req notesReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := s.store.Append(r.Context(), req.Notes...); err != nil {
			writeError(w, http.StatusBadGateway, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	}
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	if s.pub == nil {
		writeError(w, http.StatusBadRequest, errors.New("timeline source is not configured"))
		return
	}
	notes, err := s.pub.FetchTimeline(r.Context(), s.limit)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	if err := s.store.Append(r.Context(), notes...); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, notesResp{Notes: notes})
}

// --- Helpers ---

// statusFor maps generation failures onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, generator.ErrEmptyCorpus), errors.Is(err, generator.ErrNoStartCandidate):
		return http.StatusUnprocessableEntity
	case errors.Is(err, generator.ErrRetryExhausted):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResp{Error: err.Error()})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.WithFields(logrus.Fields{
			"request_id": id,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"dur_ms":     time.Since(start).Milliseconds(),
		}).Info("request")
	})
}
