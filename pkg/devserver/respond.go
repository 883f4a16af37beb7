package devserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// errorBody is the error envelope the client expects.
type errorBody struct {
	Detail    string `json:"detail"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Msg("encode response")
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, detail string) {
	s.respond(w, r, status, errorBody{Detail: detail, RequestID: middleware.GetReqID(r.Context())})
}

// internal logs err and answers 500 without leaking it.
func (s *Server) internal(w http.ResponseWriter, r *http.Request, err error) {
	s.reqLog(r).Error().Err(err).Msg("request failed")
	s.fail(w, r, http.StatusInternalServerError, "Internal server error")
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.fail(w, r, http.StatusUnprocessableEntity, "Invalid request body")
		return false
	}
	return true
}

func (s *Server) reqLog(r *http.Request) *zerolog.Logger {
	l := s.log.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
	return &l
}
