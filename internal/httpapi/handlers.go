package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/StevieDC/dd-voice/internal/keyword"
	"github.com/StevieDC/dd-voice/internal/match"
	"github.com/StevieDC/dd-voice/internal/schedule"
	"github.com/StevieDC/dd-voice/internal/session"
	"github.com/StevieDC/dd-voice/pkg/log"
)

const maxBodyBytes = 64 << 10

type statusResponse struct {
	session.Status
	Schedule *schedule.Upcoming `json:"schedule,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.statusResponse())
}

func (s *Server) statusResponse() statusResponse {
	ret := statusResponse{Status: s.session.Status()}
	if s.schedule != nil {
		up := s.schedule.Upcoming(time.Now())
		ret.Schedule = &up
	}
	return ret
}

type keywordsRequest struct {
	Keywords string `json:"keywords"`
}

type keywordsResponse struct {
	Keywords []string `json:"keywords"`
}

func (s *Server) handleKeywords(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, keywordsResponse{Keywords: s.session.Status().Keywords})
	case http.MethodPut, http.MethodPost:
		raw, err := readKeywords(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		set, err := keyword.Load(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := s.session.LoadKeywords(r.Context(), set); err != nil {
			writeError(w, commandStatus(err), err.Error())
			return
		}
		log.Info("Loaded %d keywords over HTTP", set.Len())
		writeJSON(w, http.StatusOK, keywordsResponse{Keywords: set.Strings()})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// readKeywords accepts either a JSON body {"keywords": "..."} or the raw
// newline separated list.
func readKeywords(w http.ResponseWriter, r *http.Request) (string, error) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if isJSON(r) {
		var req keywordsRequest
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			return "", errInvalidJSON
		}
		return req.Keywords, nil
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := s.session.Start(r.Context()); err != nil {
		writeError(w, commandStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.statusResponse())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := s.session.Stop(r.Context()); err != nil {
		writeError(w, commandStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.statusResponse())
}

type transcriptRequest struct {
	Text  string `json:"text"`
	Final *bool  `json:"final"`
}

func (s *Server) handleTranscripts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req transcriptRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSON.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	final := req.Final == nil || *req.Final
	if err := s.session.PushSegment(r.Context(), req.Text, final); err != nil {
		writeError(w, commandStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"ok": true,
	})
}

type matchRequest struct {
	Text     string `json:"text"`
	Keywords string `json:"keywords,omitempty"`
}

// handleMatch runs the matcher without touching session state. Keywords in
// the request replace the loaded set for this call only.
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req matchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSON.Error())
		return
	}

	raw := req.Keywords
	if strings.TrimSpace(raw) == "" {
		raw = strings.Join(s.session.Status().Keywords, "\n")
	}
	set, err := keyword.Load(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, match.Match(req.Text, set))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":    true,
		"state": s.session.Status().State,
	})
}

// commandStatus maps session command errors to HTTP codes.
func commandStatus(err error) int {
	switch {
	case session.IsEmptyKeywords(err):
		return http.StatusConflict
	case session.IsErrorType(err, session.ErrClosed):
		return http.StatusServiceUnavailable
	case session.IsErrorType(err, session.ErrRecognition):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

var errInvalidJSON = errors.New("invalid json body")

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}
