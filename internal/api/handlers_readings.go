package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListReadings(w http.ResponseWriter, r *http.Request) {
	views, err := s.svc.GetAll()
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetReading(w http.ResponseWriter, r *http.Request) {
	title, ok := titleParam(w, r)
	if !ok {
		return
	}
	view, err := s.svc.GetOne(title)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type aliyahStatusRequest struct {
	IsComplete bool `json:"is_complete"`
}

func (s *Server) handleSetAliyah(w http.ResponseWriter, r *http.Request) {
	title, ok := titleParam(w, r)
	if !ok {
		return
	}
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		jsonError(w, "aliyah number must be an integer", http.StatusBadRequest)
		return
	}

	var req aliyahStatusRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.svc.SetAliyahStatus(title, number, req.IsComplete); err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// titleParam returns the decoded {title} segment. chi passes the raw path
// when the client escaped characters like apostrophes.
func titleParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	title, err := url.PathUnescape(chi.URLParam(r, "title"))
	if err != nil {
		jsonError(w, "invalid title", http.StatusBadRequest)
		return "", false
	}
	return title, true
}
