package api

import (
	"net/http"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.GetStats()
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type healthResponse struct {
	Status          string `json:"status"`
	DataInitialized bool   `json:"data_initialized"`
	DatasetChecksum string `json:"dataset_checksum,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "healthy"}
	if s.dataset != nil {
		resp.DataInitialized = s.dataset.Exists()
		if resp.DataInitialized {
			sum, err := s.dataset.Checksum()
			if err != nil {
				s.log.Warn("dataset checksum failed", "error", err)
			}
			resp.DatasetChecksum = sum
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
