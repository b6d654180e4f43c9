package api

import (
	"errors"
	"net/http"

	"github.com/dgallion1/actgen/internal/act"
)

// handleGenerate builds the component tree synchronously and returns it.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		writeUploadError(w, err)
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	res, err := s.orchestrator.Engine().Run(up.data, up.filename, r.FormValue("root"))
	if err != nil {
		s.log.Warn("generation failed", "filename", up.filename, "error", err)
		jsonError(w, err.Error(), generateStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// generateStatus maps generation errors to HTTP status codes. Malformed
// marker structure is the caller's problem, not ours.
func generateStatus(err error) int {
	switch {
	case errors.Is(err, act.ErrNoMatch),
		errors.Is(err, act.ErrUnbalanced),
		errors.Is(err, act.ErrUnknownMarker):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
