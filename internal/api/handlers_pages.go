package api

import (
	"net/http"

	"github.com/dgallion1/actgen/internal/templatestore"
	"github.com/go-chi/chi/v5"
)

const maxPageNodes = 10000

// handleGetPage returns a published page: its meta, root and every node.
func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		jsonError(w, "template store not configured", http.StatusServiceUnavailable)
		return
	}
	pageID := chi.URLParam(r, "pageID")
	ctx := r.Context()

	meta, err := s.store.GetNode(ctx, templatestore.MetaKey(pageID))
	if err != nil {
		jsonError(w, "failed to read page: "+err.Error(), http.StatusBadGateway)
		return
	}
	if meta == nil {
		jsonError(w, "page not found", http.StatusNotFound)
		return
	}

	root, err := s.store.GetNode(ctx, templatestore.RootKey(pageID))
	if err != nil {
		jsonError(w, "failed to read root: "+err.Error(), http.StatusBadGateway)
		return
	}

	nodes, err := s.store.ListChildren(ctx, templatestore.PageKey(pageID)+"/nodes", maxPageNodes)
	if err != nil {
		jsonError(w, "failed to list nodes: "+err.Error(), http.StatusBadGateway)
		return
	}
	if nodes == nil {
		nodes = []templatestore.NodeResponse{}
	}

	resp := map[string]any{
		"page_id": pageID,
		"meta":    meta.Value,
		"nodes":   nodes,
	}
	if root != nil {
		resp["root"] = root.Value
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDeletePage removes a published page and everything under it.
func (s *Server) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		jsonError(w, "template store not configured", http.StatusServiceUnavailable)
		return
	}
	pageID := chi.URLParam(r, "pageID")

	if err := s.store.DeleteNode(r.Context(), templatestore.PageKey(pageID), true); err != nil {
		jsonError(w, "failed to delete page: "+err.Error(), http.StatusBadGateway)
		return
	}
	s.log.Info("page deleted", "page_id", pageID)
	writeJSON(w, http.StatusOK, map[string]any{"page_id": pageID, "deleted": true})
}
