package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/HerbHall/fortimap/internal/snapshot"
	"github.com/HerbHall/fortimap/internal/topology"
	"github.com/HerbHall/fortimap/pkg/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleTopology returns the most recent aggregated topology.
func (s *Server) handleTopology(w http.ResponseWriter, r *http.Request) {
	t := s.poller.Current()
	if t == nil {
		Unavailable(w, "topology not built yet", r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// handleBabylon returns the topology in the visualization export
// format, with catalog appearance metadata stamped on each model.
func (s *Server) handleBabylon(w http.ResponseWriter, r *http.Request) {
	t := s.poller.Current()
	if t == nil {
		Unavailable(w, "topology not built yet", r.URL.Path)
		return
	}
	doc := topology.ExportViz(t)
	if s.appearance != nil {
		s.appearance.Decorate(doc)
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleRefresh triggers an immediate rebuild and returns its summary.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	t := s.poller.Refresh(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"devices":      len(t.Devices),
		"connections":  len(t.Connections),
		"last_updated": t.Metadata.LastUpdated,
	})
}

// handleListSnapshots returns snapshot summaries, newest first. The
// limit query parameter caps the result.
func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		Unavailable(w, "snapshot history is disabled", r.URL.Path)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			BadRequest(w, "limit must be a positive integer", r.URL.Path)
			return
		}
		limit = n
	}

	list, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("snapshot list failed", zap.Error(err))
		InternalError(w, "failed to list snapshots", r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleGetSnapshot returns a stored topology by snapshot ID.
func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		Unavailable(w, "snapshot history is disabled", r.URL.Path)
		return
	}

	id := r.PathValue("id")
	snap, err := s.store.Get(r.Context(), id)
	if errors.Is(err, snapshot.ErrNotFound) {
		NotFound(w, "snapshot not found", r.URL.Path)
		return
	}
	if err != nil {
		s.logger.Error("snapshot get failed", zap.Error(err), zap.String("id", id))
		InternalError(w, "failed to load snapshot", r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleChanges diffs the two most recent snapshots. With fewer than
// two snapshots the diff is taken against an empty topology.
func (s *Server) handleChanges(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		Unavailable(w, "snapshot history is disabled", r.URL.Path)
		return
	}

	prev, latest, err := s.store.LatestTwo(r.Context())
	if err != nil {
		s.logger.Error("snapshot diff failed", zap.Error(err))
		InternalError(w, "failed to load snapshots", r.URL.Path)
		return
	}
	if latest == nil {
		Unavailable(w, "no snapshots recorded yet", r.URL.Path)
		return
	}

	prevTopology := &models.Topology{}
	resp := map[string]any{
		"latest": latest.Summary,
	}
	if prev != nil {
		prevTopology = prev.Topology
		resp["previous"] = prev.Summary
	}
	resp["diff"] = snapshot.Compute(prevTopology, latest.Topology)

	writeJSON(w, http.StatusOK, resp)
}
