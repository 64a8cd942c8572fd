package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oakwood-commons/colkit/pkg/columns"
)

// ColumnsResponse describes a table's current column settings.
type ColumnsResponse struct {
	Table    string                  `json:"table"`
	Key      string                  `json:"key,omitempty"`
	Version  string                  `json:"version"`
	Settings []columns.Setting       `json:"settings"`
	Visible  []columns.VisibleColumn `json:"visible"`
	Message  string                  `json:"message,omitempty"`
}

type visibleRequest struct {
	Show *bool `json:"show"`
}

type fixedRequest struct {
	Side string `json:"side"`
}

type moveRequest struct {
	DraggedID string `json:"draggedId"`
	RelatedID string `json:"relatedId"`
}

type moveResponse struct {
	Allowed bool `json:"allowed"`
}

type orderRequest struct {
	Order []string `json:"order"`
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func describe(table string, st *columns.State) ColumnsResponse {
	return ColumnsResponse{
		Table:    table,
		Key:      st.CacheKey(),
		Version:  st.Version(),
		Settings: st.Settings(),
		Visible:  st.VisibleColumns(),
	}
}

// withTable resolves the {table} param and runs fn under the table's lock.
// fn returns the response body or an error.
func (s *Server) withTable(w http.ResponseWriter, r *http.Request, fn func(st *columns.State) (any, error)) {
	name := chi.URLParam(r, "table")
	ts, err := s.table(r.Context(), name)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ts.mu.Lock()
	body, err := fn(ts.state)
	if err == nil && body == nil {
		body = describe(name, ts.state)
	}
	ts.mu.Unlock()

	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, body)
}

func (s *Server) handleListTables(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string][]string{"tables": s.TableNames()})
}

func (s *Server) handleGetColumns(w http.ResponseWriter, r *http.Request) {
	s.withTable(w, r, func(*columns.State) (any, error) { return nil, nil })
}

func (s *Server) handleSetVisible(w http.ResponseWriter, r *http.Request) {
	var req visibleRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Show == nil {
		respondError(w, r, fmt.Errorf("%w: show is required", errBadRequest))
		return
	}
	id := chi.URLParam(r, "id")
	s.withTable(w, r, func(st *columns.State) (any, error) {
		if _, ok := st.Setting(id); !ok {
			return nil, fmt.Errorf("%w %q", errUnknownColumn, id)
		}
		st.SetVisible(id, *req.Show)
		return nil, nil
	})
}

func (s *Server) handleSetAllVisible(w http.ResponseWriter, r *http.Request) {
	var req visibleRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Show == nil {
		respondError(w, r, fmt.Errorf("%w: show is required", errBadRequest))
		return
	}
	s.withTable(w, r, func(st *columns.State) (any, error) {
		st.SetAllVisible(*req.Show)
		return nil, nil
	})
}

func (s *Server) handleToggleFixed(w http.ResponseWriter, r *http.Request) {
	var req fixedRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	side, err := columns.ParseFixed(req.Side)
	if err != nil || side == columns.FixedNone {
		respondError(w, r, fmt.Errorf("%w: side must be left or right", errBadRequest))
		return
	}
	id := chi.URLParam(r, "id")
	s.withTable(w, r, func(st *columns.State) (any, error) {
		setting, ok := st.Setting(id)
		if !ok {
			return nil, fmt.Errorf("%w %q", errUnknownColumn, id)
		}
		if setting.Pinned {
			return nil, fmt.Errorf("%w: %s", errPinned, id)
		}
		st.ToggleFixed(id, side)
		return nil, nil
	})
}

func (s *Server) handleCanMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	s.withTable(w, r, func(st *columns.State) (any, error) {
		return moveResponse{Allowed: st.CanMove(req.DraggedID, req.RelatedID)}, nil
	})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	s.withTable(w, r, func(st *columns.State) (any, error) {
		if !st.Move(req.DraggedID, req.RelatedID) {
			return nil, fmt.Errorf("%w: %s onto %s", errMoveRejected, req.DraggedID, req.RelatedID)
		}
		return nil, nil
	})
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	s.withTable(w, r, func(st *columns.State) (any, error) {
		st.OnDragEnd(req.Order)
		return nil, nil
	})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "table")
	s.withTable(w, r, func(st *columns.State) (any, error) {
		st.Save(r.Context(), nil)
		resp := describe(name, st)
		resp.Message = columns.SavedMessage
		return resp, nil
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.withTable(w, r, func(st *columns.State) (any, error) {
		st.Reset(r.Context())
		return nil, nil
	})
}
