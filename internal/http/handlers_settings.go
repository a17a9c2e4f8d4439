package http

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"paycycle/internal/core"
	applog "paycycle/internal/log"
	"paycycle/internal/store"
)

// settingsPayload is the snake_case wire shape of a pay-cycle
// configuration. pay_day is null when the type takes none,
// cycle_start_offset defaults when omitted.
type settingsPayload struct {
	PayCycleType     string `json:"pay_cycle_type"`
	PayDay           *int   `json:"pay_day"`
	CycleStartOffset *int   `json:"cycle_start_offset"`
}

func (p settingsPayload) toSettings() core.Settings {
	s := core.Settings{
		CycleType:        core.CycleType(p.PayCycleType),
		PayDay:           p.PayDay,
		CycleStartOffset: core.DefaultOffset,
	}
	if p.CycleStartOffset != nil {
		s.CycleStartOffset = *p.CycleStartOffset
	}
	return s
}

type settingsResponse struct {
	PayCycleType     string     `json:"pay_cycle_type"`
	PayDay           *int       `json:"pay_day"`
	CycleStartOffset int        `json:"cycle_start_offset"`
	UpdatedAt        *time.Time `json:"updated_at"`
}

func toSettingsResponse(saved store.UserSettings) settingsResponse {
	return settingsResponse{
		PayCycleType:     string(saved.Settings.CycleType),
		PayDay:           saved.Settings.PayDay,
		CycleStartOffset: saved.Settings.CycleStartOffset,
		UpdatedAt:        saved.UpdatedAt,
	}
}

// handleSettings dispatches the /user/settings CRUD operations.
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleGetSettings(w, r)
	case http.MethodPost:
		s.handleCreateSettings(w, r)
	case http.MethodPut:
		s.handleUpdateSettings(w, r)
	case http.MethodDelete:
		s.handleDeleteSettings(w, r)
	default:
		w.Header().Set("Allow", "GET, POST, PUT, DELETE")
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	}
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	saved, err := s.settings.Get(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		// Not found is the normal answer for users still on
		// implicit calendar defaults.
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsResponse(saved))
}

func (s *Server) handleCreateSettings(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodeSettingsPayload(w, r)
	if !ok {
		return
	}

	saved, err := s.settings.Create(r.Context(), userIDFrom(r.Context()), payload.toSettings())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.logSaved(r, saved, applog.OpCreate)
	writeJSON(w, http.StatusCreated, toSettingsResponse(saved))
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodeSettingsPayload(w, r)
	if !ok {
		return
	}

	saved, err := s.settings.Update(r.Context(), userIDFrom(r.Context()), payload.toSettings())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.logSaved(r, saved, applog.OpUpdate)
	writeJSON(w, http.StatusOK, toSettingsResponse(saved))
}

func (s *Server) handleDeleteSettings(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	if err := s.settings.Delete(r.Context(), userID); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.periods.Reset(r.Context(), userID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) logSaved(r *http.Request, saved store.UserSettings, op string) {
	s.logs.LogSettingsSaved(r.Context(), saved.UserID,
		string(saved.Settings.CycleType), saved.Settings.PayDay, saved.Settings.CycleStartOffset, op)
}

func decodeSettingsPayload(w http.ResponseWriter, r *http.Request) (settingsPayload, bool) {
	var payload settingsPayload

	body := io.LimitReader(r.Body, 1<<16)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Request body is not valid JSON: "+err.Error())
		return settingsPayload{}, false
	}
	return payload, true
}

// catalog wire shapes

type payDayRangeResponse struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type typeResponse struct {
	Value          string               `json:"value"`
	Label          string               `json:"label"`
	Description    string               `json:"description"`
	RequiresPayDay bool                 `json:"requires_pay_day"`
	PayDayRange    *payDayRangeResponse `json:"pay_day_range,omitempty"`
	PayDayOptions  []string             `json:"pay_day_options,omitempty"`
}

type offsetResponse struct {
	Value       int    `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

type catalogResponse struct {
	Types         []typeResponse   `json:"types"`
	OffsetOptions []offsetResponse `json:"offset_options"`
	DefaultOffset int              `json:"default_offset"`
}

// handleListTypes serves the cycle type catalog in its fixed order.
func (s *Server) handleListTypes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	resp := catalogResponse{DefaultOffset: core.DefaultOffset}
	for _, d := range core.ListTypes() {
		t := typeResponse{
			Value:          string(d.Value),
			Label:          d.Label,
			Description:    d.Description,
			RequiresPayDay: d.RequiresPayDay,
			PayDayOptions:  d.PayDayOptions,
		}
		if d.PayDayRange != nil {
			t.PayDayRange = &payDayRangeResponse{Min: d.PayDayRange.Min, Max: d.PayDayRange.Max}
		}
		resp.Types = append(resp.Types, t)
	}
	for _, o := range core.OffsetOptions {
		resp.OffsetOptions = append(resp.OffsetOptions, offsetResponse{
			Value:       o.Value,
			Label:       o.Label,
			Description: o.Description,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

type previewResponse struct {
	Preview string `json:"preview"`
	Summary string `json:"summary"`
}

// handlePreview validates candidate settings from query parameters and
// returns the preview sentence without persisting anything.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	candidate := core.Settings{
		CycleType:        core.CycleType(r.URL.Query().Get("pay_cycle_type")),
		CycleStartOffset: core.DefaultOffset,
	}

	if v := r.URL.Query().Get("pay_day"); v != "" {
		day, err := parseIntParam(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_parameter", "pay_day must be an integer")
			return
		}
		candidate.PayDay = &day
	}
	if v := r.URL.Query().Get("cycle_start_offset"); v != "" {
		offset, err := parseIntParam(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_parameter", "cycle_start_offset must be an integer")
			return
		}
		candidate.CycleStartOffset = offset
	}

	valid, err := candidate.Validate()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, previewResponse{
		Preview: core.DescribePeriod(valid),
		Summary: core.Summary(valid),
	})
}
