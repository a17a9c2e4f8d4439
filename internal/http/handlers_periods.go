package http

import (
	"net/http"
	"time"
)

const dateLayout = "2006-01-02"

type periodResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func toPeriodResponse(start, end time.Time) periodResponse {
	return periodResponse{
		Start: start.Format(dateLayout),
		End:   end.Format(dateLayout),
	}
}

// handlePeriods serves period boundaries for analytics bucketing.
// ?date= returns the single period containing that date, ?from=&to=
// returns the contiguous run covering the window. Periods are half-open,
// end is the first day of the next period.
func (s *Server) handlePeriods(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	userID := userIDFrom(r.Context())
	query := r.URL.Query()

	if v := query.Get("date"); v != "" {
		date, err := parseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_parameter", "date must be formatted YYYY-MM-DD")
			return
		}

		period, err := s.periods.PeriodAt(r.Context(), userID, date)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPeriodResponse(period.Start, period.End))
		return
	}

	fromStr, toStr := query.Get("from"), query.Get("to")
	if fromStr == "" || toStr == "" {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Provide either date= or both from= and to=")
		return
	}

	from, err := parseDate(fromStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "from must be formatted YYYY-MM-DD")
		return
	}
	to, err := parseDate(toStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "to must be formatted YYYY-MM-DD")
		return
	}
	if !from.Before(to) {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "from must be before to")
		return
	}

	periods, err := s.periods.PeriodsBetween(r.Context(), userID, from, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]periodResponse, 0, len(periods))
	for _, p := range periods {
		out = append(out, toPeriodResponse(p.Start, p.End))
	}
	writeJSON(w, http.StatusOK, map[string][]periodResponse{"periods": out})
}
