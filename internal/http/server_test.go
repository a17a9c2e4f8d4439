package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"paycycle/internal/services"
	"paycycle/internal/store/memory"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	mem := memory.NewWithTokens(map[string]int64{
		"tok-alice": 1,
		"tok-bob":   2,
	})
	settings := services.NewSettingsService(mem, nil)
	periods := services.NewPeriodService(mem, mem, 3)
	return NewServer(":0", settings, periods, mem), mem
}

func doRequest(t *testing.T, srv *Server, method, path, token string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, rr.Body.String())
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	defer srv.Shutdown(context.Background())

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := doRequest(t, srv, http.MethodGet, path, "", "")
		if rr.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rr.Code)
		}
	}
}

func TestAuthRequired(t *testing.T) {
	srv, _ := newTestServer(t)
	defer srv.Shutdown(context.Background())

	tests := []struct {
		name  string
		token string
	}{
		{name: "missing token", token: ""},
		{name: "unknown token", token: "tok-nobody"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, srv, http.MethodGet, "/user/settings", tt.token, "")
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rr.Code)
			}
			var resp errorResponse
			decodeBody(t, rr, &resp)
			if resp.Error != "unauthorized" {
				t.Errorf("error code = %q", resp.Error)
			}
		})
	}
}

func TestSettingsCRUD(t *testing.T) {
	srv, _ := newTestServer(t)
	defer srv.Shutdown(context.Background())

	// new users have no settings yet
	rr := doRequest(t, srv, http.MethodGet, "/user/settings", "tok-alice", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("GET before create: status = %d, want 404", rr.Code)
	}

	rr = doRequest(t, srv, http.MethodPost, "/user/settings", "tok-alice",
		`{"pay_cycle_type":"custom_day","pay_day":25,"cycle_start_offset":1}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("POST: status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var created settingsResponse
	decodeBody(t, rr, &created)
	if created.PayCycleType != "custom_day" || created.PayDay == nil || *created.PayDay != 25 {
		t.Errorf("created = %+v", created)
	}

	// second create conflicts
	rr = doRequest(t, srv, http.MethodPost, "/user/settings", "tok-alice",
		`{"pay_cycle_type":"calendar"}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate POST: status = %d, want 409", rr.Code)
	}

	rr = doRequest(t, srv, http.MethodPut, "/user/settings", "tok-alice",
		`{"pay_cycle_type":"bi_weekly","pay_day":5,"cycle_start_offset":2}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("PUT: status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var updated settingsResponse
	decodeBody(t, rr, &updated)
	if updated.PayCycleType != "bi_weekly" || updated.CycleStartOffset != 2 {
		t.Errorf("updated = %+v", updated)
	}
	if updated.UpdatedAt == nil {
		t.Error("updated settings missing updated_at")
	}

	rr = doRequest(t, srv, http.MethodDelete, "/user/settings", "tok-alice", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("DELETE: status = %d", rr.Code)
	}
	rr = doRequest(t, srv, http.MethodGet, "/user/settings", "tok-alice", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("GET after delete: status = %d, want 404", rr.Code)
	}

	// PUT with nothing stored is 404
	rr = doRequest(t, srv, http.MethodPut, "/user/settings", "tok-alice",
		`{"pay_cycle_type":"calendar"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("PUT without row: status = %d, want 404", rr.Code)
	}
}

func TestSettingsUsersAreIsolated(t *testing.T) {
	srv, _ := newTestServer(t)
	defer srv.Shutdown(context.Background())

	rr := doRequest(t, srv, http.MethodPost, "/user/settings", "tok-alice",
		`{"pay_cycle_type":"calendar"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("POST: status = %d", rr.Code)
	}

	rr = doRequest(t, srv, http.MethodGet, "/user/settings", "tok-bob", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("other user sees settings: status = %d, want 404", rr.Code)
	}
}

func TestSettingsValidationErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	defer srv.Shutdown(context.Background())

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{
			name:     "unknown cycle type",
			body:     `{"pay_cycle_type":"weekly"}`,
			wantCode: "unknown_cycle_type",
		},
		{
			name:     "missing pay day",
			body:     `{"pay_cycle_type":"custom_day"}`,
			wantCode: "pay_day_out_of_range",
		},
		{
			name:     "pay day above range",
			body:     `{"pay_cycle_type":"custom_day","pay_day":32}`,
			wantCode: "pay_day_out_of_range",
		},
		{
			name:     "weekday above range",
			body:     `{"pay_cycle_type":"bi_weekly","pay_day":7}`,
			wantCode: "pay_day_out_of_range",
		},
		{
			name:     "negative offset",
			body:     `{"pay_cycle_type":"calendar","cycle_start_offset":-1}`,
			wantCode: "invalid_offset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, srv, http.MethodPost, "/user/settings", "tok-alice", tt.body)
			if rr.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422 (body: %s)", rr.Code, rr.Body.String())
			}
			var resp errorResponse
			decodeBody(t, rr, &resp)
			if resp.Error != tt.wantCode {
				t.Errorf("error code = %q, want %q", resp.Error, tt.wantCode)
			}
		})
	}

	// nothing must reach storage
	rr := doRequest(t, srv, http.MethodGet, "/user/settings", "tok-alice", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("invalid settings were stored: GET status = %d", rr.Code)
	}
}

func TestSettingsMalformedBody(t *testing.T) {
	srv, _ := newTestServer(t)
	defer srv.Shutdown(context.Background())

	for _, body := range []string{"", "{", `{"pay_cycle_type":"calendar","bogus":1}`} {
		rr := doRequest(t, srv, http.MethodPost, "/user/settings", "tok-alice", body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rr.Code)
		}
	}
}

func TestSettingsNormalizesPayDay(t *testing.T) {
	srv, _ := newTestServer(t)
	defer srv.Shutdown(context.Background())

	// pay_day is cleared for types that take none
	rr := doRequest(t, srv, http.MethodPost, "/user/settings", "tok-alice",
		`{"pay_cycle_type":"calendar","pay_day":15}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("POST: status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var created settingsResponse
	decodeBody(t, rr, &created)
	if created.PayDay != nil {
		t.Errorf("calendar settings kept pay_day = %v", *created.PayDay)
	}
}

func TestSettingsDefaultOffset(t *testing.T) {
	srv, _ := newTestServer(t)
	defer srv.Shutdown(context.Background())

	rr := doRequest(t, srv, http.MethodPost, "/user/settings", "tok-alice",
		`{"pay_cycle_type":"calendar"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("POST: status = %d", rr.Code)
	}
	var created settingsResponse
	decodeBody(t, rr, &created)
	if created.CycleStartOffset != 1 {
		t.Errorf("default cycle_start_offset = %d, want 1", created.CycleStartOffset)
	}
}

func TestListTypes(t *testing.T) {
	srv, _ := newTestServer(t)
	defer srv.Shutdown(context.Background())

	rr := doRequest(t, srv, http.MethodGet, "/user/settings/types", "tok-alice", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var resp catalogResponse
	decodeBody(t, rr, &resp)

	wantOrder := []string{"calendar", "last_weekday", "custom_day", "bi_weekly"}
	if len(resp.Types) != len(wantOrder) {
		t.Fatalf("got %d types, want %d", len(resp.Types), len(wantOrder))
	}
	for i, want := range wantOrder {
		if resp.Types[i].Value != want {
			t.Errorf("types[%d] = %q, want %q", i, resp.Types[i].Value, want)
		}
	}

	for _, typ := range resp.Types {
		requires := typ.Value == "custom_day" || typ.Value == "bi_weekly"
		if typ.RequiresPayDay != requires {
			t.Errorf("%s requires_pay_day = %v", typ.Value, typ.RequiresPayDay)
		}
	}

	if resp.DefaultOffset != 1 {
		t.Errorf("default_offset = %d, want 1", resp.DefaultOffset)
	}
	if len(resp.OffsetOptions) != 3 {
		t.Errorf("got %d offset options, want 3", len(resp.OffsetOptions))
	}

	biWeekly := resp.Types[3]
	if len(biWeekly.PayDayOptions) != 7 || biWeekly.PayDayOptions[0] != "Sunday" {
		t.Errorf("bi_weekly pay_day_options = %v", biWeekly.PayDayOptions)
	}
}

func TestPreview(t *testing.T) {
	srv, _ := newTestServer(t)
	defer srv.Shutdown(context.Background())

	tests := []struct {
		name        string
		query       string
		wantPreview string
	}{
		{
			name:        "calendar has no preview",
			query:       "pay_cycle_type=calendar",
			wantPreview: "",
		},
		{
			name:        "custom day",
			query:       "pay_cycle_type=custom_day&pay_day=25&cycle_start_offset=0",
			wantPreview: "Your financial period will start on the 25th of each month.",
		},
		{
			name:        "custom day with offset",
			query:       "pay_cycle_type=custom_day&pay_day=1&cycle_start_offset=2",
			wantPreview: "Your financial period will start on the 1st + 2 day(s) of each month.",
		},
		{
			name:        "bi-weekly with offset",
			query:       "pay_cycle_type=bi_weekly&pay_day=5&cycle_start_offset=1",
			wantPreview: "Your financial period will start on Friday + 1 day(s) every 2 weeks.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, srv, http.MethodGet, "/user/settings/preview?"+tt.query, "tok-alice", "")
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
			}
			var resp previewResponse
			decodeBody(t, rr, &resp)
			if resp.Preview != tt.wantPreview {
				t.Errorf("preview = %q, want %q", resp.Preview, tt.wantPreview)
			}
		})
	}

	t.Run("invalid candidate", func(t *testing.T) {
		rr := doRequest(t, srv, http.MethodGet, "/user/settings/preview?pay_cycle_type=custom_day&pay_day=0", "tok-alice", "")
		if rr.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", rr.Code)
		}
	})

	t.Run("non-numeric pay day", func(t *testing.T) {
		rr := doRequest(t, srv, http.MethodGet, "/user/settings/preview?pay_cycle_type=custom_day&pay_day=abc", "tok-alice", "")
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rr.Code)
		}
	})
}

func TestPeriods(t *testing.T) {
	srv, _ := newTestServer(t)
	defer srv.Shutdown(context.Background())

	// store a custom-day configuration for alice
	rr := doRequest(t, srv, http.MethodPost, "/user/settings", "tok-alice",
		`{"pay_cycle_type":"custom_day","pay_day":25,"cycle_start_offset":0}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("POST: status = %d", rr.Code)
	}

	t.Run("single date", func(t *testing.T) {
		rr := doRequest(t, srv, http.MethodGet, "/user/periods?date=2024-03-14", "tok-alice", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
		}
		var resp periodResponse
		decodeBody(t, rr, &resp)
		if resp.Start != "2024-02-25" || resp.End != "2024-03-25" {
			t.Errorf("period = %+v", resp)
		}
	})

	t.Run("unconfigured user falls back to calendar", func(t *testing.T) {
		rr := doRequest(t, srv, http.MethodGet, "/user/periods?date=2024-03-14", "tok-bob", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		var resp periodResponse
		decodeBody(t, rr, &resp)
		if resp.Start != "2024-03-01" || resp.End != "2024-04-01" {
			t.Errorf("period = %+v", resp)
		}
	})

	t.Run("range", func(t *testing.T) {
		rr := doRequest(t, srv, http.MethodGet, "/user/periods?from=2024-01-15&to=2024-04-15", "tok-alice", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
		}
		var resp struct {
			Periods []periodResponse `json:"periods"`
		}
		decodeBody(t, rr, &resp)
		if len(resp.Periods) == 0 {
			t.Fatal("no periods returned")
		}
		for i := 1; i < len(resp.Periods); i++ {
			if resp.Periods[i].Start != resp.Periods[i-1].End {
				t.Errorf("periods not contiguous at %d: %v vs %v", i, resp.Periods[i].Start, resp.Periods[i-1].End)
			}
		}
	})

	t.Run("inverted range", func(t *testing.T) {
		rr := doRequest(t, srv, http.MethodGet, "/user/periods?from=2024-04-15&to=2024-01-15", "tok-alice", "")
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rr.Code)
		}
	})

	t.Run("missing parameters", func(t *testing.T) {
		rr := doRequest(t, srv, http.MethodGet, "/user/periods", "tok-alice", "")
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rr.Code)
		}
	})
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)
	defer srv.Shutdown(context.Background())

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPatch, "/user/settings"},
		{http.MethodPost, "/user/settings/types"},
		{http.MethodPost, "/user/settings/preview"},
		{http.MethodDelete, "/user/periods"},
	}

	for _, tt := range tests {
		rr := doRequest(t, srv, tt.method, tt.path, "tok-alice", "")
		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: status = %d, want 405", tt.method, tt.path, rr.Code)
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv, _ := newTestServer(t)
	defer srv.Shutdown(context.Background())

	rr := doRequest(t, srv, http.MethodGet, "/user/settings/types", "tok-alice", "")
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rr.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
	if !strings.Contains(rr.Header().Get("Content-Type"), "application/json") {
		t.Errorf("Content-Type = %q", rr.Header().Get("Content-Type"))
	}
}
