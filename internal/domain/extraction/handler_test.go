package extraction

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/nhsextract/internal/domain/patient"
)

type pageBody struct {
	Data        []patient.Record `json:"data"`
	Total       int              `json:"total"`
	Limit       int              `json:"limit"`
	Offset      int              `json:"offset"`
	HasMore     bool             `json:"has_more"`
	RunID       string           `json:"run_id"`
	Diagnostics []string         `json:"diagnostics"`
}

func newTestServer() *echo.Echo {
	e := echo.New()
	h := NewHandler(NewService(zerolog.Nop()))
	h.RegisterRoutes(e.Group("/api/v1"))
	return e
}

func decodePage(t *testing.T, rec *httptest.ResponseRecorder) pageBody {
	t.Helper()
	var body pageBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestHandler_Extract(t *testing.T) {
	e := newTestServer()
	payload, _ := json.Marshal(Sources{
		Narrative: "Name:Michael Michaelson NHS Number:333444",
		Records:   `{[{"Name":"","NHSNumber":12345}]}`,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients/$extract", strings.NewReader(string(payload)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodePage(t, rec)
	if body.Total != 2 {
		t.Errorf("expected total 2, got %d", body.Total)
	}
	if len(body.Data) != 2 {
		t.Fatalf("expected 2 records, got %+v", body.Data)
	}
	if body.Data[0] != (patient.Record{Name: "Michael Michaelson", Identifier: "333444"}) {
		t.Errorf("unexpected first record %+v", body.Data[0])
	}
	if body.Data[1] != (patient.Record{Name: "Unknown", Identifier: "12345"}) {
		t.Errorf("unexpected second record %+v", body.Data[1])
	}
	if body.RunID == "" {
		t.Error("expected run_id in response")
	}
}

func TestHandler_Extract_WireFormat(t *testing.T) {
	e := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients/$extract",
		strings.NewReader(`{"narrative":"NHS Number:444"}`))
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	if !strings.Contains(rec.Body.String(), `{"name":"Unknown","nhs_number":"444"}`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestHandler_Extract_Diagnostics(t *testing.T) {
	e := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients/$extract",
		strings.NewReader(`{"narrative":"NHS Number:444","records":"[{\"Name\":\"A\",\"NHSNumber\":1}]"}`))
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodePage(t, rec)
	if len(body.Diagnostics) != 1 {
		t.Errorf("expected 1 diagnostic, got %v", body.Diagnostics)
	}
	if body.Total != 1 {
		t.Errorf("expected the narrative record only, got %d", body.Total)
	}
}

func TestHandler_Extract_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"invalid json", "{not json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestServer()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/patients/$extract", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			e.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestHandler_ExtractSample_Paged(t *testing.T) {
	e := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/$extract/sample?_count=4&_offset=4", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodePage(t, rec)
	if body.Total != len(sampleReport) {
		t.Errorf("expected total %d, got %d", len(sampleReport), body.Total)
	}
	if body.Limit != 4 || body.Offset != 4 {
		t.Errorf("expected limit 4 offset 4, got %d/%d", body.Limit, body.Offset)
	}
	if !body.HasMore {
		t.Error("expected has_more on the middle page")
	}
	want := sampleReport[4:8]
	if len(body.Data) != len(want) {
		t.Fatalf("expected %d records, got %+v", len(want), body.Data)
	}
	for i := range want {
		if body.Data[i] != want[i] {
			t.Errorf("data[%d] = %+v, want %+v", i, body.Data[i], want[i])
		}
	}
}
