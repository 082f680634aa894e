package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tinytelemetry/awrhist/internal/duckdb"
	"github.com/tinytelemetry/awrhist/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var columns = []string{"Event", "Waits", "<8us", "<16us", "<32us", "<64us", "<128u", "<256u", "<512u", ">=512"}

func seedRow(file, event, count string) *model.HistogramRow {
	return &model.HistogramRow{
		RunID:       "run-1",
		Layout:      "total_waits",
		WaitEvent:   event,
		Filename:    file,
		Found:       true,
		Columns:     columns,
		Values:      []string{event, count, "1.0", "2.0", "3.0", "4.0", "5.0", "6.0", "7.0", "8.0"},
		ExtractedAt: time.Now(),
	}
}

func newTestServer(t *testing.T) (*Server, *duckdb.Store, *gin.Engine) {
	t.Helper()
	store, err := duckdb.NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	srv := NewServer("", store)
	srv.startTime = time.Now()
	return srv, store, srv.routes()
}

func doJSON(t *testing.T, r http.Handler, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("unmarshal %s %s: %v (%s)", method, path, err, w.Body.String())
		}
	}
	return w.Code, out
}

func TestHealthEndpoint(t *testing.T) {
	_, store, r := newTestServer(t)
	if err := store.InsertRows([]*model.HistogramRow{seedRow("a.txt", "log file sync", "1")}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	code, body := doJSON(t, r, http.MethodGet, "/api/health", "")
	if code != http.StatusOK {
		t.Fatalf("health status = %d, want %d", code, http.StatusOK)
	}
	if body["status"] != "ok" {
		t.Errorf("health status = %v, want ok", body["status"])
	}
	if body["row_count"] != float64(1) {
		t.Errorf("row_count = %v, want 1", body["row_count"])
	}
}

func TestHistogramsEndpoint(t *testing.T) {
	_, store, r := newTestServer(t)
	err := store.InsertRows([]*model.HistogramRow{
		seedRow("a.txt", "db file sequential read", "1200.0"),
		seedRow("a.txt", "log file parallel write", "40"),
		seedRow("b.txt", "db file sequential read", "900"),
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	tests := []struct {
		path string
		want int
	}{
		{"/api/histograms", 3},
		{"/api/histograms?event=db+file+sequential+read", 2},
		{"/api/histograms?filename=b.txt", 1},
		{"/api/histograms?layout=up_to_32ms", 0},
		{"/api/histograms?limit=1", 1},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			code, body := doJSON(t, r, http.MethodGet, tt.path, "")
			if code != http.StatusOK {
				t.Fatalf("status = %d", code)
			}
			if got := body["row_count"]; got != float64(tt.want) {
				t.Errorf("row_count = %v, want %d", got, tt.want)
			}
		})
	}

	_, body := doJSON(t, r, http.MethodGet, "/api/histograms?filename=b.txt", "")
	row := body["rows"].([]interface{})[0].(map[string]interface{})
	values := row["values"].(map[string]interface{})
	if values["Waits"] != "900" || values[">=512"] != "8.0" {
		t.Errorf("values = %v", values)
	}
}

func TestHistogramsEndpoint_BadLimit(t *testing.T) {
	_, _, r := newTestServer(t)

	code, _ := doJSON(t, r, http.MethodGet, "/api/histograms?limit=abc", "")
	if code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", code, http.StatusBadRequest)
	}
}

func TestEventsEndpoint(t *testing.T) {
	_, store, r := newTestServer(t)
	err := store.InsertRows([]*model.HistogramRow{
		seedRow("a.txt", "db file sequential read", "10"),
		seedRow("b.txt", "db file sequential read", "15"),
		seedRow("a.txt", "log file parallel write", "3"),
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	code, body := doJSON(t, r, http.MethodGet, "/api/events?layout=total_waits", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	events := body["events"].([]interface{})
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	top := events[0].(map[string]interface{})
	if top["wait_event"] != "db file sequential read" || top["total_count"] != float64(25) || top["reports"] != float64(2) {
		t.Errorf("top event = %v", top)
	}
}

func TestSchemaEndpoint(t *testing.T) {
	_, _, r := newTestServer(t)

	code, body := doJSON(t, r, http.MethodGet, "/api/schema", "")
	if code != http.StatusOK {
		t.Fatalf("schema status = %d, want %d", code, http.StatusOK)
	}
	tables := body["tables"].(map[string]interface{})
	if _, ok := tables["histogram_rows"]; !ok {
		t.Errorf("schema tables = %v, want histogram_rows", tables)
	}
}

func TestQueryEndpoint(t *testing.T) {
	_, store, r := newTestServer(t)
	if err := store.InsertRows([]*model.HistogramRow{seedRow("a.txt", "log file sync", "1")}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	tests := []struct {
		name string
		sql  string
		want int
	}{
		{"select", "SELECT COUNT(*) AS cnt FROM histogram_rows", http.StatusOK},
		{"with", "WITH c AS (SELECT COUNT(*) AS cnt FROM histogram_rows) SELECT cnt FROM c", http.StatusOK},
		{"insert", "INSERT INTO histogram_rows (run_id) VALUES ('x')", http.StatusBadRequest},
		{"drop", "DROP TABLE histogram_rows", http.StatusBadRequest},
		{"chained copy", "SELECT 1; COPY histogram_rows TO '/tmp/evil.csv'", http.StatusBadRequest},
		{"attach", "SELECT 1; ATTACH '/tmp/evil.db'", http.StatusBadRequest},
		{"empty", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := fmt.Sprintf(`{"sql": %q}`, tt.sql)
			code, _ := doJSON(t, r, http.MethodPost, "/api/query", body)
			if code != tt.want {
				t.Errorf("status = %d, want %d", code, tt.want)
			}
		})
	}
}

func TestWrongMethods(t *testing.T) {
	_, _, r := newTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/health"},
		{http.MethodGet, "/api/query"},
		{http.MethodDelete, "/api/histograms"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusMethodNotAllowed && w.Code != http.StatusNotFound {
			t.Errorf("%s %s status = %d, want 405 or 404", tc.method, tc.path, w.Code)
		}
	}
}

func TestStartStop(t *testing.T) {
	store, err := duckdb.NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	srv := NewServer("127.0.0.1:0", store)
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	resp, err := http.Get("http://" + srv.Addr() + "/api/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d", resp.StatusCode)
	}

	if err := srv.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
