package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fedstats/domain/core"
	"fedstats/domain/stats"
	"fedstats/domain/table"
	"fedstats/internal/station"
)

type memSource struct {
	tbl *table.Table
}

func (m memSource) Load(ctx context.Context) (*table.Table, error) { return m.tbl, nil }

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	tbl, err := table.New([]table.Column{
		{Name: "value", Type: table.TypeNumeric, Floats: []float64{10, 12, 14, 20, 22}},
		{Name: "group", Type: table.TypeCategorical, Labels: []string{"X", "X", "X", "Y", "Y"}},
	})
	if err != nil {
		t.Fatalf("table.New failed: %v", err)
	}
	st := station.New(core.StationID("alpha"), memSource{tbl}, 0)
	server := httptest.NewServer(NewApp(st).Router())
	t.Cleanup(server.Close)
	return server
}

func TestHandlePartial_TTest(t *testing.T) {
	server := testServer(t)

	body := strings.NewReader(`{"columns":["value"],"group_col":"group"}`)
	resp, err := http.Post(server.URL+"/v1/partial/t_test_partial", "application/json", body)
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var partial stats.GroupedTTestPartial
	if err := json.NewDecoder(resp.Body).Decode(&partial); err != nil {
		t.Fatalf("decoding partial: %v", err)
	}
	x := partial["X"]["value"]
	if x.Count != 3 || x.Average != 12 {
		t.Errorf("group X = %+v, want count=3 mean=12", x)
	}
}

// Extraction failures come back as 200 with a tagged error payload; the
// coordinator's skip policy handles them, not HTTP error handling.
func TestHandlePartial_ErrorIsWirePayload(t *testing.T) {
	server := testServer(t)

	body := strings.NewReader(`{"columns":["missing_column"]}`)
	resp, err := http.Post(server.URL+"/v1/partial/pca_partial", "application/json", body)
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var tagged struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tagged); err != nil {
		t.Fatalf("decoding error payload: %v", err)
	}
	if tagged.Error == "" {
		t.Error("expected a tagged error payload for a missing column")
	}
}

func TestHandlePartial_UnknownMethod(t *testing.T) {
	server := testServer(t)

	resp, err := http.Post(server.URL+"/v1/partial/no_such_method", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()

	var tagged struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tagged); err != nil {
		t.Fatalf("decoding error payload: %v", err)
	}
	if tagged.Error == "" {
		t.Error("unknown method should answer with a tagged error payload")
	}
}

func TestStationInfo(t *testing.T) {
	server := testServer(t)

	resp, err := http.Get(server.URL + "/v1/station")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	var info map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("decoding info: %v", err)
	}
	if info["station_id"] != "alpha" {
		t.Errorf("station_id = %q, want alpha", info["station_id"])
	}
}
