package query

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"proxi/internal/geom"
	"proxi/internal/index"
	"proxi/internal/search"
)

type fakeQuerier struct {
	matches []search.Match
}

func (f *fakeQuerier) NearestNeighbors(dataset string, target geom.Point, k int) ([]search.Match, bool, error) {
	if dataset != "fruits" {
		return nil, false, fmt.Errorf("%w: %s", index.ErrDatasetNotFound, dataset)
	}
	if k < len(f.matches) {
		return f.matches[:k], k > 0, nil
	}
	return f.matches, len(f.matches) > 0, nil
}

func (f *fakeQuerier) RadialSearch(dataset string, center geom.Point, radius float64, k int) ([]search.Match, bool, error) {
	return f.NearestNeighbors(dataset, center, k)
}

func testConfig() *Config {
	return &Config{RequestTimeout: time.Second, MaxQueriesLen: 10}
}

func TestKNNHandler(t *testing.T) {
	querier := &fakeQuerier{matches: []search.Match{
		{Point: geom.Point{7, 2}, Tag: "Eric"},
		{Point: geom.Point{5, 4}, Tag: "Is"},
	}}
	h, err := NewKNNHandler(testConfig(), querier)
	if err != nil {
		t.Fatalf("calling the NewKNNHandler method, err got: %v, expected: %v", err, nil)
	}

	body := `{"dataset": "fruits", "queries": [{"vector": [6, 3], "k": 2}]}`
	req := httptest.NewRequest("POST", "/knn", strings.NewReader(body))
	req.Header.Set("content-type", "application/json")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("calling the ServeHTTP method, status got: %v, expected: %v", rec.Code, http.StatusOK)
	}

	var resp response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("calling the ServeHTTP method, response unmarshal err got: %v, expected: %v", err, nil)
	}
	if resp.Dataset != "fruits" {
		t.Errorf("calling the ServeHTTP method, dataset got: %v, expected: %v", resp.Dataset, "fruits")
	}
	if len(resp.Results) != 1 {
		t.Fatalf("calling the ServeHTTP method, the number of results got: %v, expected: %v", len(resp.Results), 1)
	}
	if !resp.Results[0].Found {
		t.Errorf("calling the ServeHTTP method, found got: %v, expected: %v", resp.Results[0].Found, true)
	}
	if len(resp.Results[0].Matches) != 2 {
		t.Fatalf("calling the ServeHTTP method, the number of matches got: %v, expected: %v", len(resp.Results[0].Matches), 2)
	}
	if resp.Results[0].Matches[0].Tag != "Eric" {
		t.Errorf("calling the ServeHTTP method, tag got: %v, expected: %v", resp.Results[0].Matches[0].Tag, "Eric")
	}
}

func TestRadialHandler(t *testing.T) {
	querier := &fakeQuerier{matches: []search.Match{
		{Point: geom.Point{7, 2}, Tag: "Eric"},
	}}
	h, err := NewRadialHandler(testConfig(), querier)
	if err != nil {
		t.Fatalf("calling the NewRadialHandler method, err got: %v, expected: %v", err, nil)
	}

	body := `{"dataset": "fruits", "queries": [{"vector": [6, 3], "radius": 5, "k": 0}]}`
	req := httptest.NewRequest("POST", "/radial", strings.NewReader(body))
	req.Header.Set("content-type", "application/json")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("calling the ServeHTTP method, status got: %v, expected: %v", rec.Code, http.StatusOK)
	}

	var resp response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("calling the ServeHTTP method, response unmarshal err got: %v, expected: %v", err, nil)
	}
	if len(resp.Results) != 1 || len(resp.Results[0].Matches) != 1 {
		t.Fatalf("calling the ServeHTTP method, results got: %+v, expected one result with one match", resp.Results)
	}
}

func TestKNNHandlerUnknownDataset(t *testing.T) {
	h, err := NewKNNHandler(testConfig(), &fakeQuerier{})
	if err != nil {
		t.Fatalf("calling the NewKNNHandler method, err got: %v, expected: %v", err, nil)
	}

	body := `{"dataset": "missing", "queries": [{"vector": [1, 1], "k": 1}]}`
	req := httptest.NewRequest("POST", "/knn", strings.NewReader(body))
	req.Header.Set("content-type", "application/json")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("calling the ServeHTTP method, status got: %v, expected: %v", rec.Code, http.StatusNotFound)
	}
}

func TestKNNHandlerTooManyQueries(t *testing.T) {
	h, err := NewKNNHandler(&Config{RequestTimeout: time.Second, MaxQueriesLen: 1}, &fakeQuerier{})
	if err != nil {
		t.Fatalf("calling the NewKNNHandler method, err got: %v, expected: %v", err, nil)
	}

	body := `{"dataset": "fruits", "queries": [{"vector": [1], "k": 1}, {"vector": [2], "k": 1}]}`
	req := httptest.NewRequest("POST", "/knn", strings.NewReader(body))
	req.Header.Set("content-type", "application/json")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("calling the ServeHTTP method, status got: %v, expected: %v", rec.Code, http.StatusBadRequest)
	}
}
