package ingest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"proxi/internal/item/model"
)

type fakeCollector struct {
	itemsCh chan []model.Item
}

func (f *fakeCollector) Collect(in ...model.Item) error {
	f.itemsCh <- in
	return nil
}

func newTestHandler(t *testing.T) (http.Handler, *fakeCollector) {
	t.Helper()
	collector := &fakeCollector{itemsCh: make(chan []model.Item, 1)}
	h, err := NewHandler(&Config{RequestTimeout: time.Second, MaxDataItemsLen: 10}, collector)
	if err != nil {
		t.Fatalf("calling the NewHandler method, err got: %v, expected: %v", err, nil)
	}
	return h, collector
}

func TestHandlerCollectsItems(t *testing.T) {
	h, collector := newTestHandler(t)

	body := `{"dataset": "fruits", "data": [{"vector": [1, 2], "tag": "a"}, {"vector": [3, 4], "tag": "b"}]}`
	req := httptest.NewRequest("POST", "/points", strings.NewReader(body))
	req.Header.Set("content-type", "application/json")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("calling the ServeHTTP method, status got: %v, expected: %v", rec.Code, http.StatusAccepted)
	}

	select {
	case items := <-collector.itemsCh:
		if len(items) != 2 {
			t.Fatalf("calling the Collect method, the number of items got: %v, expected: %v", len(items), 2)
		}
		if items[0].Dataset != "fruits" {
			t.Errorf("calling the Collect method, dataset got: %v, expected: %v", items[0].Dataset, "fruits")
		}
		if items[0].Tag != "a" {
			t.Errorf("calling the Collect method, tag got: %v, expected: %v", items[0].Tag, "a")
		}
		if items[0].CreatedAt.IsZero() {
			t.Errorf("calling the Collect method, createdAt is zero, expected it to be set")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("calling the ServeHTTP method, no items were collected")
	}
}

func TestHandlerRejections(t *testing.T) {
	tests := []struct {
		name         string
		method       string
		contentType  string
		body         string
		expectedCode int
	}{
		{
			name:         "method_not_allowed",
			method:       "GET",
			contentType:  "application/json",
			body:         `{}`,
			expectedCode: http.StatusMethodNotAllowed,
		},
		{
			name:         "unsupported_media_type",
			method:       "POST",
			contentType:  "text/plain",
			body:         `{}`,
			expectedCode: http.StatusUnsupportedMediaType,
		},
		{
			name:         "empty_dataset",
			method:       "POST",
			contentType:  "application/json",
			body:         `{"dataset": "", "data": [{"vector": [1, 2]}]}`,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "malformed_json",
			method:       "POST",
			contentType:  "application/json",
			body:         `{"dataset": `,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "too_many_items",
			method:       "POST",
			contentType:  "application/json",
			body:         `{"dataset": "d", "data": [{"vector": [1]}, {"vector": [2]}, {"vector": [3]}]}`,
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			collector := &fakeCollector{itemsCh: make(chan []model.Item, 1)}
			h, err := NewHandler(&Config{RequestTimeout: time.Second, MaxDataItemsLen: 2}, collector)
			if err != nil {
				t.Fatalf("calling the NewHandler method, err got: %v, expected: %v", err, nil)
			}

			req := httptest.NewRequest(test.method, "/points", strings.NewReader(test.body))
			req.Header.Set("content-type", test.contentType)
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			if rec.Code != test.expectedCode {
				t.Errorf("calling the ServeHTTP method, status got: %v, expected: %v", rec.Code, test.expectedCode)
			}
		})
	}
}
