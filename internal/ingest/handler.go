// Package ingest exposes the HTTP endpoint accepting point batches for a
// dataset and forwarding them to the index collector.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"proxi/internal/geom"
	"proxi/internal/httputil"
	"proxi/internal/index"
	"proxi/internal/item/model"
	"proxi/internal/logging"
)

const maxBodyBytes = 64 * 1024 * 1024

type request struct {
	Dataset string `json:"dataset"`
	Data    []struct {
		Vec       []float64   `json:"vector"`
		Tag       interface{} `json:"tag"`
		CreatedAt time.Time   `json:"createdAt"`
	} `json:"data"`
}

func NewHandler(cfg *Config, collector index.Collector) (http.Handler, error) {
	return &handler{
		collector: collector,
		cfg:       cfg,
	}, nil
}

type handler struct {
	collector index.Collector
	cfg       *Config
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req request
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()
	logger := logging.FromContext(ctx)

	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		logger.Debug(fmt.Sprintf(`{"error": "method %v is not allowed"}`, r.Method))
		_, _ = fmt.Fprintf(w, `{"error": "method %v is not allowed"}`, r.Method)
		return
	}

	if t := r.Header.Get("content-type"); len(t) < 16 || t[:16] != "application/json" {
		w.WriteHeader(http.StatusUnsupportedMediaType)
		logger.Debug(fmt.Sprintf(`{"error": "%v"}`, "content-type is not application/json"))
		_, _ = fmt.Fprintf(w, `{"error": "%v"}`, "content-type is not application/json")
		return
	}

	defer r.Body.Close()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	d := json.NewDecoder(r.Body)
	if err := d.Decode(&req); err != nil {
		httputil.DecodeErr(ctx, w, err)
		return
	}

	if req.Dataset == "" {
		httputil.RespBadRequest(ctx, w, `{"error": "dataset name must not be empty"}`)
		return
	}

	if len(req.Data) > h.cfg.MaxDataItemsLen {
		httputil.RespBadRequest(ctx, w, `{"error": "data items is too large, max allowed len is %d"}`, h.cfg.MaxDataItemsLen)
		return
	}

	defer func() {
		logger.Infof("Collected %d points for dataset %s", len(req.Data), req.Dataset)
	}()
	go func() {
		items := make([]model.Item, 0, len(req.Data))
		for _, dat := range req.Data {
			createdAt := dat.CreatedAt
			if createdAt.IsZero() {
				createdAt = time.Now()
			}
			items = append(items, model.NewItem(req.Dataset, geom.NewPoint(dat.Vec), createdAt, dat.Tag))
		}
		if err := h.collector.Collect(items...); err != nil {
			logger.Errorf("error sending to collect service: %v", err)
		}
	}()
	w.WriteHeader(http.StatusAccepted)
	_, _ = fmt.Fprintf(w, `{"status": "ok"}`)
}
