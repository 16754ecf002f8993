// Package query exposes the HTTP endpoints answering k-nearest-neighbor
// and radial proximity queries against the dataset index.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"

	"proxi/internal/geom"
	"proxi/internal/httputil"
	"proxi/internal/index"
	"proxi/internal/logging"
	"proxi/internal/search"
	"proxi/pkg/container/kdtree"
)

const maxBodyBytes = 64 * 1024 * 1024

type knnRequest struct {
	Dataset string `json:"dataset"`
	Queries []struct {
		Vec []float64 `json:"vector"`
		K   int       `json:"k"`
	} `json:"queries"`
}

type radialRequest struct {
	Dataset string `json:"dataset"`
	Queries []struct {
		Vec    []float64 `json:"vector"`
		Radius float64   `json:"radius"`
		K      int       `json:"k"`
	} `json:"queries"`
}

type match struct {
	Vec []float64   `json:"vector"`
	Tag interface{} `json:"tag"`
}

type queryResult struct {
	Vec     []float64 `json:"vector"`
	Found   bool      `json:"found"`
	Matches []match   `json:"matches"`
}

type response struct {
	Dataset string        `json:"dataset"`
	Results []queryResult `json:"results"`
}

func NewKNNHandler(cfg *Config, querier index.Querier) (http.Handler, error) {
	return &knnHandler{cfg: cfg, querier: querier}, nil
}

type knnHandler struct {
	querier index.Querier
	cfg     *Config
}

func (h *knnHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req knnRequest
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	if !readRequest(ctx, w, r, h.cfg, &req) {
		return
	}

	if len(req.Queries) > h.cfg.MaxQueriesLen {
		httputil.RespBadRequest(ctx, w, `{"error": "queries is too large, max allowed len is %d"}`, h.cfg.MaxQueriesLen)
		return
	}

	results := make([]queryResult, len(req.Queries))
	errGrp := errgroup.Group{}
	mtx := sync.Mutex{}
	for i, q := range req.Queries {
		i, q := i, q
		errGrp.Go(func() error {
			matches, found, err := h.querier.NearestNeighbors(req.Dataset, geom.NewPoint(q.Vec), q.K)
			if err != nil {
				return err
			}
			mtx.Lock()
			results[i] = queryResult{Vec: q.Vec, Found: found, Matches: makeMatches(matches)}
			mtx.Unlock()
			return nil
		})
	}
	if err := errGrp.Wait(); err != nil {
		respQueryErr(ctx, w, err)
		return
	}

	writeResponse(ctx, w, response{Dataset: req.Dataset, Results: results})
}

func NewRadialHandler(cfg *Config, querier index.Querier) (http.Handler, error) {
	return &radialHandler{cfg: cfg, querier: querier}, nil
}

type radialHandler struct {
	querier index.Querier
	cfg     *Config
}

func (h *radialHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req radialRequest
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	if !readRequest(ctx, w, r, h.cfg, &req) {
		return
	}

	if len(req.Queries) > h.cfg.MaxQueriesLen {
		httputil.RespBadRequest(ctx, w, `{"error": "queries is too large, max allowed len is %d"}`, h.cfg.MaxQueriesLen)
		return
	}

	results := make([]queryResult, len(req.Queries))
	errGrp := errgroup.Group{}
	mtx := sync.Mutex{}
	for i, q := range req.Queries {
		i, q := i, q
		errGrp.Go(func() error {
			matches, found, err := h.querier.RadialSearch(req.Dataset, geom.NewPoint(q.Vec), q.Radius, q.K)
			if err != nil {
				return err
			}
			mtx.Lock()
			results[i] = queryResult{Vec: q.Vec, Found: found, Matches: makeMatches(matches)}
			mtx.Unlock()
			return nil
		})
	}
	if err := errGrp.Wait(); err != nil {
		respQueryErr(ctx, w, err)
		return
	}

	writeResponse(ctx, w, response{Dataset: req.Dataset, Results: results})
}

func readRequest(ctx context.Context, w http.ResponseWriter, r *http.Request, cfg *Config, req interface{}) bool {
	logger := logging.FromContext(ctx)

	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		logger.Debug(fmt.Sprintf(`{"error": "method %v is not allowed"}`, r.Method))
		_, _ = fmt.Fprintf(w, `{"error": "method %v is not allowed"}`, r.Method)
		return false
	}

	if t := r.Header.Get("content-type"); len(t) < 16 || t[:16] != "application/json" {
		w.WriteHeader(http.StatusUnsupportedMediaType)
		logger.Debug(fmt.Sprintf(`{"error": "%v"}`, "content-type is not application/json"))
		_, _ = fmt.Fprintf(w, `{"error": "%v"}`, "content-type is not application/json")
		return false
	}

	defer r.Body.Close()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	d := json.NewDecoder(r.Body)
	if err := d.Decode(req); err != nil {
		httputil.DecodeErr(ctx, w, err)
		return false
	}
	return true
}

func respQueryErr(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, index.ErrDatasetNotFound) {
		httputil.RespNotFound(ctx, w, `{"error": "%v"}`, err)
		return
	}
	if errors.Is(err, geom.ErrDimNotEqual) || errors.Is(err, kdtree.ErrDimensions) {
		httputil.RespBadRequest(ctx, w, `{"error": "%v"}`, err)
		return
	}
	httputil.RespInternalError(ctx, w, `{"error": "query processing error, %v"}`, err)
}

func makeMatches(in []search.Match) []match {
	out := make([]match, 0, len(in))
	for _, m := range in {
		out = append(out, match{Vec: m.Point.Points(), Tag: m.Tag})
	}
	return out
}

func writeResponse(ctx context.Context, w http.ResponseWriter, resp response) {
	bytes, err := json.Marshal(resp)
	if err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "failed to encode output json %v"}`, err)
		return
	}
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "%s", bytes)
}
