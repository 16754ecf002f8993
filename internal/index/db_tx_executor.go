package index

import (
	"context"
	"fmt"
	"sync"
	"time"

	"proxi/internal/item/model"
	"proxi/internal/logging"
)

func newDBTxExecutor(opts dbTxExecutorOptions, shutdownCh chan<- error) *dbTxExecutor {
	return &dbTxExecutor{opts: opts, shutdownCh: shutdownCh}
}

type dbTxExecutorOptions struct {
	flushSize int
	flushTime time.Duration
}

// dbTxExecutor accumulates collected items and inserts them in bulk into
// persistent storage, either when the buffer reaches the flush size or on
// the flush ticker.
type dbTxExecutor struct {
	mtx sync.RWMutex

	opts dbTxExecutorOptions
	buf  []model.Item

	shutdownCh chan<- error
}

// shutdown drains the buffer into persistent storage.
func (tx *dbTxExecutor) shutdown(appendFn appendItemsFn) error {
	tx.mtx.Lock()
	defer tx.mtx.Unlock()
	if err := appendFn(context.Background(), tx.buf); err != nil {
		return fmt.Errorf("txExecutor: append many operation failed: %v", err)
	}
	tx.buf = tx.buf[:0]
	return nil
}

func (tx *dbTxExecutor) append(ctx context.Context, data model.Item, appendFn appendItemsFn) {
	tx.mtx.Lock()
	if tx.buf == nil {
		tx.buf = []model.Item{}
	}

	tx.buf = append(tx.buf, data)
	bufLen := len(tx.buf)
	tx.mtx.Unlock()

	if bufLen >= tx.opts.flushSize {
		go tx.bulkAppend(ctx, appendFn)
	}
}

func (tx *dbTxExecutor) bulkAppend(ctx context.Context, appendFn appendItemsFn) {
	logger := logging.FromContext(ctx)

	tx.mtx.Lock()
	tmpBuf := make([]model.Item, len(tx.buf))
	copy(tmpBuf, tx.buf)
	tx.buf = tx.buf[:0]
	tx.mtx.Unlock()

	if err := appendFn(context.Background(), tmpBuf); err != nil {
		logger.Errorf("txExecutor: append many operation failed: %v", err)
	}
}

func (tx *dbTxExecutor) flusher(ctx context.Context, appendFn appendItemsFn) {
	defer func() {
		tx.shutdownCh <- tx.shutdown(appendFn)
	}()
	ticker := time.NewTicker(tx.opts.flushTime)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			tx.bulkAppend(ctx, appendFn)
		case <-ctx.Done():
			return
		}
	}
}
