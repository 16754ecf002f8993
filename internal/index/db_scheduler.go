package index

import (
	"context"
	"fmt"
	"sort"
	"time"

	"proxi/internal/item/model"
	"proxi/internal/logging"
)

type dbSchedulerConfig struct {
	maxItemsStored int
	maxStorageTime time.Duration
	rebuildDBTime  time.Duration
}

func newDBScheduler(config dbSchedulerConfig, deps pullDependencies) *dbScheduler {
	return &dbScheduler{opts: config, deps: deps}
}

// dbScheduler keeps the persistent storage within the configured retention
// limits, deleting items that are too old or beyond the per-dataset size
// cap.
type dbScheduler struct {
	opts dbSchedulerConfig
	deps pullDependencies
}

// processOutdatedItems deletes the items of the dataset whose age exceeds
// the configured storage time.
func (s *dbScheduler) processOutdatedItems(
	dataset string,
	fetchFn fetchItemsByDatasetFn,
	deleteFn deleteItemsFn,
) error {
	items, err := fetchFn(dataset, func(item model.Item) bool {
		return time.Since(item.CreatedAt) > s.opts.maxStorageTime
	})
	if err != nil {
		return fmt.Errorf("unable find items by dataset %s: %v", dataset, err)
	}

	if err := deleteFn(context.Background(), items); err != nil {
		return fmt.Errorf("unable delete outdated items of dataset %s: %v", dataset, err)
	}
	return nil
}

// processOverSizeItems sorts the dataset items by creation time and
// deletes the oldest ones beyond the size cap.
func (s *dbScheduler) processOverSizeItems(
	dataset string,
	fetchFn fetchItemsByDatasetFn,
	deleteFn deleteItemsFn,
) error {
	items, err := fetchFn(dataset, nil)
	if err != nil {
		return fmt.Errorf("unable find items by dataset %s: %v", dataset, err)
	}
	if len(items) <= s.opts.maxItemsStored {
		return nil
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.UnixNano() < items[j].CreatedAt.UnixNano()
	})

	if err := deleteFn(context.Background(), items[:len(items)-s.opts.maxItemsStored]); err != nil {
		return fmt.Errorf("unable delete resizable items of dataset %s: %v", dataset, err)
	}
	return nil
}

func (s *dbScheduler) rebuildOutdated(
	keysFn fetchKeysFn,
	fetchFn fetchItemsByDatasetFn,
	deleteFn deleteItemsFn,
) error {
	keys, err := keysFn()
	if err != nil {
		return fmt.Errorf("unable to fetch dataset keys: %v", err)
	}
	for i := range keys {
		if err := s.processOutdatedItems(keys[i], fetchFn, deleteFn); err != nil {
			return fmt.Errorf("unable process items: %v", err)
		}
	}
	return nil
}

func (s *dbScheduler) rebuildSize(
	keysFn fetchKeysFn,
	countFn countByDatasetFn,
	fetchFn fetchItemsByDatasetFn,
	deleteFn deleteItemsFn,
) error {
	keys, err := keysFn()
	if err != nil {
		return fmt.Errorf("unable fetch keys: %v", err)
	}
	for i := range keys {
		count, err := countFn(keys[i])
		if err != nil {
			return fmt.Errorf("unable count items of dataset %s: %v", keys[i], err)
		}
		if count <= s.opts.maxItemsStored {
			continue
		}
		if err := s.processOverSizeItems(keys[i], fetchFn, deleteFn); err != nil {
			return fmt.Errorf("unable process items: %v", err)
		}
	}
	return nil
}

func (s *dbScheduler) schedule(ctx context.Context) {
	logger := logging.FromContext(ctx)
	ticker := time.NewTicker(s.opts.rebuildDBTime)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if s.opts.maxStorageTime > 0 {
				if err := s.rebuildOutdated(s.deps.fetchKeys, s.deps.fetchItemsByDataset, s.deps.deleteItems); err != nil {
					logger.Errorf("dbScheduler: %v", err)
				}
			}
			if s.opts.maxItemsStored > 0 {
				if err := s.rebuildSize(s.deps.fetchKeys, s.deps.countByDataset, s.deps.fetchItemsByDataset, s.deps.deleteItems); err != nil {
					logger.Errorf("dbScheduler: %v", err)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}
