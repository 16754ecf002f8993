package index

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"proxi/internal/database"
	"proxi/internal/geom"
	itemDb "proxi/internal/item/database"
	"proxi/internal/item/model"
	"proxi/internal/logging"
	"proxi/internal/search"
)

// ProvideFn returns a Manager instance bound to a shutdown channel.
type ProvideFn func(chan<- error) (Manager, error)

var ErrDatasetNotFound = fmt.Errorf("index: dataset not found")

// Manager is the background service owning the per-dataset searchers and
// their persistence.
type Manager interface {
	CollectQuerier
	Run(context.Context) error
	Stop()
}

// Collector accepts new items and schedules them for indexing and
// persistence.
type Collector interface {
	Collect(in ...model.Item) error
}

// Querier answers proximity queries against a named dataset.
type Querier interface {
	NearestNeighbors(dataset string, target geom.Point, k int) ([]search.Match, bool, error)
	RadialSearch(dataset string, center geom.Point, radius float64, k int) ([]search.Match, bool, error)
}

type CollectQuerier interface {
	Collector
	Querier
}

// Abstractions over the item storage, injected so the executor and
// scheduler can be exercised without a live database.
type (
	fetchItemsFn          func(context.Context, itemDb.FilterFn) ([]model.Item, error)
	fetchItemsByDatasetFn func(string, itemDb.FilterFn) ([]model.Item, error)
	deleteItemsFn         func(context.Context, []model.Item) error
	appendItemsFn         func(context.Context, []model.Item) error
	fetchKeysFn           func() ([]string, error)
	countByDatasetFn      func(string) (int, error)
)

type pullDependencies struct {
	fetchItems          fetchItemsFn
	fetchItemsByDataset fetchItemsByDatasetFn
	deleteItems         deleteItemsFn
	appendItems         appendItemsFn
	fetchKeys           fetchKeysFn
	countByDataset      countByDatasetFn
}

type Options struct {
	flushSize      int
	flushTime      time.Duration
	rebuildTime    time.Duration
	rebuildDBTime  time.Duration
	maxItemsStored int
	maxStorageTime time.Duration
	deps           pullDependencies
}

type Option func(*manager)

func WithFlushSize(n int) Option {
	return func(m *manager) {
		m.opts.flushSize = n
	}
}

func WithFlushTime(t time.Duration) Option {
	return func(m *manager) {
		m.opts.flushTime = t
	}
}

func WithRebuildTime(t time.Duration) Option {
	return func(m *manager) {
		m.opts.rebuildTime = t
	}
}

func WithRebuildDBTime(t time.Duration) Option {
	return func(m *manager) {
		m.opts.rebuildDBTime = t
	}
}

func WithMaxItemsStored(n int) Option {
	return func(m *manager) {
		m.opts.maxItemsStored = n
	}
}

func WithMaxStorageTime(t time.Duration) Option {
	return func(m *manager) {
		m.opts.maxStorageTime = t
	}
}

const (
	defaultFlushSize   = 64
	defaultFlushTime   = 5 * time.Second
	defaultRebuildTime = 15 * time.Second
	defaultDBTime      = time.Minute
)

func New(
	db *database.DB,
	provideSearcherFn search.ProvideFn,
	shutdownCh chan<- error,
	opts ...Option,
) (*manager, error) {
	if provideSearcherFn == nil {
		return nil, fmt.Errorf("searcher provide function is not created")
	}

	m := &manager{
		itemDB:            itemDb.New(db),
		provideSearcherFn: provideSearcherFn,
		entities:          map[string]*entity{},
		shutdownCh:        shutdownCh,
	}
	m.opts.flushSize = defaultFlushSize
	m.opts.flushTime = defaultFlushTime
	m.opts.rebuildTime = defaultRebuildTime
	m.opts.rebuildDBTime = defaultDBTime

	for _, f := range opts {
		f(m)
	}

	m.opts.deps = pullDependencies{
		fetchItems:          m.itemDB.FindAll,
		fetchItemsByDataset: m.itemDB.FindByDataset,
		deleteItems:         m.itemDB.DeleteMany,
		appendItems:         m.itemDB.AppendMany,
		fetchKeys:           m.itemDB.Keys,
		countByDataset:      m.itemDB.CountByDataset,
	}

	m.dbScheduler = newDBScheduler(dbSchedulerConfig{
		maxItemsStored: m.opts.maxItemsStored,
		maxStorageTime: m.opts.maxStorageTime,
		rebuildDBTime:  m.opts.rebuildDBTime,
	}, m.opts.deps)

	m.dbTxExecutor = newDBTxExecutor(dbTxExecutorOptions{
		flushSize: m.opts.flushSize,
		flushTime: m.opts.flushTime,
	}, shutdownCh)

	return m, nil
}

// entity is the in-memory state of one dataset: the full item set, the
// fixed dimensionality and a searcher lazily rebuilt wholesale whenever
// the set changed.
type entity struct {
	dims     int
	items    []model.Item
	searcher search.Searcher
	dirty    bool
}

type manager struct {
	mtx sync.RWMutex

	opts Options

	itemDB       *itemDb.DB
	dbTxExecutor *dbTxExecutor
	dbScheduler  *dbScheduler

	provideSearcherFn search.ProvideFn
	entities          map[string]*entity

	shutdownCh chan<- error
	closed     bool
	cancel     func()
}

func (m *manager) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	go m.dbTxExecutor.flusher(ctx, m.opts.deps.appendItems)
	go m.dbScheduler.schedule(ctx)
	go m.rebuilder(ctx)

	if err := m.bulkLoad(ctx); err != nil {
		return fmt.Errorf("can not start index manager: %w", err)
	}

	return nil
}

func (m *manager) Stop() {
	m.mtx.Lock()
	m.closed = true
	m.mtx.Unlock()
	m.cancel()
}

// Collect validates the dimensionality of incoming items against their
// dataset, stages them for the next searcher rebuild and queues them for
// bulk persistence.
func (m *manager) Collect(data ...model.Item) error {
	m.mtx.Lock()
	if m.closed {
		m.mtx.Unlock()
		return fmt.Errorf("error send to collect, shutting down")
	}
	for i := range data {
		e, ok := m.entities[data[i].Dataset]
		if !ok {
			e = &entity{dims: data[i].Vec.Dimensions()}
			m.entities[data[i].Dataset] = e
		}
		if data[i].Vec.Dimensions() != e.dims {
			m.mtx.Unlock()
			return fmt.Errorf(
				"collect to dataset %s: vector has %d dimensions, want %d: %w",
				data[i].Dataset, data[i].Vec.Dimensions(), e.dims, geom.ErrDimNotEqual,
			)
		}
		e.items = append(e.items, data[i])
		e.dirty = true
	}
	m.mtx.Unlock()

	for i := range data {
		m.dbTxExecutor.append(context.Background(), data[i], m.opts.deps.appendItems)
	}
	return nil
}

func (m *manager) NearestNeighbors(dataset string, target geom.Point, k int) ([]search.Match, bool, error) {
	searcher, err := m.searcherFor(dataset)
	if err != nil {
		return nil, false, err
	}
	if searcher == nil {
		return nil, false, nil
	}
	return searcher.NearestNeighbors(target, k)
}

func (m *manager) RadialSearch(dataset string, center geom.Point, radius float64, k int) ([]search.Match, bool, error) {
	searcher, err := m.searcherFor(dataset)
	if err != nil {
		return nil, false, err
	}
	if searcher == nil {
		return nil, false, nil
	}
	return searcher.RadialSearch(center, radius, k)
}

// searcherFor returns an up-to-date searcher for the dataset, rebuilding
// it synchronously when the staged item set changed since the last build.
// A nil searcher with a nil error means the dataset holds no items yet.
func (m *manager) searcherFor(dataset string) (search.Searcher, error) {
	m.mtx.RLock()
	e, ok := m.entities[dataset]
	if !ok {
		m.mtx.RUnlock()
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, dataset)
	}
	dirty := e.dirty
	searcher := e.searcher
	m.mtx.RUnlock()

	if !dirty && searcher != nil {
		return searcher, nil
	}
	return m.rebuildEntity(dataset)
}

// rebuildEntity replaces the dataset searcher contents wholesale from the
// staged item set. The build itself runs outside the manager lock, the
// searcher serializes it against its own readers.
func (m *manager) rebuildEntity(dataset string) (search.Searcher, error) {
	m.mtx.Lock()
	e, ok := m.entities[dataset]
	if !ok {
		m.mtx.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, dataset)
	}
	if len(e.items) == 0 {
		e.dirty = false
		m.mtx.Unlock()
		return nil, nil
	}
	if e.searcher == nil {
		searcher, err := m.provideSearcherFn(e.dims)
		if err != nil {
			m.mtx.Unlock()
			return nil, fmt.Errorf("can not create searcher instance: %w", err)
		}
		e.searcher = searcher
	}
	points := make([]geom.Point, len(e.items))
	tags := make([]interface{}, len(e.items))
	for i := range e.items {
		points[i] = e.items[i].Vec
		tags[i] = e.items[i].Tag
	}
	searcher := e.searcher
	e.dirty = false
	m.mtx.Unlock()

	if err := searcher.Build(points, tags); err != nil {
		return nil, fmt.Errorf("rebuild dataset %s: %w", dataset, err)
	}
	return searcher, nil
}

// rebuilder amortizes searcher rebuilds between queries.
func (m *manager) rebuilder(ctx context.Context) {
	logger := logging.FromContext(ctx)
	ticker := time.NewTicker(m.opts.rebuildTime)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.mtx.RLock()
			var dirty []string
			for name, e := range m.entities {
				if e.dirty {
					dirty = append(dirty, name)
				}
			}
			m.mtx.RUnlock()
			for _, name := range dirty {
				if _, err := m.rebuildEntity(name); err != nil {
					logger.Errorf("rebuilder: %v", err)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// bulkLoad restores the staged datasets from persistent storage and
// builds their searchers in parallel.
func (m *manager) bulkLoad(ctx context.Context) error {
	items, err := m.opts.deps.fetchItems(ctx, nil)
	if err != nil {
		return fmt.Errorf("error fetching all items: %w", err)
	}

	datasets := map[string][]model.Item{}
	for i := range items {
		datasets[items[i].Dataset] = append(datasets[items[i].Dataset], items[i])
	}

	m.mtx.Lock()
	for name, list := range datasets {
		m.entities[name] = &entity{
			dims:  list[0].Vec.Dimensions(),
			items: list,
			dirty: true,
		}
	}
	m.mtx.Unlock()

	errGrp := errgroup.Group{}
	for name := range datasets {
		name := name
		errGrp.Go(func() error {
			if _, err := m.rebuildEntity(name); err != nil {
				return fmt.Errorf("bulk load dataset %s: %w", name, err)
			}
			return nil
		})
	}
	return errGrp.Wait()
}
