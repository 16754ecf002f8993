// Package setup assembles the service environment from process
// configuration: the bolt database, the searcher factory and the dataset
// index manager.
package setup

import (
	"context"
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"proxi/internal/database"
	"proxi/internal/geom"
	"proxi/internal/index"
	"proxi/internal/logging"
	"proxi/internal/search"
	"proxi/internal/search/brute"
	"proxi/internal/search/kd"
	"proxi/internal/srvenv"
)

type DatabaseConfigProvider interface {
	DatabaseConfig() *database.Config
}

type SearchConfigProvider interface {
	SearchConfig() *search.Config
	SearchType() search.AlgType
}

type IndexConfigProvider interface {
	IndexConfig() *index.Config
}

func Setup(ctx context.Context, config interface{}) (*srvenv.SrvEnv, error) {
	logger := logging.FromContext(ctx)
	var serverEnvOpts []srvenv.Option
	if err := envconfig.Process("", config); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	var (
		db                *database.DB
		searcherProvideFn search.ProvideFn
	)
	if dbConfigProvider, ok := config.(DatabaseConfigProvider); ok {
		logger.Info("Configuring db")
		dbFromEnv, err := database.NewFromEnv(ctx, dbConfigProvider.DatabaseConfig())
		if err != nil {
			return nil, fmt.Errorf("unable to connect to database: %v", err)
		}
		db = dbFromEnv
		serverEnvOpts = append(serverEnvOpts, srvenv.WithDatabase(db))
	}

	if searchConfigProvider, ok := config.(SearchConfigProvider); ok {
		logger.Info("Configuring searcher")
		provideFn, err := ProvideSearcherFor(searchConfigProvider.SearchConfig())
		if err != nil {
			return nil, fmt.Errorf("unable create searcher provide function: %v", err)
		}
		searcherProvideFn = provideFn
		serverEnvOpts = append(serverEnvOpts, srvenv.WithSearcher(searcherProvideFn))
	}

	if indexConfigProvider, ok := config.(IndexConfigProvider); ok {
		logger.Info("Configuring index")
		provideFn, err := ProvideIndexFor(indexConfigProvider, searcherProvideFn, db)
		if err != nil {
			return nil, fmt.Errorf("unable create index provide function: %v", err)
		}
		serverEnvOpts = append(serverEnvOpts, srvenv.WithIndex(provideFn))
	}

	return srvenv.New(serverEnvOpts...), nil
}

func ProvideSearcherFor(cfg *search.Config) (search.ProvideFn, error) {
	switch cfg.SearchType() {
	case search.AlgTypeKD:
		return func(dims int) (search.Searcher, error) {
			return kd.NewKDAlg(dims, geom.SquaredEuclideanDistance), nil
		}, nil
	case search.AlgTypeBrute:
		return func(dims int) (search.Searcher, error) {
			return brute.NewBruteAlg(geom.SquaredEuclideanDistance), nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown search algorithm type: %s", cfg.SearchType())
	}
}

func ProvideIndexFor(provider IndexConfigProvider, provideSearcherFn search.ProvideFn, db *database.DB) (index.ProvideFn, error) {
	cfg := provider.IndexConfig()
	return func(shutdownCh chan<- error) (index.Manager, error) {
		return index.New(
			db,
			provideSearcherFn,
			shutdownCh,
			index.WithFlushSize(cfg.FlushSize),
			index.WithFlushTime(cfg.FlushTime),
			index.WithRebuildTime(cfg.RebuildTime),
			index.WithRebuildDBTime(cfg.RebuildDBTime),
			index.WithMaxItemsStored(cfg.MaxItemsStored),
			index.WithMaxStorageTime(cfg.MaxStorageTime),
		)
	}, nil
}
