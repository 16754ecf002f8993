package index

import "time"

type Config struct {
	FlushSize      int           `envconfig:"PROXI_INDEX_FLUSH_SIZE" default:"64"`
	FlushTime      time.Duration `envconfig:"PROXI_INDEX_FLUSH_TIME" default:"5s"`
	RebuildTime    time.Duration `envconfig:"PROXI_INDEX_REBUILD_TIME" default:"15s"`
	RebuildDBTime  time.Duration `envconfig:"PROXI_INDEX_REBUILD_DB_TIME" default:"60s"`
	MaxItemsStored int           `envconfig:"PROXI_INDEX_MAX_ITEMS_STORED" default:"0"`
	MaxStorageTime time.Duration `envconfig:"PROXI_INDEX_MAX_STORAGE_TIME" default:"0"`
}
