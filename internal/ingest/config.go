package ingest

import (
	"time"
)

type Config struct {
	RequestTimeout  time.Duration `envconfig:"PROXI_INGEST_REQUEST_TIMEOUT" default:"60s"`
	MaxDataItemsLen int           `envconfig:"PROXI_INGEST_MAX_DATA_ITEMS_LEN" default:"10000"`
}
