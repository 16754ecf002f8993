package query

import "time"

type Config struct {
	RequestTimeout time.Duration `envconfig:"PROXI_QUERY_REQUEST_TIMEOUT" default:"30s"`
	MaxQueriesLen  int           `envconfig:"PROXI_QUERY_MAX_QUERIES_LEN" default:"10"`
}
