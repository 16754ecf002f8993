package proxi

import (
	"proxi/internal/database"
	"proxi/internal/index"
	"proxi/internal/ingest"
	"proxi/internal/query"
	"proxi/internal/search"
	"proxi/internal/setup"
)

var (
	_ setup.DatabaseConfigProvider = (*Config)(nil)
	_ setup.SearchConfigProvider   = (*Config)(nil)
	_ setup.IndexConfigProvider    = (*Config)(nil)
)

type Config struct {
	SrvAddr  string `envconfig:"PROXI_ADDR" default:":8789"`
	Index    index.Config
	Ingest   ingest.Config
	Query    query.Config
	Database database.Config
	Search   search.Config
}

func (c Config) DatabaseConfig() *database.Config {
	return &c.Database
}

func (c Config) SearchConfig() *search.Config {
	return &c.Search
}

func (c Config) SearchType() search.AlgType {
	return c.Search.Type
}

func (c Config) IndexConfig() *index.Config {
	return &c.Index
}
