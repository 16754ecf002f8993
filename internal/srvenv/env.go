package srvenv

import (
	"context"

	"proxi/internal/database"
	"proxi/internal/index"
	"proxi/internal/search"
)

type Option func(*SrvEnv) *SrvEnv

func New(opts ...Option) *SrvEnv {
	env := &SrvEnv{}
	for _, f := range opts {
		env = f(env)
	}

	return env
}

// SrvEnv carries the configured service dependencies from setup into the
// server entrypoint.
type SrvEnv struct {
	database *database.DB
	searcher search.ProvideFn
	index    index.ProvideFn
}

func (s *SrvEnv) ProvideSearcher() search.ProvideFn {
	return s.searcher
}

func (s *SrvEnv) ProvideIndex() index.ProvideFn {
	return s.index
}

func (s *SrvEnv) Database() *database.DB {
	return s.database
}

func WithSearcher(fn search.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.searcher = fn
		return s
	}
}

func WithIndex(fn index.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.index = fn
		return s
	}
}

func WithDatabase(db *database.DB) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.database = db
		return s
	}
}

func (s *SrvEnv) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}

	if s.database != nil {
		return s.database.Close(ctx)
	}
	return nil
}
