package model

import (
	"time"

	"github.com/google/uuid"

	"proxi/internal/geom"
)

// NewItem returns a dataset item with a fresh id. The tag is opaque: it is
// stored and returned with query matches but never used in geometry.
func NewItem(dataset string, vec geom.Point, createdAt time.Time, tag interface{}) Item {
	return Item{
		ID:        uuid.New(),
		Dataset:   dataset,
		Vec:       vec,
		CreatedAt: createdAt,
		Tag:       tag,
	}
}

type Item struct {
	ID        uuid.UUID   `json:"id"`
	Dataset   string      `json:"dataset"`
	Vec       geom.Point  `json:"vector"`
	CreatedAt time.Time   `json:"createdAt"`
	Tag       interface{} `json:"tag"`
}

func (m Item) Point() geom.Point {
	return m.Vec
}

func (m Item) Time() time.Time {
	return m.CreatedAt
}
