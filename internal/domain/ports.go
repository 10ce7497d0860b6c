package domain

import (
	"context"
	"encoding/json"
)

// Requester is the single outbound path to the booking backend.
type Requester interface {
	Request(ctx context.Context, path, method string, body any, needsAuth bool) (json.RawMessage, error)
	Do(ctx context.Context, path, method string, body any, needsAuth bool, out any) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Catalog lookups shared by the search and admin views.
type Catalog struct {
	RoomTypes   []RoomType
	Amenities   []Option
	ViewTypes   []Option
	HotelChains []HotelChain
}

// RoomTypeName resolves a room type id to its name ("" when unknown).
func (c Catalog) RoomTypeName(id int64) string {
	for _, rt := range c.RoomTypes {
		if rt.ID == id {
			return rt.Name
		}
	}
	return ""
}

// Option is a lookup value the backend sends either as a bare string or as {id,name}.
type Option struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name"`
}

func (o *Option) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		o.Name = s
		return nil
	}
	type plain Option
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*o = Option(p)
	return nil
}
