package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"sunflower_web/internal/domain"
)

const (
	keyRoomTypes   = "catalog:roomtypes"
	keyAmenities   = "catalog:amenities"
	keyViewTypes   = "catalog:viewtypes"
	keyHotelChains = "catalog:hotelchains"
)

type QueryService struct {
	api      domain.Requester
	cache    domain.Cache
	cacheTTL time.Duration
}

// NewQueryService reads through api. cache may be nil; lookups then always hit the backend.
func NewQueryService(api domain.Requester, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{api: api, cache: c, cacheTTL: ttl}
}

// cachedList serves a public lookup list from the cache, filling it on a miss.
func cachedList[T any](ctx context.Context, s *QueryService, key, path string) ([]T, error) {
	var out []T
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &out); ok {
			return out, nil
		}
	}
	return fetchList[T](ctx, s, key, path)
}

// fetchList loads a lookup list from the backend and overwrites its cache entry.
// On error the cached value is left alone.
func fetchList[T any](ctx context.Context, s *QueryService, key, path string) ([]T, error) {
	var out []T
	if err := s.api.Do(ctx, path, http.MethodGet, nil, false, &out); err != nil {
		return nil, err
	}
	if s.cache != nil && out != nil {
		if err := s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds())); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache set failed")
		}
	}
	return out, nil
}

func list[T any](ctx context.Context, s *QueryService, key, path string, fresh bool) ([]T, error) {
	if fresh {
		return fetchList[T](ctx, s, key, path)
	}
	return cachedList[T](ctx, s, key, path)
}

func (s *QueryService) RoomTypes(ctx context.Context) ([]domain.RoomType, error) {
	return cachedList[domain.RoomType](ctx, s, keyRoomTypes, "/roomtypes")
}

// HotelChains is the public chain list used by the search filter.
func (s *QueryService) HotelChains(ctx context.Context) ([]domain.HotelChain, error) {
	return cachedList[domain.HotelChain](ctx, s, keyHotelChains, "/admin/hotelchains")
}

// Catalog loads every lookup list concurrently. A failed list stays empty and the
// first error is returned alongside whatever did load.
func (s *QueryService) Catalog(ctx context.Context) (domain.Catalog, error) {
	return s.loadCatalog(ctx, false)
}

// RefreshCatalog reloads every lookup list from the backend and overwrites the
// cache entries that loaded. A list the backend fails on keeps its cached value.
func (s *QueryService) RefreshCatalog(ctx context.Context) (domain.Catalog, error) {
	return s.loadCatalog(ctx, true)
}

func (s *QueryService) loadCatalog(ctx context.Context, fresh bool) (domain.Catalog, error) {
	var (
		cat domain.Catalog
		g   errgroup.Group
	)
	g.Go(func() (err error) {
		cat.RoomTypes, err = list[domain.RoomType](ctx, s, keyRoomTypes, "/roomtypes", fresh)
		return err
	})
	g.Go(func() (err error) {
		cat.Amenities, err = list[domain.Option](ctx, s, keyAmenities, "/amenities", fresh)
		return err
	})
	g.Go(func() (err error) {
		cat.ViewTypes, err = list[domain.Option](ctx, s, keyViewTypes, "/viewtypes", fresh)
		return err
	})
	g.Go(func() (err error) {
		cat.HotelChains, err = list[domain.HotelChain](ctx, s, keyHotelChains, "/admin/hotelchains", fresh)
		return err
	})
	return cat, g.Wait()
}

// SearchRooms validates the form, maps the room type id to its name and queries
// /search/rooms. The encoded query is returned so the results can be reserved.
func (s *QueryService) SearchRooms(ctx context.Context, f SearchForm) ([]domain.Room, domain.RoomSearchQuery, error) {
	if err := check(f); err != nil {
		return nil, domain.RoomSearchQuery{}, err
	}
	start, end, err := dateRange(f.StartDate, f.EndDate)
	if err != nil {
		return nil, domain.RoomSearchQuery{}, err
	}

	q := domain.RoomSearchQuery{
		StartDate:    BackendDate(start),
		EndDate:      BackendDate(end),
		Capacity:     optInt(f.Capacity),
		PriceMin:     optFloat(f.PriceMin),
		PriceMax:     optFloat(f.PriceMax),
		HotelChainID: optInt64(f.HotelChainID),
	}
	if f.RoomType != "" {
		types, err := s.RoomTypes(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("room types unavailable, searching without type")
		}
		q.RoomType = domain.Catalog{RoomTypes: types}.RoomTypeName(atoi64(f.RoomType))
	}

	v, err := query.Values(q)
	if err != nil {
		return nil, q, fmt.Errorf("encode search: %w", err)
	}
	var res domain.RoomSearchResult
	if err := s.api.Do(ctx, "/search/rooms?"+v.Encode(), http.MethodGet, nil, false, &res); err != nil {
		return nil, q, err
	}
	return res.Rooms, q, nil
}

func (s *QueryService) Profile(ctx context.Context) (domain.ClientProfile, error) {
	var p domain.ClientProfile
	err := s.api.Do(ctx, "/clients/profile", http.MethodGet, nil, true, &p)
	return p, err
}

func (s *QueryService) Reservations(ctx context.Context) ([]domain.Reservation, error) {
	var out []domain.Reservation
	err := s.api.Do(ctx, "/clients/reservations", http.MethodGet, nil, true, &out)
	return out, err
}

/********** admin **********/

func (s *QueryService) AdminChains(ctx context.Context) ([]domain.HotelChain, error) {
	var out []domain.HotelChain
	err := s.api.Do(ctx, "/admin/hotelchains", http.MethodGet, nil, true, &out)
	return out, err
}

// AdminHotels lists hotels, optionally of one chain (chainID 0: all).
func (s *QueryService) AdminHotels(ctx context.Context, chainID int64) ([]domain.Hotel, error) {
	path := "/admin/hotels"
	if chainID > 0 {
		path += "?chainId=" + strconv.FormatInt(chainID, 10)
	}
	var out []domain.Hotel
	err := s.api.Do(ctx, path, http.MethodGet, nil, true, &out)
	return out, err
}

func (s *QueryService) AdminRooms(ctx context.Context, hotelID int64) ([]domain.Room, error) {
	path := "/admin/rooms"
	if hotelID > 0 {
		path += "?hotelId=" + strconv.FormatInt(hotelID, 10)
	}
	var out []domain.Room
	err := s.api.Do(ctx, path, http.MethodGet, nil, true, &out)
	return out, err
}

func (s *QueryService) AdminAccounts(ctx context.Context, k Kind) ([]domain.Account, error) {
	if k != KindClients && k != KindEmployees {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, k)
	}
	var out []domain.Account
	err := s.api.Do(ctx, "/admin/accounts/"+string(k), http.MethodGet, nil, true, &out)
	return out, err
}

func (s *QueryService) Hotel(ctx context.Context, id int64) (domain.Hotel, error) {
	var h domain.Hotel
	err := s.api.Do(ctx, fmt.Sprintf("/admin/hotels/%d", id), http.MethodGet, nil, true, &h)
	return h, err
}

func (s *QueryService) Room(ctx context.Context, id int64) (domain.Room, error) {
	var r domain.Room
	err := s.api.Do(ctx, fmt.Sprintf("/admin/rooms/%d", id), http.MethodGet, nil, true, &r)
	return r, err
}

func (s *QueryService) Account(ctx context.Context, id int64) (domain.Account, error) {
	var a domain.Account
	err := s.api.Do(ctx, fmt.Sprintf("/admin/accounts/%d", id), http.MethodGet, nil, true, &a)
	return a, err
}

// Dashboard is everything the admin view lists. Failed names the lists that
// could not be loaded, keyed by Kind, with the reason.
type Dashboard struct {
	Chains    []domain.HotelChain
	Hotels    []domain.Hotel
	Rooms     []domain.Room
	Clients   []domain.Account
	Employees []domain.Account
	Catalog   domain.Catalog
	Failed    map[Kind]string
}

type DashboardFilter struct {
	ChainID int64
	HotelID int64
}

// AdminDashboard loads all admin lists concurrently and keeps partial results.
// ErrUnauthenticated from any list is returned; other failures are only recorded.
func (s *QueryService) AdminDashboard(ctx context.Context, f DashboardFilter) (Dashboard, error) {
	var (
		d  = Dashboard{Failed: map[Kind]string{}}
		mu sync.Mutex
		g  errgroup.Group
	)
	record := func(k Kind, err error) error {
		if err == nil {
			return nil
		}
		mu.Lock()
		d.Failed[k] = err.Error()
		mu.Unlock()
		if errors.Is(err, domain.ErrUnauthenticated) {
			return err
		}
		return nil
	}

	g.Go(func() error {
		v, err := s.AdminChains(ctx)
		d.Chains = v
		return record(KindChains, err)
	})
	g.Go(func() error {
		v, err := s.AdminHotels(ctx, f.ChainID)
		d.Hotels = v
		return record(KindHotels, err)
	})
	g.Go(func() error {
		v, err := s.AdminRooms(ctx, f.HotelID)
		d.Rooms = v
		return record(KindRooms, err)
	})
	g.Go(func() error {
		v, err := s.AdminAccounts(ctx, KindClients)
		d.Clients = v
		return record(KindClients, err)
	})
	g.Go(func() error {
		v, err := s.AdminAccounts(ctx, KindEmployees)
		d.Employees = v
		return record(KindEmployees, err)
	})
	g.Go(func() error {
		cat, err := s.Catalog(ctx)
		d.Catalog = cat
		if err != nil {
			log.Warn().Err(err).Msg("room form lookups incomplete")
		}
		return nil
	})

	err := g.Wait()
	return d, err
}

/********** reports **********/

func (s *QueryService) RoomsPerZone(ctx context.Context) ([]domain.ZoneAvailability, error) {
	var out []domain.ZoneAvailability
	err := s.api.Do(ctx, "/search/zones/rooms", http.MethodGet, nil, true, &out)
	return out, err
}

func (s *QueryService) HotelCapacity(ctx context.Context, hotelID int64) (domain.HotelCapacity, error) {
	if hotelID <= 0 {
		return domain.HotelCapacity{}, domain.Invalid("select a hotel")
	}
	var out domain.HotelCapacity
	err := s.api.Do(ctx, fmt.Sprintf("/search/hotels/%d/room-count", hotelID), http.MethodGet, nil, true, &out)
	return out, err
}
