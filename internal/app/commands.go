package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"sunflower_web/internal/domain"
)

// Kind names an admin-managed collection as it appears in front-end routes.
type Kind string

const (
	KindChains    Kind = "hotelchains"
	KindHotels    Kind = "hotels"
	KindRooms     Kind = "rooms"
	KindClients   Kind = "clients"
	KindEmployees Kind = "employees"
)

var ErrUnknownKind = errors.New("unknown admin collection")

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindChains, KindHotels, KindRooms, KindClients, KindEmployees:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) path() string {
	switch k {
	case KindClients, KindEmployees:
		return "/admin/accounts/" + string(k)
	}
	return "/admin/" + string(k)
}

type CommandService struct {
	api   domain.Requester
	cache domain.Cache
	now   func() time.Time
}

// NewCommandService writes through api. cache, when set, is invalidated after catalog changes.
func NewCommandService(api domain.Requester, c domain.Cache) *CommandService {
	return &CommandService{api: api, cache: c, now: time.Now}
}

// WithClock replaces the time source used for join, reservation and check-in stamps.
func (s *CommandService) WithClock(now func() time.Time) *CommandService {
	s.now = now
	return s
}

/********** auth **********/

// RequestLoginLink asks the backend to mail a magic link to a client or an employee.
func (s *CommandService) RequestLoginLink(ctx context.Context, f LoginForm) error {
	f.Email = strings.TrimSpace(f.Email)
	if err := check(f); err != nil {
		return err
	}
	path := "/clients/login"
	if f.Role == "employee" {
		path = "/employees/login"
	}
	_, err := s.api.Request(ctx, path, http.MethodPost, map[string]string{"email": f.Email}, false)
	return err
}

func (s *CommandService) Register(ctx context.Context, f RegisterForm) (domain.Created, error) {
	if err := check(f); err != nil {
		return domain.Created{}, err
	}
	var out domain.Created
	err := s.api.Do(ctx, "/clients/register", http.MethodPost, mapRegistration(f, s.now()), false, &out)
	return out, err
}

/********** client **********/

// Reserve books the room for the searched dates at nights x nightly price.
func (s *CommandService) Reserve(ctx context.Context, f ReserveForm, clientID int64) (domain.Created, error) {
	if err := check(f); err != nil {
		return domain.Created{}, err
	}
	start, end, err := dateRange(f.StartDate, f.EndDate)
	if err != nil {
		return domain.Created{}, err
	}
	if clientID <= 0 {
		return domain.Created{}, domain.Invalid("client profile not loaded, open your profile and try again")
	}
	nights := Nights(start, end)
	in := domain.NewReservation{
		ClientID:        clientID,
		HotelID:         atoi64(f.HotelID),
		RoomID:          atoi64(f.RoomID),
		StartDate:       start,
		EndDate:         end,
		ReservationDate: s.now().UTC(),
		TotalPrice:      TotalPrice(atof(f.Price), nights),
		Status:          strconv.Itoa(int(domain.StatusConfirmed)),
	}
	var out domain.Created
	if err := s.api.Do(ctx, "/clients/reservations", http.MethodPost, in, true, &out); err != nil {
		return domain.Created{}, err
	}
	log.Info().Int64("room", in.RoomID).Int("nights", nights).Float64("total", in.TotalPrice).Msg("reservation created")
	return out, nil
}

func (s *CommandService) CancelReservation(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.Invalid("reservation id is required")
	}
	_, err := s.api.Request(ctx, fmt.Sprintf("/clients/reservations/%d", id), http.MethodDelete, nil, true)
	return err
}

func (s *CommandService) UpdateProfile(ctx context.Context, f ProfileForm, clientID int64) error {
	if err := check(f); err != nil {
		return err
	}
	_, err := s.api.Request(ctx, "/clients/profile", http.MethodPut, mapProfile(f, clientID), true)
	return err
}

/********** front desk **********/

func requireEmployee(id int64) error {
	if id <= 0 {
		return domain.Invalid("employee not found in session")
	}
	return nil
}

func (s *CommandService) CheckIn(ctx context.Context, f CheckInForm, employeeID int64) (domain.Created, error) {
	if err := check(f); err != nil {
		return domain.Created{}, err
	}
	if err := requireEmployee(employeeID); err != nil {
		return domain.Created{}, err
	}
	in := domain.CheckIn{
		ReservationID: atoi64(f.ReservationID),
		EmployeeID:    employeeID,
		CheckInTime:   s.now().UTC(),
	}
	var out domain.Created
	err := s.api.Do(ctx, "/employees/checkin", http.MethodPost, in, true, &out)
	return out, err
}

// CreateStay registers a stay; without a reservation id it is a walk-in.
func (s *CommandService) CreateStay(ctx context.Context, f StayForm, employeeID int64) (domain.Created, error) {
	if err := requireEmployee(employeeID); err != nil {
		return domain.Created{}, err
	}
	if err := check(f); err != nil {
		return domain.Created{}, err
	}
	in := domain.NewStay{
		ClientID:          atoi64(f.ClientID),
		RoomID:            atoi64(f.RoomID),
		ReservationID:     optInt64(f.ReservationID),
		CheckInEmployeeID: employeeID,
		CheckInTime:       strings.TrimSpace(f.ArrivalDate),
		Comments:          strings.TrimSpace(f.Comments),
	}
	var out domain.Created
	err := s.api.Do(ctx, "/employees/stay", http.MethodPost, in, true, &out)
	return out, err
}

func (s *CommandService) Checkout(ctx context.Context, f CheckoutForm, employeeID int64) (domain.Created, error) {
	if err := check(f); err != nil {
		return domain.Created{}, err
	}
	if err := requireEmployee(employeeID); err != nil {
		return domain.Created{}, err
	}
	in := domain.Checkout{
		StayID:        atoi64(f.StayID),
		EmployeeID:    employeeID,
		CheckOutTime:  s.now().UTC(),
		FinalPrice:    atof(f.FinalPrice),
		PaymentMethod: strings.TrimSpace(f.PaymentMethod),
	}
	var out domain.Created
	err := s.api.Do(ctx, "/employees/checkout", http.MethodPost, in, true, &out)
	return out, err
}

/********** admin **********/

// save creates (id 0, POST) or updates (PUT, or PATCH for accounts) one record.
func (s *CommandService) save(ctx context.Context, k Kind, id int64, payload any) (domain.Created, error) {
	path, method := k.path(), http.MethodPost
	if id > 0 {
		path = fmt.Sprintf("%s/%d", path, id)
		method = http.MethodPut
		if k == KindClients || k == KindEmployees {
			method = http.MethodPatch
		}
	}
	var out domain.Created
	if err := s.api.Do(ctx, path, method, payload, true, &out); err != nil {
		return domain.Created{}, err
	}
	if k == KindChains {
		s.invalidate(ctx, keyHotelChains)
	}
	return out, nil
}

func (s *CommandService) SaveChain(ctx context.Context, id int64, f ChainForm) (domain.Created, error) {
	if err := check(f); err != nil {
		return domain.Created{}, err
	}
	return s.save(ctx, KindChains, id, mapChain(f, id))
}

func (s *CommandService) SaveHotel(ctx context.Context, id int64, f HotelForm) (domain.Created, error) {
	if err := check(f); err != nil {
		return domain.Created{}, err
	}
	return s.save(ctx, KindHotels, id, mapHotel(f, id))
}

func (s *CommandService) SaveRoom(ctx context.Context, id int64, f RoomForm) (domain.Created, error) {
	if err := check(f); err != nil {
		return domain.Created{}, err
	}
	return s.save(ctx, KindRooms, id, mapRoom(f, id))
}

// SaveAccount creates or patches a client or employee account. SIN is mandatory on create.
func (s *CommandService) SaveAccount(ctx context.Context, k Kind, id int64, f AccountForm) (domain.Created, error) {
	if k != KindClients && k != KindEmployees {
		return domain.Created{}, fmt.Errorf("%w: %s", ErrUnknownKind, k)
	}
	creating := id == 0
	if creating && f.SIN == "" {
		return domain.Created{}, domain.Invalid("sin is required to create an account")
	}
	if err := check(f); err != nil {
		return domain.Created{}, err
	}
	employee := k == KindEmployees
	if employee && (f.HotelID == "" || f.Position == "" || f.Address == "" || f.Phone == "") {
		return domain.Created{}, domain.Invalid("hotelId, position, address and phone are required for employees")
	}
	return s.save(ctx, k, id, mapAccount(f, creating, employee))
}

func (s *CommandService) Delete(ctx context.Context, k Kind, id int64) error {
	if id <= 0 {
		return domain.Invalid("id is required")
	}
	if _, err := s.api.Request(ctx, fmt.Sprintf("%s/%d", k.path(), id), http.MethodDelete, nil, true); err != nil {
		return err
	}
	if k == KindChains {
		s.invalidate(ctx, keyHotelChains)
	}
	return nil
}

func (s *CommandService) invalidate(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache invalidation failed")
	}
}
