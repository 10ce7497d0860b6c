package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type ReservationStatus int

const (
	StatusConfirmed ReservationStatus = iota + 1
	StatusWaiting
	StatusCancelled
	StatusFinished
)

func (s ReservationStatus) String() string {
	switch s {
	case StatusConfirmed:
		return "Confirmed"
	case StatusWaiting:
		return "Waiting"
	case StatusCancelled:
		return "Cancelled"
	case StatusFinished:
		return "Finished"
	default:
		return fmt.Sprintf("Unknown (%d)", int(s))
	}
}

func (s ReservationStatus) Cancellable() bool { return s == StatusConfirmed || s == StatusWaiting }

// UnmarshalJSON accepts the numeric code or its name.
func (s *ReservationStatus) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*s = ReservationStatus(n)
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	if n, err := strconv.Atoi(str); err == nil {
		*s = ReservationStatus(n)
		return nil
	}
	for c := StatusConfirmed; c <= StatusFinished; c++ {
		if strings.EqualFold(c.String(), str) {
			*s = c
			return nil
		}
	}
	*s = 0
	return nil
}

// RoomSearchQuery is encoded into the /search/rooms query string; dates are MM-DD-YYYY.
type RoomSearchQuery struct {
	StartDate    string   `url:"startDate"`
	EndDate      string   `url:"endDate"`
	Capacity     *int     `url:"capacity,omitempty"`
	PriceMin     *float64 `url:"priceMin,omitempty"`
	PriceMax     *float64 `url:"priceMax,omitempty"`
	HotelChainID *int64   `url:"hotelChainId,omitempty"`
	RoomType     string   `url:"roomType,omitempty"`
}

type RoomSearchResult struct {
	Rooms []Room `json:"rooms"`
}

// NewReservation is the reservation payload. The hotel id key is "hotelID" and the
// backend reads the status code as a string.
type NewReservation struct {
	ClientID        int64     `json:"clientId"`
	HotelID         int64     `json:"hotelID"`
	RoomID          int64     `json:"roomId"`
	StartDate       time.Time `json:"startDate"`
	EndDate         time.Time `json:"endDate"`
	ReservationDate time.Time `json:"reservationDate"`
	TotalPrice      float64   `json:"totalPrice"`
	Status          string    `json:"status"`
}

type Reservation struct {
	ReservationID   int64             `json:"reservationId"`
	ClientID        int64             `json:"clientId"`
	HotelID         int64             `json:"hotelID"`
	RoomID          int64             `json:"roomId"`
	StartDate       time.Time         `json:"startDate"`
	EndDate         time.Time         `json:"endDate"`
	TotalPrice      *float64          `json:"totalPrice"`
	Status          ReservationStatus `json:"status"`
	ReservationDate time.Time         `json:"reservationDate"`
}

type ClientRegistration struct {
	SIN       string    `json:"sin"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	JoinDate  time.Time `json:"joinDate"`
}

type ClientProfile struct {
	ClientID  int64     `json:"clientId"`
	SIN       string    `json:"sin"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	JoinDate  time.Time `json:"joinDate"`
}

type ClientProfileUpdate struct {
	ClientID  int64  `json:"clientId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

type CheckIn struct {
	ReservationID int64     `json:"reservationId"`
	EmployeeID    int64     `json:"employeeId"`
	CheckInTime   time.Time `json:"checkInTime"`
}

// NewStay records a stay; reservationID is omitted for walk-ins.
type NewStay struct {
	ClientID          int64  `json:"clientId"`
	RoomID            int64  `json:"roomId"`
	ReservationID     *int64 `json:"reservationID,omitempty"`
	CheckInEmployeeID int64  `json:"checkInEmployeeId"`
	CheckInTime       string `json:"checkInTime"`
	Comments          string `json:"comments"`
}

// Checkout keeps the backend's "stayID" and "empoyeeID" keys.
type Checkout struct {
	StayID        int64     `json:"stayID"`
	EmployeeID    int64     `json:"empoyeeID"`
	CheckOutTime  time.Time `json:"checkOutTime"`
	FinalPrice    float64   `json:"finalPrice"`
	PaymentMethod string    `json:"paymentMethod"`
}

type Account struct {
	AccountID int64     `json:"accountId"`
	SIN       string    `json:"sin,omitempty"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Address   string    `json:"address,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email"`
	Role      string    `json:"role,omitempty"`
	HotelID   int64     `json:"hotelId,omitempty"`
	Position  string    `json:"position,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AccountInput creates or patches a client or employee account; SIN is only sent on create.
type AccountInput struct {
	SIN       string `json:"sin,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Address   string `json:"address,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email"`
	HotelID   int64  `json:"hotelId,omitempty"`
	Position  string `json:"position,omitempty"`
}
