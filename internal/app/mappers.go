package app

import (
	"math"
	"strconv"
	"strings"
	"time"

	"sunflower_web/internal/domain"
)

const (
	formDate    = "2006-01-02"
	backendDate = "01-02-2006"
)

/********** dates & money **********/

// BackendDate renders a form date (YYYY-MM-DD) as the MM-DD-YYYY the search endpoint expects.
func BackendDate(t time.Time) string { return t.Format(backendDate) }

func parseFormDate(s string) (time.Time, error) {
	return time.Parse(formDate, strings.TrimSpace(s))
}

// dateRange parses a check-in/check-out pair; check-out must fall after check-in.
func dateRange(start, end string) (time.Time, time.Time, error) {
	s, err := parseFormDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, domain.Invalid("check-in date is invalid")
	}
	e, err := parseFormDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, domain.Invalid("check-out date is invalid")
	}
	if !e.After(s) {
		return time.Time{}, time.Time{}, domain.Invalid("check-out must be after check-in")
	}
	return s, e, nil
}

// Nights counts started days between two instants.
func Nights(start, end time.Time) int {
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Hours() / 24))
}

// TotalPrice is nights times the nightly price, rounded to cents.
func TotalPrice(nightly float64, nights int) float64 {
	return math.Round(nightly*float64(nights)*100) / 100
}

/********** tiny helpers **********/

// atoi64 assumes the input already passed form validation; blanks map to 0.
func atoi64(s string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n
}

func atof(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func optInt(s string) *int {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	n := int(atoi64(s))
	return &n
}

func optInt64(s string) *int64 {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	n := atoi64(s)
	return &n
}

func optFloat(s string) *float64 {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	f := atof(s)
	return &f
}

func nonNil(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}

/********** form -> payload **********/

func mapRegistration(f RegisterForm, now time.Time) domain.ClientRegistration {
	return domain.ClientRegistration{
		SIN:       f.SIN,
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Address:   f.Address,
		Phone:     f.Phone,
		Email:     f.Email,
		JoinDate:  now.UTC(),
	}
}

func mapProfile(f ProfileForm, clientID int64) domain.ClientProfileUpdate {
	return domain.ClientProfileUpdate{
		ClientID:  clientID,
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Address:   f.Address,
		Phone:     f.Phone,
		Email:     f.Email,
	}
}

func mapChain(f ChainForm, id int64) domain.HotelChain {
	return domain.HotelChain{
		ID:             id,
		NumberOfHotels: 0, // maintained by the backend
		Name:           f.Name,
		CentralAddress: f.CentralAddress,
		Email:          f.Email,
		Telephone:      f.Telephone,
	}
}

func mapHotel(f HotelForm, id int64) domain.HotelInput {
	return domain.HotelInput{
		ID:      id,
		ChainID: atoi64(f.ChainID),
		Rating:  int(atoi64(f.Rating)),
		Name:    f.Name,
		Address: f.Address,
		City:    f.City,
		Email:   f.Email,
		Phone:   f.Telephone,
	}
}

func mapRoom(f RoomForm, id int64) domain.RoomInput {
	return domain.RoomInput{
		ID:           id,
		HotelID:      atoi64(f.HotelID),
		Capacity:     int(atoi64(f.Capacity)),
		Number:       f.Number,
		Floor:        int(atoi64(f.Floor)),
		SurfaceArea:  atof(f.SurfaceArea),
		Price:        atof(f.Price),
		Telephone:    f.Telephone,
		RoomType:     f.RoomType,
		IsExtensible: f.IsExtensible,
		Amenities:    nonNil(f.Amenities),
		ViewTypes:    nonNil(f.ViewTypes),
	}
}

func mapAccount(f AccountForm, creating, employee bool) domain.AccountInput {
	in := domain.AccountInput{
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Address:   f.Address,
		Phone:     f.Phone,
		Email:     f.Email,
	}
	if creating {
		in.SIN = f.SIN
	}
	if employee {
		in.HotelID = atoi64(f.HotelID)
		in.Position = f.Position
	}
	return in
}
