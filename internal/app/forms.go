package app

import (
	"errors"
	"reflect"
	"strings"

	val "github.com/go-playground/validator/v10"

	"sunflower_web/internal/domain"
)

var validate *val.Validate

var messages = map[string]string{
	"required": "{field} is required",
	"email":    "{field} must be a valid email address",
	"len":      "{field} must be exactly {param} characters",
	"number":   "{field} must be a whole number",
	"numeric":  "{field} must be a number",
	"oneof":    "{field} must be one of {param}",
	"datetime": "{field} must be a date",
	"gte":      "{field} must be greater than or equal to {param}",
	"lte":      "{field} must be less than or equal to {param}",
	"max":      "{field} must be at most {param} characters",
}

func init() {
	validate = val.New(val.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// check validates a form and reports the first failing field as a ValidationError.
func check(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var ves val.ValidationErrors
	if errors.As(err, &ves) {
		for _, fe := range ves {
			if msg, ok := messages[fe.Tag()]; ok {
				msg = strings.ReplaceAll(msg, "{field}", fe.Field())
				msg = strings.ReplaceAll(msg, "{param}", fe.Param())
				return domain.Invalid("%s", msg)
			}
		}
		return domain.Invalid("%s", ves.Error())
	}
	return domain.Invalid("%s", err.Error())
}

type LoginForm struct {
	Email string `form:"email" validate:"required,email"`
	Role  string `form:"role" validate:"required,oneof=client employee"`
}

type RegisterForm struct {
	SIN       string `form:"sin" validate:"required,len=9,number"`
	FirstName string `form:"firstName" validate:"required"`
	LastName  string `form:"lastName" validate:"required"`
	Address   string `form:"address"`
	Phone     string `form:"phone"`
	Email     string `form:"email" validate:"required,email"`
}

// SearchForm holds the raw search inputs; dates are YYYY-MM-DD as sent by date inputs.
type SearchForm struct {
	StartDate    string `form:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate      string `form:"endDate" validate:"required,datetime=2006-01-02"`
	Capacity     string `form:"capacity" validate:"omitempty,number"`
	PriceMin     string `form:"priceMin" validate:"omitempty,numeric"`
	PriceMax     string `form:"priceMax" validate:"omitempty,numeric"`
	HotelChainID string `form:"hotelChainId" validate:"omitempty,number"`
	RoomType     string `form:"roomType" validate:"omitempty,number"`
}

// ReserveForm is one room of a search result plus the dates searched for.
type ReserveForm struct {
	RoomID    string `form:"roomId" validate:"required,number"`
	HotelID   string `form:"hotelId" validate:"required,number"`
	Price     string `form:"price" validate:"required,numeric"`
	StartDate string `form:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `form:"endDate" validate:"required,datetime=2006-01-02"`
}

type ProfileForm struct {
	FirstName string `form:"firstName" validate:"required"`
	LastName  string `form:"lastName" validate:"required"`
	Address   string `form:"address"`
	Phone     string `form:"phone"`
	Email     string `form:"email" validate:"required,email"`
}

type CheckInForm struct {
	ReservationID string `form:"reservationId" validate:"required,number"`
}

type StayForm struct {
	ClientID      string `form:"clientId" validate:"required,number"`
	RoomID        string `form:"roomId" validate:"required,number"`
	ReservationID string `form:"reservationID" validate:"omitempty,number"`
	ArrivalDate   string `form:"arrivalDate" validate:"required"`
	Comments      string `form:"comments" validate:"max=500"`
}

type CheckoutForm struct {
	StayID        string `form:"stayId" validate:"required,number"`
	PaymentMethod string `form:"paymentMethod" validate:"required"`
	FinalPrice    string `form:"finalPrice" validate:"omitempty,numeric"`
}

type ChainForm struct {
	Name           string `form:"name" validate:"required"`
	CentralAddress string `form:"centralAddress" validate:"required"`
	Email          string `form:"email" validate:"required,email"`
	Telephone      string `form:"telephone" validate:"required"`
}

type HotelForm struct {
	ChainID   string `form:"chainId" validate:"required,number"`
	Rating    string `form:"rating" validate:"required,number"`
	Name      string `form:"name" validate:"required"`
	Address   string `form:"address" validate:"required"`
	City      string `form:"city" validate:"required"`
	Email     string `form:"email" validate:"required,email"`
	Telephone string `form:"telephone" validate:"required"`
}

type RoomForm struct {
	HotelID      string   `form:"hotelId" validate:"required,number"`
	Capacity     string   `form:"capacity" validate:"required,number"`
	Number       string   `form:"number" validate:"required"`
	Floor        string   `form:"floor" validate:"required,number"`
	SurfaceArea  string   `form:"surfaceArea" validate:"required,numeric"`
	Price        string   `form:"price" validate:"required,numeric"`
	Telephone    string   `form:"telephone" validate:"required"`
	RoomType     string   `form:"roomType"`
	IsExtensible bool     `form:"isExtensible"`
	Amenities    []string `form:"amenities"`
	ViewTypes    []string `form:"viewTypes"`
}

// AccountForm serves both client and employee accounts. SIN is only read on create;
// HotelID and Position only for employees.
type AccountForm struct {
	SIN       string `form:"sin" validate:"omitempty,len=9,number"`
	FirstName string `form:"firstName" validate:"required"`
	LastName  string `form:"lastName" validate:"required"`
	Address   string `form:"address"`
	Phone     string `form:"phone"`
	Email     string `form:"email" validate:"required,email"`
	HotelID   string `form:"hotelId" validate:"omitempty,number"`
	Position  string `form:"position"`
}
