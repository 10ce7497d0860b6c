package domain

type HotelChain struct {
	ID             int64  `json:"id,omitempty"`
	NumberOfHotels int    `json:"numberOfHotels"`
	Name           string `json:"name"`
	CentralAddress string `json:"centralAddress"`
	Email          string `json:"email"`
	Telephone      string `json:"telephone"`
}

// Hotel as listed by the backend.
type Hotel struct {
	ID            int64  `json:"id"`
	ChainID       int64  `json:"chainId"`
	Rating        int    `json:"rating"`
	NumberOfRooms int    `json:"numberOfRooms"`
	Name          string `json:"name"`
	Address       string `json:"address"`
	City          string `json:"city"`
	Email         string `json:"email"`
	Telephone     string `json:"telephone"`
}

// HotelInput is the create/update payload; the backend reads the phone under "phone".
type HotelInput struct {
	ID      int64  `json:"id,omitempty"`
	ChainID int64  `json:"chainId"`
	Rating  int    `json:"rating"`
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

type Room struct {
	RoomID       int64    `json:"roomId"`
	HotelID      int64    `json:"hotelId"`
	Capacity     int      `json:"capacity"`
	Number       string   `json:"number"`
	Floor        int      `json:"floor"`
	SurfaceArea  float64  `json:"surfaceArea"`
	Price        float64  `json:"price"`
	Telephone    string   `json:"telephone"`
	RoomType     string   `json:"roomType"`
	IsExtensible bool     `json:"isExtensible"`
	Amenities    []string `json:"amenities"`
	ViewTypes    []string `json:"viewTypes"`
}

type RoomInput struct {
	ID           int64    `json:"id,omitempty"`
	HotelID      int64    `json:"hotelId"`
	Capacity     int      `json:"capacity"`
	Number       string   `json:"number"`
	Floor        int      `json:"floor"`
	SurfaceArea  float64  `json:"surfaceArea"`
	Price        float64  `json:"price"`
	Telephone    string   `json:"telephone"`
	RoomType     string   `json:"roomType"`
	IsExtensible bool     `json:"isExtensible"`
	Amenities    []string `json:"amenities"`
	ViewTypes    []string `json:"viewTypes"`
}

type RoomType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Reporting views.
type ZoneAvailability struct {
	Area                string `json:"area"`
	AvailableRoomsCount *int   `json:"available_rooms_count"`
}

type HotelCapacity struct {
	TotalCapacity *int `json:"total_capacity"`
}

// Created carries the id the backend returns after a create call.
type Created struct {
	ChainID       int64  `json:"chainId,omitempty"`
	HotelID       int64  `json:"hotelId,omitempty"`
	RoomID        int64  `json:"roomId,omitempty"`
	AccountID     int64  `json:"accountId,omitempty"`
	ClientID      int64  `json:"clientId,omitempty"`
	ReservationID int64  `json:"reservationId,omitempty"`
	StayID        int64  `json:"stayId,omitempty"`
	Message       string `json:"message,omitempty"`
}
