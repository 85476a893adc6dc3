package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type AuthorizationToken struct {
	Token string `json:"token"`
}

type CustomClaims struct {
	SessionId string
	Caller    string
	jwt.RegisteredClaims
}

type LoginRequest struct {
	Account int `json:"account"`
}

type Session struct {
	Id        string    `json:"id"`
	Caller    string    `json:"caller"`
	CreatedAt time.Time `json:"created_at"`
}

type Account struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

type Room struct {
	Id       int64  `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	IsActive bool   `json:"isActive"`
	Price    int64  `json:"price"`
	Owner    string `json:"owner"`
}

type Rent struct {
	Id           int64  `json:"id"`
	RoomId       int64  `json:"rId"`
	CheckInDate  int64  `json:"checkInDate"`
	CheckOutDate int64  `json:"checkOutDate"`
	Renter       string `json:"renter"`
}

type Listing struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Price    int64  `json:"price"`
}

// RentalRequest is what the browser posts. Selection carries an encoded
// <option> value; RoomIndex points into the active room list instead.
type RentalRequest struct {
	Selection string `json:"selection"`
	RoomIndex *int   `json:"roomIndex,omitempty"`
	CheckIn   string `json:"checkIn"`
	CheckOut  string `json:"checkOut"`
}

type Rental struct {
	RoomId   int64 `json:"roomId"`
	CheckIn  int64 `json:"checkIn"`
	CheckOut int64 `json:"checkOut"`
	Cost     int64 `json:"cost"`
}

type Receipt struct {
	TxHash      string `json:"txHash"`
	BlockNumber uint64 `json:"blockNumber"`
	GasUsed     uint64 `json:"gasUsed"`
	RoomId      *int64 `json:"roomId,omitempty"`
	RentId      *int64 `json:"rentId,omitempty"`
	Transferred string `json:"transferred,omitempty"`
}

type Recommendation struct {
	CheckIn  int64 `json:"checkIn"`
	CheckOut int64 `json:"checkOut"`
}

type Quote struct {
	Nights  int64   `json:"nights"`
	Cost    int64   `json:"cost"`
	Display float64 `json:"display"`
}

const (
	SubmissionListing = `listing`
	SubmissionRental  = `rental`

	StatusPending   = `pending`
	StatusSucceeded = `succeeded`
	StatusFailed    = `failed`
)

type Submission struct {
	Id        int64     `json:"id"`
	Kind      string    `json:"kind"`
	Caller    string    `json:"caller"`
	RoomId    int64     `json:"room_id"`
	CheckIn   int64     `json:"check_in"`
	CheckOut  int64     `json:"check_out"`
	Payment   int64     `json:"payment"`
	Status    string    `json:"status"`
	TxHash    string    `json:"tx_hash"`
	Failure   string    `json:"failure"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
