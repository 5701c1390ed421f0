package models

import (
	"time"
)

// Driver wraps a user with vehicle capacity, approval, and the earnings
// accumulator. AvailableSeats is a property of the vehicle, shared across
// all of the driver's rides.
type Driver struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"user_id"`
	VehicleNumber  string    `db:"vehicle_number" json:"vehicle_number"`
	AvailableSeats int       `db:"available_seats" json:"available_seats"`
	IsApproved     bool      `db:"is_approved" json:"is_approved"`
	TotalEarnings  float64   `db:"total_earnings" json:"total_earnings"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

type CreateDriverRequest struct {
	VehicleNumber  string `json:"vehicle_number" validate:"required,min=4,max=20"`
	AvailableSeats int    `json:"available_seats" validate:"required,min=1,max=10"`
}

type UpdateSeatsRequest struct {
	AvailableSeats int `json:"available_seats" validate:"required,min=1,max=10"`
}

type DriverResponse struct {
	ID             string  `json:"id"`
	UserID         string  `json:"user_id"`
	VehicleNumber  string  `json:"vehicle_number"`
	AvailableSeats int     `json:"available_seats"`
	IsApproved     bool    `json:"is_approved"`
	TotalEarnings  float64 `json:"total_earnings"`
}

func (d *Driver) ToResponse() *DriverResponse {
	return &DriverResponse{
		ID:             d.ID,
		UserID:         d.UserID,
		VehicleNumber:  d.VehicleNumber,
		AvailableSeats: d.AvailableSeats,
		IsApproved:     d.IsApproved,
		TotalEarnings:  d.TotalEarnings,
	}
}
