package models

import (
	"fmt"
	"strings"
	"time"
)

// FirstCarYear is the earliest model year accepted for a vehicle.
const FirstCarYear = 1886

type Vehicle struct {
	ID      string `json:"id"`
	Brand   string `json:"brand"`
	Model   string `json:"model"`
	Year    int    `json:"year"`
	PlateID string `json:"plate_id"`
	Owner   string `json:"owner,omitempty"`
	Active  bool   `json:"active"`
}

func (v Vehicle) EntityID() string { return v.ID }

func (v Vehicle) Matches(q string) bool {
	return containsFold(q, v.Brand, v.Model, v.PlateID, v.Owner)
}

type VehicleForm struct {
	Brand   string `json:"brand"`
	Model   string `json:"model"`
	Year    int    `json:"year"`
	PlateID string `json:"plate_id"`
	Owner   string `json:"owner"`
	Active  bool   `json:"active"`
}

func (f VehicleForm) Validate() error {
	return f.validateAt(time.Now())
}

func (f VehicleForm) validateAt(now time.Time) error {
	verr := &ValidationError{}
	if strings.TrimSpace(f.Brand) == "" {
		verr.add("brand", "Brand is required")
	}
	if strings.TrimSpace(f.Model) == "" {
		verr.add("model", "Model is required")
	}
	if f.Year < FirstCarYear {
		verr.add("year", fmt.Sprintf("Year must be %d or later", FirstCarYear))
	}
	if f.Year > now.Year()+1 {
		verr.add("year", "Year cannot be in the future")
	}
	if strings.TrimSpace(f.PlateID) == "" {
		verr.add("plate_id", "License plate is required")
	}
	if strings.TrimSpace(f.Owner) == "" {
		verr.add("owner", "Owner is required")
	}
	return verr.orNil()
}
