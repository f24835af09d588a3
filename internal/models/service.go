package models

import "strings"

type ServiceKind string

const (
	KindEngineWash          ServiceKind = "engine_wash"
	KindExpressWax          ServiceKind = "express_wax"
	KindSurfaceMoisturizing ServiceKind = "surface_moisturizing"
	KindTireShine           ServiceKind = "tire_shine"
)

func (k ServiceKind) Valid() bool {
	switch k {
	case KindEngineWash, KindExpressWax, KindSurfaceMoisturizing, KindTireShine:
		return true
	}
	return false
}

// Service is a service ticket opened against a vehicle plate.
type Service struct {
	ID          string      `json:"id"`
	PlateID     string      `json:"plate_id"`
	Kind        ServiceKind `json:"kind"`
	Description string      `json:"description,omitempty"`
	CreatedAt   Timestamp   `json:"created_at"`
	ClosedAt    *Timestamp  `json:"closed_at,omitempty"`
	Vehicle     *Vehicle    `json:"vehicle,omitempty"`
}

func (s Service) EntityID() string { return s.ID }

// Open reports whether the ticket has not been closed yet.
func (s Service) Open() bool { return s.ClosedAt == nil }

func (s Service) Matches(q string) bool {
	fields := []string{s.PlateID, string(s.Kind), s.Description}
	if s.Vehicle != nil {
		fields = append(fields, s.Vehicle.Brand, s.Vehicle.Model)
	}
	return containsFold(q, fields...)
}

type ServiceForm struct {
	PlateID     string      `json:"plate_id"`
	Kind        ServiceKind `json:"kind"`
	Description string      `json:"description,omitempty"`
	ClosedAt    *Timestamp  `json:"closed_at,omitempty"`
}

func (f ServiceForm) Validate() error {
	verr := &ValidationError{}
	if strings.TrimSpace(f.PlateID) == "" {
		verr.add("plate_id", "Vehicle ID is required")
	}
	if !f.Kind.Valid() {
		verr.add("kind", "Unknown service kind")
	}
	return verr.orNil()
}
