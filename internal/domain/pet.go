package domain

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type PetType string

const (
	PetDog     PetType = "dog"
	PetCat     PetType = "cat"
	PetBird    PetType = "bird"
	PetRabbit  PetType = "rabbit"
	PetHamster PetType = "hamster"
	PetFish    PetType = "fish"
	PetOther   PetType = "other"
)

func (t PetType) Valid() bool {
	switch t {
	case PetDog, PetCat, PetBird, PetRabbit, PetHamster, PetFish, PetOther:
		return true
	}
	return false
}

type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnknown Gender = "unknown"
)

func (g Gender) Valid() bool { return g == GenderMale || g == GenderFemale || g == GenderUnknown }

type AgeUnit string

const (
	AgeDays   AgeUnit = "days"
	AgeWeeks  AgeUnit = "weeks"
	AgeMonths AgeUnit = "months"
	AgeYears  AgeUnit = "years"
)

func (u AgeUnit) Valid() bool {
	return u == AgeDays || u == AgeWeeks || u == AgeMonths || u == AgeYears
}

type WeightUnit string

const (
	WeightKg  WeightUnit = "kg"
	WeightLbs WeightUnit = "lbs"
)

func (u WeightUnit) Valid() bool { return u == WeightKg || u == WeightLbs }

type PetStatus string

const (
	PetMissing  PetStatus = "missing"
	PetFound    PetStatus = "found"
	PetReunited PetStatus = "reunited"
)

func (s PetStatus) Valid() bool { return s == PetMissing || s == PetFound || s == PetReunited }

// Location is where the pet was last seen. The point is optional; pets
// without one never match a radius search.
type Location struct {
	Address   string   `gorm:"size:200;not null"`
	City      string   `gorm:"size:50"`
	State     string   `gorm:"size:50"`
	ZipCode   string   `gorm:"size:10"`
	Latitude  *float64 `gorm:"index"`
	Longitude *float64 `gorm:"index"`
}

func (l Location) Point() *GeoPoint {
	if l.Latitude == nil || l.Longitude == nil {
		return nil
	}
	return &GeoPoint{Lng: *l.Longitude, Lat: *l.Latitude}
}

func (l *Location) SetPoint(p *GeoPoint) {
	if p == nil {
		l.Latitude, l.Longitude = nil, nil
		return
	}
	lat, lng := p.Lat, p.Lng
	l.Latitude, l.Longitude = &lat, &lng
}

type locationJSON struct {
	Address     string    `json:"address"`
	City        string    `json:"city,omitempty"`
	State       string    `json:"state,omitempty"`
	ZipCode     string    `json:"zipCode,omitempty"`
	Coordinates *GeoPoint `json:"coordinates,omitempty"`
}

func (l Location) MarshalJSON() ([]byte, error) {
	return json.Marshal(locationJSON{
		Address: l.Address, City: l.City, State: l.State, ZipCode: l.ZipCode,
		Coordinates: l.Point(),
	})
}

func (l *Location) UnmarshalJSON(b []byte) error {
	var raw struct {
		locationJSON
		Coordinates json.RawMessage `json:"coordinates"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*l = Location{Address: raw.Address, City: raw.City, State: raw.State, ZipCode: raw.ZipCode}
	if isEmptyPoint(raw.Coordinates) {
		return nil
	}
	var p GeoPoint
	if err := json.Unmarshal(raw.Coordinates, &p); err != nil {
		return err
	}
	l.SetPoint(&p)
	return nil
}

// isEmptyPoint reports absent, null, {} and {"type":"Point"} forms.
func isEmptyPoint(raw json.RawMessage) bool {
	if len(raw) == 0 || string(raw) == "null" {
		return true
	}
	var obj map[string]json.RawMessage
	if json.Unmarshal(raw, &obj) != nil {
		return false
	}
	c, ok := obj["coordinates"]
	return !ok || string(c) == "null"
}

type Collar struct {
	HasCollar   bool   `json:"hasCollar"`
	Color       string `gorm:"size:50" json:"color,omitempty"`
	Description string `gorm:"size:200" json:"description,omitempty"`
}

type Pet struct {
	ID               string                      `gorm:"primaryKey;size:36" json:"id"`
	OwnerID          string                      `gorm:"size:36;not null;index" json:"ownerId"`
	Owner            *User                       `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Name             string                      `gorm:"size:50;not null" json:"name"`
	Type             PetType                     `gorm:"size:16;not null;index" json:"type"`
	Breed            string                      `gorm:"size:100;not null" json:"breed"`
	Color            string                      `gorm:"size:100;not null" json:"color"`
	Gender           Gender                      `gorm:"size:16;not null" json:"gender"`
	Age              *float64                    `json:"age,omitempty"`
	AgeUnit          AgeUnit                     `gorm:"size:8" json:"ageUnit"`
	Weight           *float64                    `json:"weight,omitempty"`
	WeightUnit       WeightUnit                  `gorm:"size:4" json:"weightUnit"`
	Photos           datatypes.JSONSlice[string] `json:"photos"`
	Status           PetStatus                   `gorm:"size:16;not null;index" json:"status"`
	LastSeenLocation Location                    `gorm:"embedded;embeddedPrefix:last_seen_" json:"lastSeenLocation"`
	LastSeenDate     time.Time                   `gorm:"not null;index" json:"lastSeenDate"`
	AdditionalNotes  string                      `gorm:"size:1000" json:"additionalNotes,omitempty"`
	MicrochipNumber  string                      `gorm:"size:50" json:"microchipNumber,omitempty"`
	Collar           Collar                      `gorm:"embedded;embeddedPrefix:collar_" json:"collar"`
	IsApproved       bool                        `gorm:"not null;index" json:"isApproved"`
	ApprovedBy       *string                     `gorm:"size:36" json:"approvedBy,omitempty"`
	ApprovedAt       *time.Time                  `json:"approvedAt,omitempty"`
	Views            int64                       `gorm:"not null" json:"views"`
	ContactCount     int64                       `gorm:"not null" json:"contactCount"`
	Tags             datatypes.JSONSlice[string] `json:"tags"`
	IsActive         bool                        `gorm:"not null;index" json:"isActive"`
	CreatedAt        time.Time                   `gorm:"index" json:"createdAt"`
	UpdatedAt        time.Time                   `json:"updatedAt"`
}

// MarshalJSON replaces the owner with its public contact projection.
func (p Pet) MarshalJSON() ([]byte, error) {
	type alias Pet
	return json.Marshal(struct {
		alias
		Owner *Contact `json:"owner,omitempty"`
	}{alias: alias(p), Owner: p.Owner.Contact()})
}

func (p *Pet) ClearApproval() {
	p.IsApproved = false
	p.ApprovedBy = nil
	p.ApprovedAt = nil
}

func (p *Pet) Approve(by string, at time.Time) {
	p.IsApproved = true
	p.ApprovedBy = &by
	p.ApprovedAt = &at
}
