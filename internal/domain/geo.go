package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
)

const earthRadiusKm = 6371.0

// GeoPoint is a longitude/latitude pair rendered as a GeoJSON Point.
type GeoPoint struct {
	Lng float64
	Lat float64
}

func (g GeoPoint) Valid() bool {
	return g.Lng >= -180 && g.Lng <= 180 && g.Lat >= -90 && g.Lat <= 90 &&
		!math.IsNaN(g.Lng) && !math.IsNaN(g.Lat)
}

type geoJSON struct {
	Type        string     `json:"type"`
	Coordinates []*float64 `json:"coordinates"`
}

func (g GeoPoint) MarshalJSON() ([]byte, error) {
	lng, lat := g.Lng, g.Lat
	return json.Marshal(geoJSON{Type: "Point", Coordinates: []*float64{&lng, &lat}})
}

var ErrBadCoordinates = errors.New("coordinates must be [longitude, latitude]")

// UnmarshalJSON accepts a GeoJSON Point object or a bare [lng, lat] array.
func (g *GeoPoint) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	var coords []*float64
	if len(b) > 0 && b[0] == '[' {
		if err := json.Unmarshal(b, &coords); err != nil {
			return ErrBadCoordinates
		}
	} else {
		var obj geoJSON
		if err := json.Unmarshal(b, &obj); err != nil {
			return ErrBadCoordinates
		}
		coords = obj.Coordinates
	}
	if len(coords) != 2 || coords[0] == nil || coords[1] == nil {
		return ErrBadCoordinates
	}
	g.Lng, g.Lat = *coords[0], *coords[1]
	return nil
}

// DistanceKm is the great-circle distance between two points.
func DistanceKm(a, b GeoPoint) float64 {
	rad := math.Pi / 180
	dLat := (b.Lat - a.Lat) * rad
	dLng := (b.Lng - a.Lng) * rad
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*rad)*math.Cos(b.Lat*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}
