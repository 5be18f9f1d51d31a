package model

import "time"

// GeoPoint is a GeoJSON point as stored under the 2dsphere index.
// Coordinates are [longitude, latitude] per the GeoJSON spec; callers work
// with the Lat/Lng accessors to avoid ordering mistakes.
type GeoPoint struct {
	Type        string     `json:"type" bson:"type"`
	Coordinates [2]float64 `json:"coordinates" bson:"coordinates"`
}

func NewGeoPoint(lat, lng float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: [2]float64{lng, lat}}
}

func (p GeoPoint) Lng() float64 { return p.Coordinates[0] }
func (p GeoPoint) Lat() float64 { return p.Coordinates[1] }

func ValidLatLng(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// Listing is a bookable court. Listings are deactivated rather than deleted
// so historical bookings keep a valid reference; an inactive listing is
// invisible to search and availability reads.
type Listing struct {
	ID          string   `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	OwnerID     string   `json:"owner_id" bson:"owner_id" validate:"required,min=1,max=64"`
	Name        string   `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Description string   `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=2000"`
	Address     string   `json:"address" bson:"address" validate:"required,min=2,max=200"`
	CourtType   string   `json:"court_type" bson:"court_type" validate:"required,min=2,max=50"`
	Location    GeoPoint `json:"location" bson:"location"`

	// Monetary amounts are integer minor units (cents).
	HourlyRate int64  `json:"hourly_rate" bson:"hourly_rate" validate:"required,min=1"`
	DailyRate  *int64 `json:"daily_rate,omitempty" bson:"daily_rate,omitempty" validate:"omitempty,min=1"`

	Amenities []string  `json:"amenities,omitempty" bson:"amenities,omitempty" validate:"omitempty,max=30,dive,required"`
	IsActive  bool      `json:"is_active" bson:"is_active"`
	CreatedAt time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at" validate:"omitempty"`

	// DistanceMeters is populated only by radius search results.
	DistanceMeters float64 `json:"distance_meters,omitempty" bson:"distance_meters,omitempty"`
}

type ListingUpdate struct {
	Name        string   `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=2000"`
	Address     string   `json:"address,omitempty" validate:"omitempty,min=2,max=200"`
	CourtType   string   `json:"court_type,omitempty" validate:"omitempty,min=2,max=50"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	HourlyRate  *int64   `json:"hourly_rate,omitempty" validate:"omitempty,min=1"`
	DailyRate   *int64   `json:"daily_rate,omitempty" validate:"omitempty,min=1"`
	Amenities   []string `json:"amenities,omitempty" validate:"omitempty,max=30,dive,required"`
}
