package domain

import "time"

// Role enumerates privilege levels attached to a user.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// Valid reports whether the role is one of the defined values.
func (r Role) Valid() bool {
	return r == RoleMember || r == RoleAdmin
}

// CityUnknown is stored when the geocoding provider returns no city
// for otherwise valid coordinates.
const CityUnknown = "Unknown"

// Egypt bounding box; registrations outside it are rejected.
const (
	MinLatitude  = 22.0
	MaxLatitude  = 31.5
	MinLongitude = 25.0
	MaxLongitude = 35.0
)

// InServiceArea reports whether the coordinates fall inside the Egypt
// bounding box. Both ends of each range are inclusive.
func InServiceArea(latitude, longitude float64) bool {
	return latitude >= MinLatitude && latitude <= MaxLatitude &&
		longitude >= MinLongitude && longitude <= MaxLongitude
}

// User is the sole persisted entity: a registered account with its
// geocoded city and privilege role.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Latitude     float64
	Longitude    float64
	City         string
	Role         Role
	CreatedAt    time.Time
}
