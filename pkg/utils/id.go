package utils

import "github.com/google/uuid"

// GenerateID returns a fresh UUIDv4. Users, drivers, rides, bookings and
// payments all use these as primary keys.
func GenerateID() string {
	return uuid.New().String()
}

// IsValidUUID reports whether id parses as a UUID. Handlers gate path
// parameters with this before hitting the database.
func IsValidUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
