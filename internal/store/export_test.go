package store

import "gorm.io/gorm"

// SharedTestDB returns the database opened by TestMain. Writes to it are committed.
func SharedTestDB() *gorm.DB {
	return testDB
}
