package db

import (
	// cgo driver, registered as "sqlite3"
	_ "github.com/mattn/go-sqlite3"
	// pure Go driver, registered as "sqlite"
	_ "modernc.org/sqlite"
)

// Drivers lists the database/sql driver names Open accepts
var Drivers = []string{"sqlite", "sqlite3"}

func checkDriver(driver string) error {
	for _, d := range Drivers {
		if d == driver {
			return nil
		}
	}
	return &UnknownDriverError{Driver: driver}
}

// UnknownDriverError is returned for a driver name not in Drivers
type UnknownDriverError struct {
	Driver string
}

func (e *UnknownDriverError) Error() string {
	return "unknown sqlite driver " + e.Driver
}
