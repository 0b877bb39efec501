package chrono

import (
	"time"
	_ "time/tzdata"
)

// Zone is where the portal lives, its dates carry no offset and are local to it.
const Zone = "Europe/Berlin"

// API is the clock of the process, swapped out in tests.
type API interface {
	Now() time.Time
	Location() *time.Location
}

// StandardImpl reads the system clock and converts it to Zone.
type StandardImpl struct {
	zone *time.Location
}

func NewStandardImpl() (StandardImpl, error) {
	zone, err := time.LoadLocation(Zone)
	if err != nil {
		return StandardImpl{}, err
	}
	return StandardImpl{zone: zone}, nil
}

func (s StandardImpl) Now() time.Time {
	return time.Now().In(s.zone)
}

func (s StandardImpl) Location() *time.Location {
	return s.zone
}
