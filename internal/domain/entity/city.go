package entity

import "strconv"

// CityID identifies a city in the weather provider's catalogue.
type CityID uint64

func (id CityID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}
