// README: Common value objects shared across modules.
package types

// ID is an opaque entity identifier (UUID string in storage).
type ID string

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64
	Lng float64
}

// Money is an integer amount in the currency's minor unit.
type Money struct {
	Amount   int64
	Currency string
}
