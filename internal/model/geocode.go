package model

// Geocode is the persisted projection of a geocoding API result. No other
// response field is kept.
type Geocode struct {
	Province string `json:"province"`
	City     string `json:"city"`
	District string `json:"district"`
	Location string `json:"location"` // "lon,lat"
	Level    string `json:"level"`
}

// IsZero reports whether g carries no data at all.
func (g Geocode) IsZero() bool {
	return g == Geocode{}
}
