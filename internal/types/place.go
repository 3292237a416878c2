package types

// PlaceMatch is a canonical place record returned by the place search
// provider. A nil *PlaceMatch means "no match", which is not an error.
type PlaceMatch struct {
	ExternalID string   `json:"external_id"`
	Name       string   `json:"name"`
	Address    string   `json:"address,omitempty"`
	City       string   `json:"city,omitempty"`
	Country    string   `json:"country,omitempty"`
	Geo        GeoPoint `json:"geo"`
	Rating     *float64 `json:"rating,omitempty"`
}
