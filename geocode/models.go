package geocode

import "encoding/json"

// Candidate is one geocoder match. Nominatim-compatible providers return
// lat/lon as strings.
type Candidate struct {
	PlaceID     json.Number `json:"place_id"`
	Lat         string      `json:"lat"`
	Lon         string      `json:"lon"`
	DisplayName string      `json:"display_name"`
	Class       string      `json:"class"`
	Type        string      `json:"type"`
	Importance  float64     `json:"importance"`
}

// Result carries the first candidate's coordinates plus the untouched
// provider response, which is persisted verbatim as geocoded_payload.
type Result struct {
	Latitude  float64
	Longitude float64
	Payload   json.RawMessage
}
