package domain

// FuelStation is a fuel amenity inside the route's bounding box with
// its SP95/SP98 grade availability. Stations offering neither grade
// never leave the aggregation step.
type FuelStation struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Name    string  `json:"name,omitempty"`
	HasSP95 bool    `json:"has_sp95"`
	HasSP98 bool    `json:"has_sp98"`
}
