package models

// GeoInfo is the subset of the geo/ISP lookup response the engine uses.
type GeoInfo struct {
	IP      string `json:"ip"`
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
	Org     string `json:"org"`
}
