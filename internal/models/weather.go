package models

import (
	"time"
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Suggestion is a geocoding match offered while the user types.
type Suggestion struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	State   string  `json:"state"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Label renders "Name, State, Country", dropping the state when it is empty.
func (s Suggestion) Label() string {
	if s.State == "" {
		return s.Name + ", " + s.Country
	}
	return s.Name + ", " + s.State + ", " + s.Country
}

type WeatherReport struct {
	Name        string    `json:"name"`
	Country     string    `json:"country"`
	ObservedAt  time.Time `json:"observed_at"`
	Temperature float64   `json:"temperature"`
	Condition   string    `json:"condition"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	IconURL     string    `json:"icon_url"`
	Humidity    float64   `json:"humidity"`
	WindSpeed   float64   `json:"wind_speed"`
}

// WeatherQuery selects a lookup by coordinates when Coords is set, by name otherwise.
type WeatherQuery struct {
	Name   string
	Coords *Coordinate
}

// UseCoords reports whether both coordinates are present and non-zero.
func (q WeatherQuery) UseCoords() bool {
	return q.Coords != nil && q.Coords.Lat != 0 && q.Coords.Lon != 0
}

type UIState struct {
	Loading      bool   `json:"loading"`
	ErrorMessage string `json:"error,omitempty"`
}

// Segments is a display string split around the highlighted match.
type Segments struct {
	Prefix  string `json:"prefix"`
	Match   string `json:"match"`
	Suffix  string `json:"suffix"`
	Matched bool   `json:"matched"`
}

// Text joins the segments back into the original string.
func (s Segments) Text() string {
	return s.Prefix + s.Match + s.Suffix
}

type SuggestionView struct {
	Suggestion
	Display    string    `json:"display"`
	NameMatch  Segments  `json:"name_match"`
	StateMatch *Segments `json:"state_match,omitempty"`
}

// View is a point-in-time copy of the widget handed to renderers.
type View struct {
	Query       string           `json:"query"`
	Suggestions []SuggestionView `json:"suggestions"`
	Report      *WeatherReport   `json:"report,omitempty"`
	UIState
}
