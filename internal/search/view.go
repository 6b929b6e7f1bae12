package search

import "github.com/urbanscope/citysearch/pkg/geocode"

// State is the controller's position in the search flow.
type State int

const (
	Idle State = iota
	Typing
	Searching
	ShowingPopular
	ShowingResults
	NoResults
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Typing:
		return "typing"
	case Searching:
		return "searching"
	case ShowingPopular:
		return "showing_popular"
	case ShowingResults:
		return "showing_results"
	case NoResults:
		return "no_results"
	default:
		return "unknown"
	}
}

// View is a snapshot of everything a search box renders.
type View struct {
	State State
	Query string

	// Searching drives the spinner next to the input.
	Searching bool

	// ShowResults and ShowPopular are the two dropdowns; at most one is open.
	ShowResults bool
	ShowPopular bool

	Results     []geocode.CityResult
	ResultCount int
	Popular     []geocode.PopularCity

	// NoResultsMessage is set while the no-results panel is open.
	NoResultsMessage string
}

// SelectionEvent is emitted once per user pick.
type SelectionEvent struct {
	Name        string     `json:"name"`
	Country     string     `json:"country"`
	Coordinates [2]float64 `json:"coordinates"`
	Lat         float64    `json:"lat"`
	Lon         float64    `json:"lon"`
}

func selectionFromResult(c geocode.CityResult) SelectionEvent {
	name := c.City
	if name == "" {
		name = c.Name
	}
	return SelectionEvent{
		Name:        name,
		Country:     c.Country,
		Coordinates: [2]float64{c.Lat, c.Lon},
		Lat:         c.Lat,
		Lon:         c.Lon,
	}
}

func selectionFromPopular(p geocode.PopularCity) SelectionEvent {
	return SelectionEvent{
		Name:        p.Name,
		Country:     p.Country,
		Coordinates: [2]float64{p.Lat, p.Lon},
		Lat:         p.Lat,
		Lon:         p.Lon,
	}
}

func noResultsMessage(q string) string {
	return `No cities found for "` + q + `"`
}
