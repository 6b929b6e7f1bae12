package search

import "github.com/urbanscope/citysearch/pkg/geocode"

// Outcome is what a finished search means for the controller: one of Stale,
// Results or Empty.
type Outcome interface {
	outcome()
}

// Stale is a response for a query the user has already moved past.
type Stale struct {
	Generation uint64
	Query      string
}

// Results is a current response with at least one city.
type Results struct {
	Query  string
	Cities []geocode.CityResult
}

// Empty is a current response with no cities. Provider failures land here too.
type Empty struct {
	Query string
}

func (Stale) outcome()   {}
func (Results) outcome() {}
func (Empty) outcome()   {}

// Decide classifies a response tagged with generation gen and query q against
// the controller's latest generation and current query. Only a response for
// the newest search of the text still in the box is applied.
func Decide(latest, gen uint64, current, q string, cities []geocode.CityResult) Outcome {
	if gen != latest || q != current {
		return Stale{Generation: gen, Query: q}
	}
	if len(cities) == 0 {
		return Empty{Query: q}
	}
	return Results{Query: q, Cities: cities}
}
