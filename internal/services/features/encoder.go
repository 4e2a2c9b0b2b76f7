package features

import "EVDemand/internal/domain/models"

// DefaultCounty is the catalog entry unknown counties fall back to.
const DefaultCounty = "King"

// catalog is the county encoding the model was trained with. Codes are fixed.
var catalog = []models.County{
	{Name: "King", Code: 0},
	{Name: "Snohomish", Code: 1},
	{Name: "Pierce", Code: 2},
	{Name: "Spokane", Code: 3},
	{Name: "Clark", Code: 4},
	{Name: "Thurston", Code: 5},
	{Name: "Kitsap", Code: 6},
	{Name: "Whatcom", Code: 7},
	{Name: "Benton", Code: 8},
	{Name: "Yakima", Code: 9},
}

// CountyEncoder maps county names to model category codes.
type CountyEncoder struct {
	codes    map[string]int
	fallback int
}

// NewCountyEncoder builds an encoder over the fixed county catalog.
func NewCountyEncoder() *CountyEncoder {
	codes := make(map[string]int, len(catalog))
	for _, c := range catalog {
		codes[c.Name] = c.Code
	}
	return &CountyEncoder{codes: codes, fallback: codes[DefaultCounty]}
}

// Encode returns the code for county. Unknown names get the default
// county's code instead of an error.
func (e *CountyEncoder) Encode(county string) int {
	if code, ok := e.codes[county]; ok {
		return code
	}
	return e.fallback
}

// Known reports whether county is in the catalog. Matching is exact.
func (e *CountyEncoder) Known(county string) bool {
	_, ok := e.codes[county]
	return ok
}

// Counties returns the catalog in code order.
func (e *CountyEncoder) Counties() []models.County {
	out := make([]models.County, len(catalog))
	copy(out, catalog)
	return out
}
