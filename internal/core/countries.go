package core

// DefaultCountries is the built-in country catalog. Config may override it;
// when it does, per-country selection targets are validated against the
// configured catalog instead.
var DefaultCountries = []CountrySpec{
	{Code: "US", Name: "United States", Language: "en", Group: "americas"},
	{Code: "GB", Name: "United Kingdom", Language: "en", Group: "europe"},
	{Code: "BR", Name: "Brazil", Language: "pt", Group: "americas"},
	{Code: "MX", Name: "Mexico", Language: "es", Group: "americas"},
	{Code: "DE", Name: "Germany", Language: "de", Group: "europe"},
	{Code: "FR", Name: "France", Language: "fr", Group: "europe"},
	{Code: "ES", Name: "Spain", Language: "es", Group: "europe"},
	{Code: "IT", Name: "Italy", Language: "it", Group: "europe"},
	{Code: "RU", Name: "Russia", Language: "ru", Group: "europe"},
	{Code: "IN", Name: "India", Language: "en", Group: "asia"},
	{Code: "CN", Name: "China", Language: "zh", Group: "asia"},
	{Code: "JP", Name: "Japan", Language: "ja", Group: "asia"},
	{Code: "KR", Name: "South Korea", Language: "ko", Group: "asia"},
	{Code: "SA", Name: "Saudi Arabia", Language: "ar", Group: "middle-east"},
	{Code: "IL", Name: "Israel", Language: "he", Group: "middle-east"},
	{Code: "AU", Name: "Australia", Language: "en", Group: "oceania"},
	{Code: "ZA", Name: "South Africa", Language: "en", Group: "africa"},
	{Code: "NG", Name: "Nigeria", Language: "en", Group: "africa"},
}

// CountryCatalog indexes CountrySpecs by code for validation and lookup.
type CountryCatalog map[string]CountrySpec

// NewCountryCatalog builds a catalog from a spec list. Later duplicates of a
// code are ignored, keeping the first occurrence.
func NewCountryCatalog(specs []CountrySpec) CountryCatalog {
	catalog := make(CountryCatalog, len(specs))
	for _, spec := range specs {
		if _, exists := catalog[spec.Code]; !exists {
			catalog[spec.Code] = spec
		}
	}
	return catalog
}

// Lookup returns the spec for a country code.
func (c CountryCatalog) Lookup(code string) (CountrySpec, bool) {
	spec, ok := c[code]
	return spec, ok
}
