package domain

import "strings"

// Leader is one entry of a country roster as returned by the leaders API.
// Country is not part of the upstream payload; the API client attaches it.
type Leader struct {
	ID           string `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	BirthDate    string `json:"birth_date"`
	DeathDate    string `json:"death_date"`
	PlaceOfBirth string `json:"place_of_birth"`
	WikipediaURL string `json:"wikipedia_url"`
	StartMandate string `json:"start_mandate"`
	EndMandate   string `json:"end_mandate"`
	Country      string `json:"country"`
}

func (l Leader) FullName() string {
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}

// WithCountry returns a copy of leaders with Country set on every record.
func WithCountry(leaders []Leader, country string) []Leader {
	out := make([]Leader, len(leaders))
	for i, leader := range leaders {
		leader.Country = country
		out[i] = leader
	}
	return out
}
