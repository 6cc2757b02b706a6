package domain

// Poet is an author in the catalog. Names, titles and biographies come in
// pairs: a transliterated form and the native (Urdu) script form.
type Poet struct {
	ID            string `json:"id"`
	Name          string `json:"name"`       // "Allama Iqbal"
	UrduName      string `json:"urdu_name"`  // "علامہ اقبال"
	Title         string `json:"title"`      // "Poet of the East"
	UrduTitle     string `json:"urdu_title"` // "شاعر مشرق"
	BirthYear     int    `json:"birth_year"`
	DeathYear     *int   `json:"death_year,omitempty"` // nil = living or unknown
	Biography     string `json:"biography"`
	UrduBiography string `json:"urdu_biography"`
	ImageURL      string `json:"image_url,omitempty"`
	Position      int    `json:"position"` // Catalog (dataset) order
}

// Lifespan renders "1877–1938", or "1928–" when the death year is unknown.
func (p *Poet) Lifespan() string {
	if p.DeathYear == nil {
		return itoa(p.BirthYear) + "–"
	}
	return itoa(p.BirthYear) + "–" + itoa(*p.DeathYear)
}

// Category groups verses by poetic form (ghazal, nazm, rubai, ...).
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	UrduName    string `json:"urdu_name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Position    int    `json:"position"`
}
