package domain

// Stats aggregates the collection: overall counts plus a per-category
// breakdown. MasteryRate is a percentage rounded to one decimal place,
// zero when the collection is empty.
type Stats struct {
	Total       int                      `json:"total"`
	Mastered    int                      `json:"mastered"`
	Due         int                      `json:"due"`
	MasteryRate float64                  `json:"mastery_rate"`
	Categories  map[string]CategoryStats `json:"categories"`
}

// CategoryStats counts the items of one category.
type CategoryStats struct {
	Total    int `json:"total"`
	Mastered int `json:"mastered"`
}
