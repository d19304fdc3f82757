package model

// CategoryTotal is one row of a per-category aggregation.
type CategoryTotal struct {
	Category Category
	Total    Cents
	Count    int
}

// MonthlyReport summarises one user's spending over a calendar month.
// Categories without expenses in the month are absent from ByCategory.
type MonthlyReport struct {
	Year       int                `json:"year"`
	Month      int                `json:"month"`
	Total      Cents              `json:"total"`
	ByCategory map[Category]Cents `json:"byCategory"`
	Count      int                `json:"count"`
}
