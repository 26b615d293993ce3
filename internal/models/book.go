package models

// Book availability states. Status is only ever mutated by the borrow/return
// transitions; a book is "borrowed" exactly while one open borrow row exists.
const (
	StatusAvailable = "available"
	StatusBorrowed  = "borrowed"
)

// Book represents a catalog entry.
type Book struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Status      string `json:"status"`
}
