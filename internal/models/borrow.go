package models

import "time"

// Borrow is a ledger entry linking a user to a book. ReturnedAt is written
// exactly once, when the book comes back; an open record has it nil.
type Borrow struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	BookID     int64      `json:"book_id"`
	Title      string     `json:"title,omitempty"` // joined from books for listings
	BorrowedAt time.Time  `json:"borrowed_at"`
	ReturnedAt *time.Time `json:"returned_at"`
}
