package services

import (
	"database/sql"
	"time"

	"github.com/acortes/librarium-be/internal/apperr"
	"github.com/acortes/librarium-be/internal/models"
)

// BorrowServiceProvider defines the interface for the borrow ledger.
type BorrowServiceProvider interface {
	BorrowBook(userID, bookID int64) (models.Borrow, error)
	ReturnBook(userID, borrowID int64) error
	GetUserBorrows(userID int64) ([]models.Borrow, error)
}

// BorrowService enforces the book availability state machine. Each
// transition runs in a single transaction so the ledger write and the
// catalog status write land together or not at all; a conditional status
// update is what detects a lost race on the same book.
type BorrowService struct {
	db *sql.DB
}

// NewBorrowService creates a new BorrowService.
func NewBorrowService(db *sql.DB) *BorrowService {
	return &BorrowService{db: db}
}

// BorrowBook moves a book from available to borrowed on behalf of a user
// and opens a ledger record. A book with an outstanding borrower is never
// queued behind: the second caller gets a conflict.
func (s *BorrowService) BorrowBook(userID, bookID int64) (models.Borrow, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return models.Borrow{}, err
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRow("SELECT status FROM books WHERE id = ?", bookID).Scan(&status)
	if err == sql.ErrNoRows {
		return models.Borrow{}, apperr.E(apperr.ErrNotFound, "Book not found")
	}
	if err != nil {
		return models.Borrow{}, err
	}

	res, err := tx.Exec(
		"UPDATE books SET status = ? WHERE id = ? AND status = ?",
		models.StatusBorrowed, bookID, models.StatusAvailable,
	)
	if err != nil {
		return models.Borrow{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Borrow{}, err
	}
	if affected == 0 {
		return models.Borrow{}, apperr.E(apperr.ErrConflict, "Book not available")
	}

	borrowedAt := time.Now().UTC()
	ins, err := tx.Exec(
		"INSERT INTO borrows(user_id, book_id, borrowed_at) VALUES(?, ?, ?)",
		userID, bookID, borrowedAt,
	)
	if err != nil {
		return models.Borrow{}, err
	}
	id, err := ins.LastInsertId()
	if err != nil {
		return models.Borrow{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Borrow{}, err
	}

	return models.Borrow{ID: id, UserID: userID, BookID: bookID, BorrowedAt: borrowedAt}, nil
}

// ReturnBook closes an open borrow record and flips the book back to
// available. Only the record's owner may return it.
func (s *BorrowService) ReturnBook(userID, borrowID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var bookID, ownerID int64
	err = tx.QueryRow(
		"SELECT book_id, user_id FROM borrows WHERE id = ? AND returned_at IS NULL",
		borrowID,
	).Scan(&bookID, &ownerID)
	if err == sql.ErrNoRows {
		return apperr.E(apperr.ErrNotFound, "Borrow record not found")
	}
	if err != nil {
		return err
	}
	if ownerID != userID {
		return apperr.E(apperr.ErrForbidden, "Not your borrow record")
	}

	if _, err := tx.Exec("UPDATE borrows SET returned_at = ? WHERE id = ?", time.Now().UTC(), borrowID); err != nil {
		return err
	}
	if _, err := tx.Exec("UPDATE books SET status = ? WHERE id = ?", models.StatusAvailable, bookID); err != nil {
		return err
	}

	return tx.Commit()
}

// GetUserBorrows lists a user's ledger entries, newest last, with the book
// title joined in for display.
func (s *BorrowService) GetUserBorrows(userID int64) ([]models.Borrow, error) {
	rows, err := s.db.Query(`
		SELECT borrows.id, borrows.user_id, borrows.book_id, borrows.borrowed_at, borrows.returned_at, books.title
		FROM borrows JOIN books ON borrows.book_id = books.id
		WHERE borrows.user_id = ?
		ORDER BY borrows.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var borrows []models.Borrow
	for rows.Next() {
		var b models.Borrow
		var returnedAt sql.NullTime
		if err := rows.Scan(&b.ID, &b.UserID, &b.BookID, &b.BorrowedAt, &returnedAt, &b.Title); err != nil {
			return nil, err
		}
		if returnedAt.Valid {
			t := returnedAt.Time
			b.ReturnedAt = &t
		}
		borrows = append(borrows, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return borrows, nil
}
