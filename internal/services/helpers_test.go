package services

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acortes/librarium-be/internal/database"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *sql.DB, username, email, password string) int64 {
	t.Helper()
	svc := NewUserService(db, NopEmailSender{})
	user, err := svc.Register(username, email, password)
	require.NoError(t, err)
	return user.ID
}

func seedTestBook(t *testing.T, db *sql.DB, title string) int64 {
	t.Helper()
	book, err := NewBookService(db).AddBook(title, "Author", "Description", "Fiction")
	require.NoError(t, err)
	return book.ID
}

// openBorrowCount returns the number of open ledger rows for a book.
func openBorrowCount(t *testing.T, db *sql.DB, bookID int64) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(
		"SELECT COUNT(*) FROM borrows WHERE book_id = ? AND returned_at IS NULL", bookID,
	).Scan(&n))
	return n
}

func bookStatus(t *testing.T, db *sql.DB, bookID int64) string {
	t.Helper()
	var status string
	require.NoError(t, db.QueryRow("SELECT status FROM books WHERE id = ?", bookID).Scan(&status))
	return status
}

// requireLedgerInvariant asserts that every book is borrowed exactly when it
// has exactly one open borrow record.
func requireLedgerInvariant(t *testing.T, db *sql.DB) {
	t.Helper()
	rows, err := db.Query("SELECT id, status FROM books")
	require.NoError(t, err)
	defer rows.Close()

	for rows.Next() {
		var id int64
		var status string
		require.NoError(t, rows.Scan(&id, &status))
		open := openBorrowCount(t, db, id)
		if status == "borrowed" {
			require.Equal(t, 1, open, "book %d is borrowed but has %d open records", id, open)
		} else {
			require.Equal(t, 0, open, "book %d is available but has %d open records", id, open)
		}
	}
	require.NoError(t, rows.Err())
}
