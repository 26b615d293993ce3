package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acortes/librarium-be/internal/apperr"
	"github.com/acortes/librarium-be/internal/models"
)

func TestBorrowBook(t *testing.T) {
	db := newTestDB(t)
	svc := NewBorrowService(db)
	alice := createTestUser(t, db, "alice", "alice@x.com", "pw1")
	book := seedTestBook(t, db, "The Great Gatsby")

	borrow, err := svc.BorrowBook(alice, book)
	require.NoError(t, err)
	assert.Equal(t, alice, borrow.UserID)
	assert.Equal(t, book, borrow.BookID)
	assert.Nil(t, borrow.ReturnedAt)
	assert.False(t, borrow.BorrowedAt.IsZero())

	assert.Equal(t, models.StatusBorrowed, bookStatus(t, db, book))
	requireLedgerInvariant(t, db)
}

func TestBorrowUnknownBook(t *testing.T) {
	db := newTestDB(t)
	svc := NewBorrowService(db)
	alice := createTestUser(t, db, "alice", "alice@x.com", "pw1")

	_, err := svc.BorrowBook(alice, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDoubleBorrowConflicts(t *testing.T) {
	db := newTestDB(t)
	svc := NewBorrowService(db)
	alice := createTestUser(t, db, "alice", "alice@x.com", "pw1")
	bob := createTestUser(t, db, "bob", "bob@x.com", "pw2")
	book := seedTestBook(t, db, "Sapiens")

	_, err := svc.BorrowBook(alice, book)
	require.NoError(t, err)

	// rejected for the same user and for anyone else, never queued
	_, err = svc.BorrowBook(alice, book)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	_, err = svc.BorrowBook(bob, book)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	assert.Equal(t, 1, openBorrowCount(t, db, book))
	requireLedgerInvariant(t, db)
}

func TestReturnBook(t *testing.T) {
	db := newTestDB(t)
	svc := NewBorrowService(db)
	alice := createTestUser(t, db, "alice", "alice@x.com", "pw1")
	book := seedTestBook(t, db, "The Art of War")

	borrow, err := svc.BorrowBook(alice, book)
	require.NoError(t, err)

	require.NoError(t, svc.ReturnBook(alice, borrow.ID))
	assert.Equal(t, models.StatusAvailable, bookStatus(t, db, book))
	requireLedgerInvariant(t, db)

	// the record is closed now, a second return finds nothing open
	err = svc.ReturnBook(alice, borrow.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// and the book can be borrowed again
	_, err = svc.BorrowBook(alice, book)
	assert.NoError(t, err)
}

func TestReturnNotOwner(t *testing.T) {
	db := newTestDB(t)
	svc := NewBorrowService(db)
	alice := createTestUser(t, db, "alice", "alice@x.com", "pw1")
	bob := createTestUser(t, db, "bob", "bob@x.com", "pw2")
	book := seedTestBook(t, db, "Think and Grow Rich")

	borrow, err := svc.BorrowBook(alice, book)
	require.NoError(t, err)

	err = svc.ReturnBook(bob, borrow.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	// the failed return must leave the book untouched
	assert.Equal(t, models.StatusBorrowed, bookStatus(t, db, book))
	requireLedgerInvariant(t, db)
}

func TestReturnUnknownRecord(t *testing.T) {
	db := newTestDB(t)
	svc := NewBorrowService(db)
	alice := createTestUser(t, db, "alice", "alice@x.com", "pw1")

	err := svc.ReturnBook(alice, 42)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGetUserBorrows(t *testing.T) {
	db := newTestDB(t)
	svc := NewBorrowService(db)
	alice := createTestUser(t, db, "alice", "alice@x.com", "pw1")
	bob := createTestUser(t, db, "bob", "bob@x.com", "pw2")
	gatsby := seedTestBook(t, db, "The Great Gatsby")
	sapiens := seedTestBook(t, db, "Sapiens")

	first, err := svc.BorrowBook(alice, gatsby)
	require.NoError(t, err)
	_, err = svc.BorrowBook(bob, sapiens)
	require.NoError(t, err)
	require.NoError(t, svc.ReturnBook(alice, first.ID))

	borrows, err := svc.GetUserBorrows(alice)
	require.NoError(t, err)
	require.Len(t, borrows, 1)
	assert.Equal(t, "The Great Gatsby", borrows[0].Title)
	assert.NotNil(t, borrows[0].ReturnedAt)

	borrows, err = svc.GetUserBorrows(bob)
	require.NoError(t, err)
	require.Len(t, borrows, 1)
	assert.Nil(t, borrows[0].ReturnedAt)
}

func TestEnsureSampleCatalog(t *testing.T) {
	db := newTestDB(t)
	books := NewBookService(db)

	require.NoError(t, books.EnsureSampleCatalog())
	require.NoError(t, books.EnsureSampleCatalog()) // idempotent

	all, err := books.GetAllBooks()
	require.NoError(t, err)
	require.Len(t, all, 5)
	for _, b := range all {
		assert.Equal(t, models.StatusAvailable, b.Status)
		assert.NotEmpty(t, b.Title)
		assert.NotEmpty(t, b.Category)
	}
}
