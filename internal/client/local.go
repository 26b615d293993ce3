package client

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/acortes/librarium-be/internal/apperr"
	"github.com/acortes/librarium-be/internal/database"
	"github.com/acortes/librarium-be/internal/models"
	"github.com/acortes/librarium-be/internal/services"
)

// LocalStore is the fallback adapter: the same service layer the API server
// runs, pointed at a SQLite file on the caller's machine. Because the
// services are shared, validation rules and the borrow state machine are
// identical on both paths by construction.
type LocalStore struct {
	db       *sql.DB
	users    *services.UserService
	books    *services.BookService
	borrows  *services.BorrowService
	sessions *SessionStore
}

// NewLocalStore opens (and on first use migrates and seeds) the local
// database at path.
func NewLocalStore(path string, sessions *SessionStore) (*LocalStore, error) {
	db, err := database.New(path)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	books := services.NewBookService(db)
	if err := books.EnsureSampleCatalog(); err != nil {
		db.Close()
		return nil, err
	}

	return &LocalStore{
		db:       db,
		users:    services.NewUserService(db, services.NopEmailSender{}),
		books:    books,
		borrows:  services.NewBorrowService(db),
		sessions: sessions,
	}, nil
}

// Close releases the underlying database.
func (s *LocalStore) Close() error {
	return s.db.Close()
}

func (s *LocalStore) Register(username, email, password string) (*Response, error) {
	if _, err := s.users.Register(username, email, password); err != nil {
		return nil, err
	}
	return &Response{Message: "Registered. Check your email for verification link."}, nil
}

func (s *LocalStore) VerifyEmail(token string) (*Response, error) {
	if err := s.users.Verify(token); err != nil {
		return nil, err
	}
	return &Response{Message: "Email verified"}, nil
}

// Login verifies credentials against the local users collection and issues
// an opaque offline token. The token carries no claims; identity lives in
// the session file next to it.
func (s *LocalStore) Login(identifier, password string) (*Response, error) {
	user, err := s.users.Authenticate(identifier, password)
	if err != nil {
		return nil, err
	}
	return &Response{User: &user, Token: uuid.NewString()}, nil
}

func (s *LocalStore) Books() (*Response, error) {
	books, err := s.books.GetAllBooks()
	if err != nil {
		return nil, err
	}
	return &Response{Books: books}, nil
}

func (s *LocalStore) Book(id int64) (*Response, error) {
	book, err := s.books.GetBookByID(id)
	if err != nil {
		return nil, err
	}
	return &Response{Books: []models.Book{book}}, nil
}

func (s *LocalStore) Borrow(bookID int64) (*Response, error) {
	user, err := s.currentUser()
	if err != nil {
		return nil, err
	}
	if _, err := s.borrows.BorrowBook(user.ID, bookID); err != nil {
		return nil, err
	}
	return &Response{Message: "Book borrowed"}, nil
}

func (s *LocalStore) Return(borrowID int64) (*Response, error) {
	user, err := s.currentUser()
	if err != nil {
		return nil, err
	}
	if err := s.borrows.ReturnBook(user.ID, borrowID); err != nil {
		return nil, err
	}
	return &Response{Message: "Book returned"}, nil
}

func (s *LocalStore) Borrows() (*Response, error) {
	user, err := s.currentUser()
	if err != nil {
		return nil, err
	}
	borrows, err := s.borrows.GetUserBorrows(user.ID)
	if err != nil {
		return nil, err
	}
	return &Response{Borrows: borrows}, nil
}

// currentUser resolves the session identity for authenticated operations.
// A session that was established remotely gets a shadow row in the local
// users collection so the ledger's foreign keys hold.
func (s *LocalStore) currentUser() (*models.User, error) {
	sess, err := s.sessions.Load()
	if err != nil {
		return nil, err
	}
	if sess.Token == "" || sess.User == nil {
		return nil, apperr.E(apperr.ErrUnauthorized, "Missing token")
	}

	user := *sess.User
	var id int64
	err = s.db.QueryRow("SELECT id FROM users WHERE email = ?", user.Email).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		res, err := s.db.Exec(
			"INSERT INTO users(username, email, password_hash, email_verified, created_at) VALUES(?, ?, '', 1, ?)",
			user.Username, user.Email, time.Now().UTC(),
		)
		if err != nil {
			return nil, err
		}
		if id, err = res.LastInsertId(); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}
	user.ID = id
	return &user, nil
}
