package services

import (
	"database/sql"

	"github.com/rs/zerolog/log"

	"github.com/acortes/librarium-be/internal/apperr"
	"github.com/acortes/librarium-be/internal/models"
)

// BookServiceProvider defines the interface for catalog services.
type BookServiceProvider interface {
	GetAllBooks() ([]models.Book, error)
	GetBookByID(id int64) (models.Book, error)
	AddBook(title, author, description, category string) (models.Book, error)
	EnsureSampleCatalog() error
}

// BookService provides business logic for the book catalog. Status is read
// here but only ever written by the BorrowService transitions.
type BookService struct {
	db *sql.DB
}

// NewBookService creates a new BookService.
func NewBookService(db *sql.DB) *BookService {
	return &BookService{db: db}
}

// GetAllBooks retrieves the full catalog.
func (s *BookService) GetAllBooks() ([]models.Book, error) {
	rows, err := s.db.Query("SELECT id, title, author, description, category, status FROM books")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []models.Book
	for rows.Next() {
		var b models.Book
		var author, description, category sql.NullString
		if err := rows.Scan(&b.ID, &b.Title, &author, &description, &category, &b.Status); err != nil {
			return nil, err
		}
		b.Author = author.String
		b.Description = description.String
		b.Category = category.String
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return books, nil
}

// GetBookByID retrieves a single book by its ID.
func (s *BookService) GetBookByID(id int64) (models.Book, error) {
	var b models.Book
	var author, description, category sql.NullString
	row := s.db.QueryRow("SELECT id, title, author, description, category, status FROM books WHERE id = ?", id)
	err := row.Scan(&b.ID, &b.Title, &author, &description, &category, &b.Status)
	if err == sql.ErrNoRows {
		return models.Book{}, apperr.E(apperr.ErrNotFound, "Book not found")
	}
	if err != nil {
		return models.Book{}, err
	}
	b.Author = author.String
	b.Description = description.String
	b.Category = category.String
	return b, nil
}

// AddBook inserts a new catalog entry, available by default.
func (s *BookService) AddBook(title, author, description, category string) (models.Book, error) {
	if title == "" {
		return models.Book{}, apperr.E(apperr.ErrValidation, "Missing title")
	}
	res, err := s.db.Exec(
		"INSERT INTO books(title, author, description, category, status) VALUES(?, ?, ?, ?, ?)",
		title, author, description, category, models.StatusAvailable,
	)
	if err != nil {
		return models.Book{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Book{}, err
	}
	return models.Book{
		ID:          id,
		Title:       title,
		Author:      author,
		Description: description,
		Category:    category,
		Status:      models.StatusAvailable,
	}, nil
}

// EnsureSampleCatalog seeds the fixed demo catalog on first use. Both the
// server store and the local fallback store start from the same five books.
func (s *BookService) EnsureSampleCatalog() error {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM books").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	sample := []models.Book{
		{Title: "The Great Gatsby", Author: "F. Scott Fitzgerald", Description: "Classic novel", Category: "Fiction"},
		{Title: "A Brief History of Time", Author: "Stephen Hawking", Description: "Science book", Category: "Science"},
		{Title: "Sapiens", Author: "Yuval Noah Harari", Description: "History of humankind", Category: "History"},
		{Title: "Think and Grow Rich", Author: "Napoleon Hill", Description: "Self improvement", Category: "Business"},
		{Title: "The Art of War", Author: "Sun Tzu", Description: "Strategy classic", Category: "Art"},
	}
	for _, b := range sample {
		if _, err := s.AddBook(b.Title, b.Author, b.Description, b.Category); err != nil {
			return err
		}
	}
	log.Info().Int("books", len(sample)).Msg("Sample catalog seeded")
	return nil
}
