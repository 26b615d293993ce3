// Package client implements the access layer consumed by the presentation
// layer: one request surface that talks to the remote REST API when it can
// and to an equivalent local store when it cannot. Callers never learn which
// path served them.
package client

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/acortes/librarium-be/internal/apperr"
	"github.com/acortes/librarium-be/internal/models"
)

// Response is the canonical result shape both adapters normalize into.
// Exactly the fields relevant to the served operation are populated.
type Response struct {
	Message string          `json:"message,omitempty"`
	User    *models.User    `json:"user,omitempty"`
	Token   string          `json:"token,omitempty"`
	Books   []models.Book   `json:"books,omitempty"`
	Borrows []models.Borrow `json:"borrows,omitempty"`
}

// Store is the operation set both adapters implement.
type Store interface {
	Register(username, email, password string) (*Response, error)
	VerifyEmail(token string) (*Response, error)
	Login(identifier, password string) (*Response, error)
	Books() (*Response, error)
	Book(id int64) (*Response, error)
	Borrow(bookID int64) (*Response, error)
	Return(borrowID int64) (*Response, error)
	Borrows() (*Response, error)
}

// AccessLayer fronts the two adapters. Every operation is tried remotely
// first; any remote error at all routes the operation to the local store,
// whose answer (or refusal) is what the caller sees.
type AccessLayer struct {
	remote   Store
	local    Store
	sessions *SessionStore
}

// New wires an AccessLayer from its adapters and the shared session store.
func New(remote, local Store, sessions *SessionStore) *AccessLayer {
	return &AccessLayer{remote: remote, local: local, sessions: sessions}
}

// do runs op against the remote store and falls back to the local one on
// failure. The remote adapter has already cleared the session if the
// failure was a token rejection.
func (a *AccessLayer) do(name string, op func(Store) (*Response, error)) (*Response, error) {
	res, err := op(a.remote)
	if err == nil {
		return res, nil
	}
	log.Debug().Err(err).Str("op", name).Msg("Remote store failed, using local store")
	return op(a.local)
}

// Register creates an account, remotely when possible.
func (a *AccessLayer) Register(username, email, password string) (*Response, error) {
	return a.do("register", func(s Store) (*Response, error) {
		return s.Register(username, email, password)
	})
}

// VerifyEmail redeems a verification token.
func (a *AccessLayer) VerifyEmail(token string) (*Response, error) {
	return a.do("verify", func(s Store) (*Response, error) {
		return s.VerifyEmail(token)
	})
}

// Login authenticates and persists the resulting session for subsequent
// requests, regardless of which path issued it.
func (a *AccessLayer) Login(identifier, password string) (*Response, error) {
	res, err := a.do("login", func(s Store) (*Response, error) {
		return s.Login(identifier, password)
	})
	if err != nil {
		return nil, err
	}
	if err := a.sessions.Save(Session{Token: res.Token, User: res.User}); err != nil {
		return nil, err
	}
	return res, nil
}

// Logout drops the persisted session.
func (a *AccessLayer) Logout() error {
	return a.sessions.Clear()
}

// Books lists the catalog.
func (a *AccessLayer) Books() (*Response, error) {
	return a.do("books", func(s Store) (*Response, error) { return s.Books() })
}

// Book fetches one catalog entry.
func (a *AccessLayer) Book(id int64) (*Response, error) {
	return a.do("book", func(s Store) (*Response, error) { return s.Book(id) })
}

// Borrow borrows a book for the signed-in user.
func (a *AccessLayer) Borrow(bookID int64) (*Response, error) {
	return a.do("borrow", func(s Store) (*Response, error) { return s.Borrow(bookID) })
}

// Return returns a borrowed book by ledger record id.
func (a *AccessLayer) Return(borrowID int64) (*Response, error) {
	return a.do("return", func(s Store) (*Response, error) { return s.Return(borrowID) })
}

// Borrows lists the signed-in user's ledger.
func (a *AccessLayer) Borrows() (*Response, error) {
	return a.do("borrows", func(s Store) (*Response, error) { return s.Borrows() })
}

// Request is the generic endpoint/method surface the presentation layer
// calls. Endpoints mirror the REST paths; payload keys mirror the JSON
// bodies.
func (a *AccessLayer) Request(method, endpoint string, payload map[string]interface{}) (*Response, error) {
	switch {
	case endpoint == "/users/register" && method == http.MethodPost:
		return a.Register(str(payload, "username"), str(payload, "email"), str(payload, "password"))
	case strings.HasPrefix(endpoint, "/users/verify") && method == http.MethodGet:
		token := str(payload, "token")
		if i := strings.Index(endpoint, "token="); token == "" && i >= 0 {
			token = endpoint[i+len("token="):]
		}
		return a.VerifyEmail(token)
	case endpoint == "/users/login" && method == http.MethodPost:
		return a.Login(str(payload, "email"), str(payload, "password"))
	case endpoint == "/books" && method == http.MethodGet:
		return a.Books()
	case strings.HasPrefix(endpoint, "/books/") && method == http.MethodGet:
		id, err := strconv.ParseInt(strings.TrimPrefix(endpoint, "/books/"), 10, 64)
		if err != nil {
			return nil, apperr.E(apperr.ErrValidation, "Invalid book id")
		}
		return a.Book(id)
	case endpoint == "/borrows" && method == http.MethodPost:
		id, ok := num(payload, "book_id")
		if !ok {
			return nil, apperr.E(apperr.ErrValidation, "Missing book_id")
		}
		return a.Borrow(id)
	case endpoint == "/borrows" && method == http.MethodGet:
		return a.Borrows()
	case strings.HasPrefix(endpoint, "/return/") && method == http.MethodPost:
		id, err := strconv.ParseInt(strings.TrimPrefix(endpoint, "/return/"), 10, 64)
		if err != nil {
			return nil, apperr.E(apperr.ErrValidation, "Invalid borrow id")
		}
		return a.Return(id)
	}
	return nil, apperr.E(apperr.ErrNotFound, "Unknown endpoint")
}

func str(payload map[string]interface{}, key string) string {
	if payload == nil {
		return ""
	}
	s, _ := payload[key].(string)
	return s
}

// num reads a JSON number (float64 after decoding) or a native int64.
func num(payload map[string]interface{}, key string) (int64, bool) {
	if payload == nil {
		return 0, false
	}
	switch v := payload[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	}
	return 0, false
}
