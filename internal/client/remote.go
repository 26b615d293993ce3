package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/acortes/librarium-be/internal/apperr"
	"github.com/acortes/librarium-be/internal/models"
)

// RemoteStore is the adapter for the REST API. Transport failures and 5xx
// responses surface as ErrUnavailable so the access layer knows the remote
// store cannot serve and the local one should.
type RemoteStore struct {
	baseURL  string
	http     *http.Client
	sessions *SessionStore
}

// NewRemoteStore creates a RemoteStore for the API at baseURL (including the
// /api prefix).
func NewRemoteStore(baseURL string, sessions *SessionStore) *RemoteStore {
	return &RemoteStore{
		baseURL:  baseURL,
		http:     &http.Client{Timeout: 10 * time.Second},
		sessions: sessions,
	}
}

// do performs one API request and decodes the response body into out. A 401
// clears the stored session before reporting unauthorized.
func (c *RemoteStore) do(method, endpoint string, payload interface{}, out interface{}) error {
	var body *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(data)
	} else {
		body = &bytes.Buffer{}
	}

	req, err := http.NewRequest(method, c.baseURL+endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if sess, err := c.sessions.Load(); err == nil && sess.Token != "" {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.E(apperr.ErrUnavailable, "Remote store unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.sessions.Clear()
		return apperr.E(apperr.ErrUnauthorized, remoteErrorMessage(resp, "Unauthorized"))
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return apperr.E(apperr.ErrUnavailable, remoteErrorMessage(resp, "Remote store error"))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		kind := apperr.ErrValidation
		switch resp.StatusCode {
		case http.StatusForbidden:
			kind = apperr.ErrForbidden
		case http.StatusNotFound:
			kind = apperr.ErrNotFound
		}
		return apperr.E(kind, remoteErrorMessage(resp, "Request rejected"))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// remoteErrorMessage extracts the {"error": ...} body, falling back to a
// generic message.
func remoteErrorMessage(resp *http.Response, fallback string) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		return body.Error
	}
	return fallback
}

func (c *RemoteStore) Register(username, email, password string) (*Response, error) {
	var out struct {
		Message string `json:"message"`
	}
	payload := map[string]string{"username": username, "email": email, "password": password}
	if err := c.do(http.MethodPost, "/users/register", payload, &out); err != nil {
		return nil, err
	}
	return &Response{Message: out.Message}, nil
}

func (c *RemoteStore) VerifyEmail(token string) (*Response, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.do(http.MethodGet, "/users/verify?token="+token, nil, &out); err != nil {
		return nil, err
	}
	return &Response{Message: out.Message}, nil
}

func (c *RemoteStore) Login(identifier, password string) (*Response, error) {
	var out struct {
		User  models.User `json:"user"`
		Token string      `json:"token"`
	}
	payload := map[string]string{"email": identifier, "password": password}
	if err := c.do(http.MethodPost, "/users/login", payload, &out); err != nil {
		return nil, err
	}
	return &Response{User: &out.User, Token: out.Token}, nil
}

func (c *RemoteStore) Books() (*Response, error) {
	var out []models.Book
	if err := c.do(http.MethodGet, "/books", nil, &out); err != nil {
		return nil, err
	}
	return &Response{Books: out}, nil
}

func (c *RemoteStore) Book(id int64) (*Response, error) {
	var out models.Book
	if err := c.do(http.MethodGet, fmt.Sprintf("/books/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &Response{Books: []models.Book{out}}, nil
}

func (c *RemoteStore) Borrow(bookID int64) (*Response, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.do(http.MethodPost, "/borrows", map[string]int64{"book_id": bookID}, &out); err != nil {
		return nil, err
	}
	return &Response{Message: out.Message}, nil
}

func (c *RemoteStore) Return(borrowID int64) (*Response, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.do(http.MethodPost, fmt.Sprintf("/return/%d", borrowID), nil, &out); err != nil {
		return nil, err
	}
	return &Response{Message: out.Message}, nil
}

func (c *RemoteStore) Borrows() (*Response, error) {
	var out []models.Borrow
	if err := c.do(http.MethodGet, "/borrows", nil, &out); err != nil {
		return nil, err
	}
	return &Response{Borrows: out}, nil
}
