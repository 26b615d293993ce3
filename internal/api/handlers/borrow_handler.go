package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/acortes/librarium-be/internal/apperr"
	"github.com/acortes/librarium-be/internal/auth"
	"github.com/acortes/librarium-be/internal/models"
	"github.com/acortes/librarium-be/internal/services"
)

// BorrowHandler handles HTTP requests against the borrow ledger.
type BorrowHandler struct {
	service services.BorrowServiceProvider
}

// NewBorrowHandler creates a new BorrowHandler.
func NewBorrowHandler(service services.BorrowServiceProvider) *BorrowHandler {
	return &BorrowHandler{service: service}
}

// BorrowPayload defines the structure for borrow requests. book_id is the
// canonical field name; no aliases are accepted.
type BorrowPayload struct {
	BookID int64 `json:"book_id" validate:"required"`
}

// Create borrows a book for the authenticated user.
func (h *BorrowHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(auth.UserClaimsKey).(*auth.Claims)

	var payload BorrowPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, apperr.E(apperr.ErrValidation, "Missing book_id"))
		return
	}

	if _, err := h.service.BorrowBook(claims.UserID, payload.BookID); err != nil {
		log.Warn().Err(err).Int64("user_id", claims.UserID).Int64("book_id", payload.BookID).Msg("Borrow refused")
		writeError(w, err)
		return
	}

	writeMessage(w, http.StatusCreated, "Book borrowed")
}

// Return closes the authenticated user's borrow record.
func (h *BorrowHandler) Return(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(auth.UserClaimsKey).(*auth.Claims)

	borrowID, err := strconv.ParseInt(chi.URLParam(r, "borrowID"), 10, 64)
	if err != nil {
		writeError(w, apperr.E(apperr.ErrValidation, "Invalid borrow id"))
		return
	}

	if err := h.service.ReturnBook(claims.UserID, borrowID); err != nil {
		log.Warn().Err(err).Int64("user_id", claims.UserID).Int64("borrow_id", borrowID).Msg("Return refused")
		writeError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "Book returned")
}

// List returns the authenticated user's borrow records.
func (h *BorrowHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(auth.UserClaimsKey).(*auth.Claims)

	borrows, err := h.service.GetUserBorrows(claims.UserID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", claims.UserID).Msg("Failed to list borrows")
		writeError(w, err)
		return
	}
	if borrows == nil {
		borrows = []models.Borrow{}
	}
	writeJSON(w, http.StatusOK, borrows)
}
