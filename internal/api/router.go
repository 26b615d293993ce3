package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/acortes/librarium-be/internal/api/handlers"
	"github.com/acortes/librarium-be/internal/auth"
	"github.com/acortes/librarium-be/internal/services"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(userService services.UserServiceProvider, bookService services.BookServiceProvider, borrowService services.BorrowServiceProvider) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration for the static frontend
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5500"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService)
	bookHandler := handlers.NewBookHandler(bookService)
	borrowHandler := handlers.NewBorrowHandler(borrowService)

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Post("/users/register", userHandler.Register)
		r.Get("/users/verify", userHandler.Verify)
		r.Post("/users/login", userHandler.Login)
		r.Get("/books", bookHandler.GetAll)
		r.Get("/books/{id}", bookHandler.Get)

		// Endpoints requiring a session token
		r.Group(func(r chi.Router) {
			r.Use(auth.JWTMiddleware())
			r.Get("/users/me", userHandler.GetMe)
			r.Post("/borrows", borrowHandler.Create)
			r.Get("/borrows", borrowHandler.List)
			r.Post("/return/{borrowID}", borrowHandler.Return)
		})
	})

	return r
}
