package router

import (
	"net/http"

	"github.com/Abdurahmanit/GroupProject/auction-service/internal/adapter/http/handler"
	"github.com/Abdurahmanit/GroupProject/auction-service/internal/adapter/http/middleware"
	"github.com/Abdurahmanit/GroupProject/auction-service/internal/platform/logger"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// New builds the service router: public read endpoints plus a JWT-guarded
// group for everything that mutates state.
func New(h *handler.AuctionHandler, jwtSecret string, log *logger.Logger) *chi.Mux {
	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.Recoverer)

	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Public routes (read operations)
	mux.Get("/api/items", h.HandleSearchItems)
	mux.Get("/api/items/{itemId}", h.HandleGetItem)

	// Protected routes (require JWT authentication)
	mux.Group(func(r chi.Router) {
		r.Use(middleware.JWTAuth(jwtSecret, log))

		r.Post("/api/items", h.HandleCreateItem)
		r.Put("/api/items/{itemId}", h.HandleUpdateItem)
		r.Delete("/api/items/{itemId}", h.HandleDeleteItem)
		r.Post("/api/items/{itemId}/picture", h.HandleUploadPicture)

		r.Post("/api/items/{itemId}/bids", h.HandlePlaceBid)

		r.Post("/api/items/{itemId}/questions", h.HandleAskQuestion)
		r.Post("/api/questions/{questionId}/answer", h.HandleAnswerQuestion)
	})

	return mux
}
