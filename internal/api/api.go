package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Yoyzhao/CampusIdle/internal/config"
	"github.com/Yoyzhao/CampusIdle/internal/domain/models"
	cartsvc "github.com/Yoyzhao/CampusIdle/internal/service/cart"
	catalogsvc "github.com/Yoyzhao/CampusIdle/internal/service/catalog"
	txsvc "github.com/Yoyzhao/CampusIdle/internal/service/transaction"
	usersvc "github.com/Yoyzhao/CampusIdle/internal/service/user"
	"github.com/gorilla/mux"
)

type ctxKey string

const ctxUserKey ctxKey = "user"

type APIServer struct {
	config       *config.Config
	logger       *slog.Logger
	server       *http.Server
	users        *usersvc.Service
	catalog      *catalogsvc.Service
	carts        *cartsvc.Manager
	transactions *txsvc.Service
}

func New(config *config.Config, logger *slog.Logger, users *usersvc.Service,
	catalog *catalogsvc.Service, carts *cartsvc.Manager, transactions *txsvc.Service) *APIServer {
	return &APIServer{
		config: config,
		logger: logger,
		server: &http.Server{
			Addr: config.ApiHost + ":" + strconv.Itoa(config.ApiPort),
		},
		users:        users,
		catalog:      catalog,
		carts:        carts,
		transactions: transactions,
	}
}

func (s *APIServer) Start() error {
	s.logger.Info("Starting server", slog.String("port", strconv.Itoa(s.config.ApiPort)))

	s.configureRouter()

	return s.server.ListenAndServe()
}

func (s *APIServer) MustStart() {
	err := s.Start()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic("Failed to start server: " + err.Error())
	}
}

func (s *APIServer) Stop(ctx context.Context) error {
	defer s.logger.Info("Server successfully stopped")
	return s.server.Shutdown(ctx)
}

func (s *APIServer) configureRouter() {
	router := mux.NewRouter()

	router.HandleFunc("/api/items", s.listItemsHandler()).Methods("GET")
	router.HandleFunc("/api/items/stats", s.itemStatsHandler()).Methods("GET")
	router.HandleFunc("/api/items/seller/{id}", s.sellerItemsHandler()).Methods("GET")
	router.HandleFunc("/api/items", s.authenticate(s.createItemHandler())).Methods("POST")
	router.HandleFunc("/api/items/{id}", s.authenticate(s.updateItemHandler())).Methods("PUT")
	router.HandleFunc("/api/items/{id}/status", s.authenticate(s.updateItemStatusHandler())).Methods("PUT")
	router.HandleFunc("/api/items/{id}/likes", s.authenticate(s.updateItemLikesHandler())).Methods("PUT")
	router.HandleFunc("/api/items/{id}/like", s.authenticate(s.toggleLikeHandler())).Methods("POST")
	router.HandleFunc("/api/items/{id}", s.authenticate(s.deleteItemHandler())).Methods("DELETE")

	router.HandleFunc("/api/cart", s.authenticate(s.addToCartHandler())).Methods("POST")
	router.HandleFunc("/api/cart/{cartId}", s.authenticate(s.removeFromCartHandler())).Methods("DELETE")

	router.HandleFunc("/api/auth/register", s.registerHandler()).Methods("POST")
	router.HandleFunc("/api/auth/login", s.loginHandler()).Methods("POST")
	router.HandleFunc("/api/auth/logout", s.authenticate(s.logoutHandler())).Methods("POST")

	router.HandleFunc("/api/users/{id}", s.authenticate(s.getUserHandler())).Methods("GET")
	router.HandleFunc("/api/users/{id}", s.authenticate(s.updateUserHandler())).Methods("PUT")

	router.HandleFunc("/api/transactions", s.authenticate(s.createTransactionHandler())).Methods("POST")
	router.HandleFunc("/api/transactions/seller/{id}", s.authenticate(s.sellerTransactionsHandler())).Methods("GET")
	router.HandleFunc("/api/transactions/buyer/{id}", s.authenticate(s.buyerTransactionsHandler())).Methods("GET")
	router.HandleFunc("/api/transactions/{id}/confirm", s.authenticate(s.confirmTransactionHandler())).Methods("PUT")
	router.HandleFunc("/api/transactions/{id}/complete", s.authenticate(s.completeTransactionHandler())).Methods("PUT")
	router.HandleFunc("/api/transactions/{id}/cancel", s.authenticate(s.cancelTransactionHandler())).Methods("PUT")
	router.HandleFunc("/api/transactions/{id}", s.authenticate(s.deleteTransactionHandler())).Methods("DELETE")

	s.server.Handler = router
}

// authenticate resolves the bearer token into a user and stashes it on the
// request context. Session tokens are explicit per request; there is no
// ambient session state.
func (s *APIServer) authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenHeader := r.Header.Get("Authorization")
		if tokenHeader == "" {
			s.writeError(w, errors.New("missing token"), models.ErrAuthentication)
			return
		}

		parts := strings.Split(tokenHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			s.writeError(w, errors.New("malformed token header"), models.ErrAuthentication)
			return
		}

		user, err := s.users.ResolveSession(r.Context(), parts[1])
		if err != nil {
			s.writeError(w, err, nil)
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), ctxUserKey, user)))
	}
}

func sessionUser(r *http.Request) *models.User {
	user, _ := r.Context().Value(ctxUserKey).(*models.User)
	return user
}

func (s *APIServer) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", "error", err)
	}
}

// writeError maps the domain error taxonomy to HTTP statuses. hint forces
// the classification when err itself is untyped.
func (s *APIServer) writeError(w http.ResponseWriter, err error, hint error) {
	classify := err
	if hint != nil {
		classify = hint
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(classify, models.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(classify, models.ErrAuthentication):
		status = http.StatusUnauthorized
	case errors.Is(classify, models.ErrAuthorization):
		status = http.StatusForbidden
	case errors.Is(classify, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(classify, models.ErrConflict):
		status = http.StatusConflict
	case errors.Is(classify, models.ErrInvalidState):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", "error", err)
	}

	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
