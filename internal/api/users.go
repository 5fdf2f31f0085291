package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Yoyzhao/CampusIdle/internal/domain/models"
	"github.com/gorilla/mux"
)

// getUserHandler is session resume: it returns the user with cart
// snapshots refreshed from the current catalog. The refresh is a
// projection; nothing is persisted here.
func (s *APIServer) getUserHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		caller := sessionUser(r)
		if caller.ID != id {
			s.writeError(w, fmt.Errorf("cannot read another user's profile: %w", models.ErrAuthorization), nil)
			return
		}

		user, err := s.users.Get(r.Context(), id)
		if err != nil {
			s.writeError(w, err, nil)
			return
		}

		if items, err := s.catalog.ListActive(r.Context()); err == nil {
			s.carts.SyncCartWithCatalog(user, items)
		} else {
			s.logger.Warn("Cart sync skipped", "error", err)
		}

		s.writeJSON(w, http.StatusOK, user)
	}
}

func (s *APIServer) updateUserHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		caller := sessionUser(r)
		if caller.ID != id {
			s.writeError(w, fmt.Errorf("cannot update another user: %w", models.ErrAuthorization), nil)
			return
		}

		var req struct {
			Cart  []models.CartItem `json:"cart"`
			Likes []string          `json:"likes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, errors.New("malformed request body"), models.ErrValidation)
			return
		}

		if err := s.users.UpdateCartLikes(r.Context(), caller, req.Cart, req.Likes); err != nil {
			s.writeError(w, err, nil)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"message": "User updated"})
	}
}

func (s *APIServer) addToCartHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ItemID string `json:"itemId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, errors.New("malformed request body"), models.ErrValidation)
			return
		}

		item, err := s.catalog.Get(r.Context(), req.ItemID)
		if err != nil {
			s.writeError(w, err, nil)
			return
		}

		user := sessionUser(r)
		if err := s.carts.AddToCart(r.Context(), user, item); err != nil {
			s.writeError(w, err, nil)
			return
		}
		s.writeJSON(w, http.StatusCreated, user.Cart)
	}
}

func (s *APIServer) removeFromCartHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		user := sessionUser(r)
		if err := s.carts.RemoveFromCart(r.Context(), user, mux.Vars(r)["cartId"]); err != nil {
			s.writeError(w, err, nil)
			return
		}
		s.writeJSON(w, http.StatusOK, user.Cart)
	}
}
