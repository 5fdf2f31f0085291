package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Yoyzhao/CampusIdle/internal/domain/models"
	"github.com/gorilla/mux"
)

func (s *APIServer) listItemsHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := s.catalog.ListActive(r.Context())
		if err != nil {
			s.writeError(w, err, nil)
			return
		}
		s.writeJSON(w, http.StatusOK, items)
	}
}

func (s *APIServer) itemStatsHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := s.catalog.Stats(r.Context())
		if err != nil {
			s.writeError(w, err, nil)
			return
		}
		s.writeJSON(w, http.StatusOK, stats)
	}
}

func (s *APIServer) sellerItemsHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		sellerID := mux.Vars(r)["id"]

		items, err := s.catalog.ListBySeller(r.Context(), sellerID)
		if err != nil {
			s.writeError(w, err, nil)
			return
		}
		s.writeJSON(w, http.StatusOK, items)
	}
}

type itemRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       float64         `json:"price"`
	Type        models.ItemType `json:"type"`
	Category    models.Category `json:"category"`
	ImageURLs   []string        `json:"imageUrls"`
	Status      string          `json:"status"`
}

func (s *APIServer) createItemHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req itemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, errors.New("malformed request body"), models.ErrValidation)
			return
		}

		user := sessionUser(r)
		item := &models.Item{
			Title:       req.Title,
			Description: req.Description,
			Price:       req.Price,
			Type:        req.Type,
			Category:    req.Category,
			ImageURLs:   req.ImageURLs,
			SellerID:    user.ID,
			SellerName:  user.Username,
		}

		created, err := s.catalog.Create(r.Context(), item)
		if err != nil {
			s.writeError(w, err, nil)
			return
		}
		s.writeJSON(w, http.StatusCreated, created)
	}
}

func (s *APIServer) updateItemHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req itemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, errors.New("malformed request body"), models.ErrValidation)
			return
		}

		item := &models.Item{
			ID:          mux.Vars(r)["id"],
			Title:       req.Title,
			Description: req.Description,
			Price:       req.Price,
			Type:        req.Type,
			Category:    req.Category,
			ImageURLs:   req.ImageURLs,
			Status:      models.ItemStatus(req.Status),
		}

		updated, err := s.catalog.Update(r.Context(), sessionUser(r).ID, item)
		if err != nil {
			s.writeError(w, err, nil)
			return
		}
		s.writeJSON(w, http.StatusOK, updated)
	}
}

func (s *APIServer) updateItemStatusHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Status models.ItemStatus `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, errors.New("malformed request body"), models.ErrValidation)
			return
		}

		id := mux.Vars(r)["id"]
		if err := s.catalog.SetStatus(r.Context(), sessionUser(r).ID, id, req.Status); err != nil {
			s.writeError(w, err, nil)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"message": "Item updated"})
	}
}

func (s *APIServer) updateItemLikesHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Likes int `json:"likes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, errors.New("malformed request body"), models.ErrValidation)
			return
		}

		id := mux.Vars(r)["id"]
		if err := s.catalog.SetLikes(r.Context(), id, req.Likes); err != nil {
			s.writeError(w, err, nil)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"message": "Item updated"})
	}
}

func (s *APIServer) toggleLikeHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := s.catalog.Get(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			s.writeError(w, err, nil)
			return
		}

		liked, err := s.carts.ToggleLike(r.Context(), sessionUser(r), item)
		if err != nil {
			s.writeError(w, err, nil)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]bool{"liked": liked})
	}
}

func (s *APIServer) deleteItemHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		if err := s.catalog.SoftDelete(r.Context(), sessionUser(r).ID, id); err != nil {
			s.writeError(w, err, nil)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"message": "Item deleted"})
	}
}
