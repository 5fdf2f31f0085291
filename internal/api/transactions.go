package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Yoyzhao/CampusIdle/internal/domain/models"
	"github.com/gorilla/mux"
)

func (s *APIServer) createTransactionHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ItemID string `json:"itemId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, errors.New("malformed request body"), models.ErrValidation)
			return
		}

		buyer := sessionUser(r)
		tx, err := s.transactions.Create(r.Context(), req.ItemID, buyer.ID, buyer.Username)
		if err != nil {
			s.writeError(w, err, nil)
			return
		}
		s.writeJSON(w, http.StatusCreated, tx)
	}
}

func (s *APIServer) sellerTransactionsHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		if sessionUser(r).ID != id {
			s.writeError(w, fmt.Errorf("cannot read another seller's transactions: %w", models.ErrAuthorization), nil)
			return
		}

		txs, err := s.transactions.ListForSeller(r.Context(), id)
		if err != nil {
			s.writeError(w, err, nil)
			return
		}
		s.writeJSON(w, http.StatusOK, txs)
	}
}

func (s *APIServer) buyerTransactionsHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		if sessionUser(r).ID != id {
			s.writeError(w, fmt.Errorf("cannot read another buyer's transactions: %w", models.ErrAuthorization), nil)
			return
		}

		txs, err := s.transactions.ListForBuyer(r.Context(), id)
		if err != nil {
			s.writeError(w, err, nil)
			return
		}
		s.writeJSON(w, http.StatusOK, txs)
	}
}

func (s *APIServer) confirmTransactionHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		tx, err := s.transactions.Confirm(r.Context(), mux.Vars(r)["id"], sessionUser(r).ID)
		if err != nil {
			s.writeError(w, err, nil)
			return
		}
		s.writeJSON(w, http.StatusOK, tx)
	}
}

func (s *APIServer) completeTransactionHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		tx, err := s.transactions.Complete(r.Context(), mux.Vars(r)["id"], sessionUser(r).ID)
		if err != nil {
			s.writeError(w, err, nil)
			return
		}
		s.writeJSON(w, http.StatusOK, tx)
	}
}

func (s *APIServer) cancelTransactionHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		tx, err := s.transactions.Cancel(r.Context(), mux.Vars(r)["id"], sessionUser(r).ID)
		if err != nil {
			s.writeError(w, err, nil)
			return
		}
		s.writeJSON(w, http.StatusOK, tx)
	}
}

func (s *APIServer) deleteTransactionHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		err := s.transactions.SoftDelete(r.Context(), mux.Vars(r)["id"], sessionUser(r).ID)
		if err != nil {
			s.writeError(w, err, nil)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"message": "Transaction deleted"})
	}
}
