package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Yoyzhao/CampusIdle/internal/domain/models"
)

type AuthRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *APIServer) registerHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AuthRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, errors.New("malformed request body"), models.ErrValidation)
			return
		}

		user, token, err := s.users.Register(r.Context(), req.Username, req.Password)
		if err != nil {
			s.writeError(w, err, nil)
			return
		}
		s.writeJSON(w, http.StatusCreated, AuthResponse{Token: token, User: user})
	}
}

func (s *APIServer) loginHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AuthRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, errors.New("malformed request body"), models.ErrValidation)
			return
		}

		user, token, err := s.users.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			s.writeError(w, err, nil)
			return
		}
		s.writeJSON(w, http.StatusOK, AuthResponse{Token: token, User: user})
	}
}

func (s *APIServer) logoutHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.users.Logout(r.Context(), sessionUser(r).ID); err != nil {
			s.writeError(w, err, nil)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
	}
}
