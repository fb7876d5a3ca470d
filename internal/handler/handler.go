package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/ialvarenga/financial-management-sub001/internal/csvimport"
	"github.com/ialvarenga/financial-management-sub001/internal/models"
	"github.com/ialvarenga/financial-management-sub001/internal/notifications"
	"github.com/ialvarenga/financial-management-sub001/internal/service"
)

type Handler struct {
	svc      *service.Service
	parsers  *notifications.Registry
	importer *csvimport.Importer
	log      *logrus.Logger
}

func NewHandler(svc *service.Service, parsers *notifications.Registry, log *logrus.Logger) *Handler {
	return &Handler{
		svc:      svc,
		parsers:  parsers,
		importer: csvimport.NewImporter(svc),
		log:      log,
	}
}

func (h *Handler) respondJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			h.log.Errorf("Failed to encode response: %v", err)
		}
	}
}

func (h *Handler) respondError(w http.ResponseWriter, code int, message string) {
	h.respondJSON(w, code, map[string]string{"error": message})
}

// serviceError maps service errors onto HTTP status codes.
func (h *Handler) serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		h.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrInvalidPeriod):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrInconsistentState):
		h.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrStorageUnavailable):
		h.respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)[name], 10, 64)
}

func parsePositiveInt(raw string) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if v < 1 {
		return 0, strconv.ErrRange
	}
	return v, nil
}

// queryDate reads a YYYY-MM-DD query parameter, defaulting to now.
func queryDate(r *http.Request, name string, fallback time.Time) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return time.Parse("2006-01-02", raw)
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.svc.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respondJSON(w, http.StatusCreated, user)
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// CreateAccount handles account creation
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string `json:"name"`
		Bank         string `json:"bank"`
		BalanceCents int64  `json:"balance_cents"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	account, err := h.svc.CreateAccount(r.Context(), req.Name, req.Bank, req.BalanceCents)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respondJSON(w, http.StatusCreated, account)
}

// ListAccounts returns all accounts
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.svc.ListAccounts(r.Context())
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, accounts)
}

// CreateCard handles credit card creation
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string `json:"name"`
		Bank       string `json:"bank"`
		LastFour   string `json:"last_four"`
		ClosingDay int    `json:"closing_day"`
		DueDay     int    `json:"due_day"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	card, err := h.svc.CreateCard(r.Context(), req.Name, req.Bank, req.LastFour, req.ClosingDay, req.DueDay)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respondJSON(w, http.StatusCreated, card)
}

// ListCards returns all active credit cards
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.svc.ListCards(r.Context())
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, cards)
}
