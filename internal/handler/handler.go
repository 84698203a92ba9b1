// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/parking-management/internal/apperr"
	"github.com/Shivanand-hulikatti/parking-management/internal/model"
	"github.com/Shivanand-hulikatti/parking-management/internal/service"
)

// Service contracts consumed by the handlers. The service package provides
// the implementations; tests substitute stubs.

type AuthService interface {
	Register(ctx context.Context, caller service.Actor, req model.RegisterUserRequest) (*model.User, error)
	Login(ctx context.Context, username, password string) (*model.LoginResponse, error)
	ValidateToken(token string) (service.Actor, error)
}

type UserService interface {
	Me(ctx context.Context, a service.Actor) (*model.User, error)
	UpdateProfile(ctx context.Context, a service.Actor, req model.UpdateProfileRequest) (*model.User, error)
	List(ctx context.Context, a service.Actor, p model.PageRequest) (model.Page[model.User], error)
}

type VehicleService interface {
	Create(ctx context.Context, a service.Actor, req model.CreateVehicleRequest) (*model.Vehicle, error)
	Get(ctx context.Context, a service.Actor, id string) (*model.Vehicle, error)
	Update(ctx context.Context, a service.Actor, id string, req model.UpdateVehicleRequest) (*model.Vehicle, error)
	Delete(ctx context.Context, a service.Actor, id string) error
	List(ctx context.Context, a service.Actor, p model.PageRequest) (model.Page[model.Vehicle], error)
}

type SlotService interface {
	BulkCreate(ctx context.Context, a service.Actor, in []model.SlotInput) ([]model.ParkingSlot, error)
	List(ctx context.Context, a service.Actor, p model.PageRequest) (model.Page[model.ParkingSlot], error)
	Update(ctx context.Context, a service.Actor, id string, req model.UpdateSlotRequest) (*model.ParkingSlot, error)
	Delete(ctx context.Context, a service.Actor, id string) error
}

type RequestService interface {
	Create(ctx context.Context, a service.Actor, req model.CreateSlotRequestRequest) (*model.SlotRequest, error)
	Update(ctx context.Context, a service.Actor, id string, req model.UpdateSlotRequestRequest) (*model.SlotRequest, error)
	Delete(ctx context.Context, a service.Actor, id string) error
	Decide(ctx context.Context, a service.Actor, id string, req model.DecideRequest) (*model.SlotRequest, error)
	List(ctx context.Context, a service.Actor, status model.RequestStatus, p model.PageRequest) (model.Page[model.SlotRequest], error)
}

type ParkingService interface {
	RegisterEntry(ctx context.Context, a service.Actor, carNumber string) (*model.ParkingRecord, error)
	RegisterExit(ctx context.Context, a service.Actor, carNumber string) (*model.ExitResult, error)
	CurrentlyParked(ctx context.Context, a service.Actor) ([]model.ParkingRecord, error)
	History(ctx context.Context, a service.Actor, p model.PageRequest) (model.Page[model.ParkingRecord], error)
}

type PaymentService interface {
	ListPending(ctx context.Context, a service.Actor) ([]model.Payment, error)
	Pay(ctx context.Context, a service.Actor, paymentID string) (*model.Payment, error)
	ListAll(ctx context.Context, a service.Actor) ([]model.Payment, error)
}

type AuditService interface {
	List(ctx context.Context, a service.Actor, p model.PageRequest) (model.Page[model.Log], error)
}

// Pinger reports database reachability for /ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles the dependencies of API.
type Services struct {
	Auth     AuthService
	Users    UserService
	Vehicles VehicleService
	Slots    SlotService
	Requests RequestService
	Parking  ParkingService
	Payments PaymentService
	Audit    AuditService
	DB       Pinger
}

// API holds all HTTP handlers for the parking API.
type API struct {
	svc          Services
	log          logrus.FieldLogger
	maxBodyBytes int64
}

// NewAPI constructs an API.
func NewAPI(svc Services, log logrus.FieldLogger, maxBodyBytes int64) *API {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	return &API{svc: svc, log: log, maxBodyBytes: maxBodyBytes}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func writeMessage(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

// fail maps err to a status code by its apperr kind. Internal errors are
// logged and replaced with a generic message.
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind == apperr.Internal {
		a.log.WithError(err).WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
		}).Error("request failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Kind {
	case apperr.Validation:
		status = http.StatusBadRequest
	case apperr.Auth:
		status = http.StatusUnauthorized
	case apperr.Forbidden:
		status = http.StatusForbidden
	case apperr.NotFound:
		status = http.StatusNotFound
	case apperr.Conflict:
		status = http.StatusConflict
	}
	writeJSON(w, status, model.ErrorResponse{Error: appErr.Msg, Fields: appErr.Fields})
}

// decode reads a JSON body into dst and validates it.
func (a *API) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, a.maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Wrap(apperr.Validation, "invalid request body: "+err.Error(), err)
	}
	return validateStruct(dst)
}

// pageRequest reads page, limit and search from the query string. Missing or
// malformed numbers fall back to defaults.
func pageRequest(r *http.Request) model.PageRequest {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return model.PageRequest{Page: page, Limit: limit, Search: q.Get("search")}.Normalize()
}

// pathID returns the {id} URL parameter. Every entity key is a UUID, so
// anything else is rejected before it reaches the store.
func pathID(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", apperr.Invalid(map[string]string{"id": "must be a valid UUID"})
	}
	return id.String(), nil
}
