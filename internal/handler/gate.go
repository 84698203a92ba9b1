package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/parking-management/internal/model"
)

// RegisterEntry handles POST /parking/entry
// Opens a session for the car on a randomly assigned slot.
func (a *API) RegisterEntry(w http.ResponseWriter, r *http.Request) {
	var req model.EntryRequest
	if err := a.decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	rec, err := a.svc.Parking.RegisterEntry(r.Context(), actorFrom(r.Context()), req.CarNumber)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// RegisterExit handles POST /parking/exit
// Closes the car's session and returns it with the billed amount.
func (a *API) RegisterExit(w http.ResponseWriter, r *http.Request) {
	var req model.ExitRequest
	if err := a.decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	res, err := a.svc.Parking.RegisterExit(r.Context(), actorFrom(r.Context()), req.CarNumber)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// CurrentlyParked handles GET /parking/current
func (a *API) CurrentlyParked(w http.ResponseWriter, r *http.Request) {
	records, err := a.svc.Parking.CurrentlyParked(r.Context(), actorFrom(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// ParkingHistory handles GET /parking/history
func (a *API) ParkingHistory(w http.ResponseWriter, r *http.Request) {
	page, err := a.svc.Parking.History(r.Context(), actorFrom(r.Context()), pageRequest(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// PendingPayments handles GET /payments/view
func (a *API) PendingPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := a.svc.Payments.ListPending(r.Context(), actorFrom(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

// Pay handles POST /payments/pay
func (a *API) Pay(w http.ResponseWriter, r *http.Request) {
	var req model.PayRequest
	if err := a.decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	p, err := a.svc.Payments.Pay(r.Context(), actorFrom(r.Context()), req.PaymentID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// AllPayments handles GET /payments/all
func (a *API) AllPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := a.svc.Payments.ListAll(r.Context(), actorFrom(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}
