package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/parking-management/internal/model"
)

// CreateVehicle handles POST /vehicles
func (a *API) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	var req model.CreateVehicleRequest
	if err := a.decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	v, err := a.svc.Vehicles.Create(r.Context(), actorFrom(r.Context()), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// ListVehicles handles GET /vehicles
func (a *API) ListVehicles(w http.ResponseWriter, r *http.Request) {
	page, err := a.svc.Vehicles.List(r.Context(), actorFrom(r.Context()), pageRequest(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GetVehicle handles GET /vehicles/{id}
func (a *API) GetVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	v, err := a.svc.Vehicles.Get(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// UpdateVehicle handles PUT /vehicles/{id}
func (a *API) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	var req model.UpdateVehicleRequest
	if err := a.decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	v, err := a.svc.Vehicles.Update(r.Context(), actorFrom(r.Context()), id, req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// DeleteVehicle handles DELETE /vehicles/{id}
func (a *API) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	if err := a.svc.Vehicles.Delete(r.Context(), actorFrom(r.Context()), id); err != nil {
		a.fail(w, r, err)
		return
	}
	writeMessage(w, "vehicle deleted")
}

// BulkCreateSlots handles POST /slots/bulk
func (a *API) BulkCreateSlots(w http.ResponseWriter, r *http.Request) {
	var req model.BulkCreateSlotsRequest
	if err := a.decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	slots, err := a.svc.Slots.BulkCreate(r.Context(), actorFrom(r.Context()), req.Slots)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, slots)
}

// ListSlots handles GET /slots
func (a *API) ListSlots(w http.ResponseWriter, r *http.Request) {
	page, err := a.svc.Slots.List(r.Context(), actorFrom(r.Context()), pageRequest(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// UpdateSlot handles PUT /slots/{id}
func (a *API) UpdateSlot(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	var req model.UpdateSlotRequest
	if err := a.decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	slot, err := a.svc.Slots.Update(r.Context(), actorFrom(r.Context()), id, req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, slot)
}

// DeleteSlot handles DELETE /slots/{id}
func (a *API) DeleteSlot(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	if err := a.svc.Slots.Delete(r.Context(), actorFrom(r.Context()), id); err != nil {
		a.fail(w, r, err)
		return
	}
	writeMessage(w, "slot deleted")
}

// CreateRequest handles POST /requests
func (a *API) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var req model.CreateSlotRequestRequest
	if err := a.decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	sr, err := a.svc.Requests.Create(r.Context(), actorFrom(r.Context()), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sr)
}

// ListRequests handles GET /requests?status=
func (a *API) ListRequests(w http.ResponseWriter, r *http.Request) {
	status := model.RequestStatus(r.URL.Query().Get("status"))
	page, err := a.svc.Requests.List(r.Context(), actorFrom(r.Context()), status, pageRequest(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// UpdateRequest handles PUT /requests/{id}
func (a *API) UpdateRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	var req model.UpdateSlotRequestRequest
	if err := a.decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	sr, err := a.svc.Requests.Update(r.Context(), actorFrom(r.Context()), id, req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sr)
}

// DeleteRequest handles DELETE /requests/{id}
func (a *API) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	if err := a.svc.Requests.Delete(r.Context(), actorFrom(r.Context()), id); err != nil {
		a.fail(w, r, err)
		return
	}
	writeMessage(w, "slot request deleted")
}

// DecideRequest handles PUT /requests/{id}/status
func (a *API) DecideRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	var req model.DecideRequest
	if err := a.decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	sr, err := a.svc.Requests.Decide(r.Context(), actorFrom(r.Context()), id, req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sr)
}
