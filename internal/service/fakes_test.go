package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/parking-management/internal/apperr"
	"github.com/Shivanand-hulikatti/parking-management/internal/model"
	"github.com/Shivanand-hulikatti/parking-management/internal/repository"
)

var (
	admin = Actor{UserID: "admin-1", Username: "root", Role: model.RoleAdmin}
	alice = Actor{UserID: "user-1", Username: "alice", Role: model.RoleUser}
	bob   = Actor{UserID: "user-2", Username: "bob", Role: model.RoleUser}
)

func fixedClock(t time.Time) Clock { return func() time.Time { return t } }

type fakeUsers struct {
	mu     sync.Mutex
	byID   map[string]*model.User
	owners map[string][]string
	err    error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[string]*model.User{}, owners: map[string][]string{}}
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Username == u.Username {
			return apperr.Validationf("username already exists")
		}
	}
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, apperr.NotFoundf("user not found")
}

func (f *fakeUsers) GetByUsername(_ context.Context, name string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.byID {
		if u.Username == name {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.NotFoundf("user not found")
}

func (f *fakeUsers) FindOwnersByPlate(_ context.Context, plate string) ([]string, error) {
	return f.owners[plate], nil
}

func (f *fakeUsers) Update(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) List(_ context.Context, p model.PageRequest) ([]model.User, int, error) {
	var out []model.User
	for _, u := range f.byID {
		out = append(out, *u)
	}
	return out, len(out), nil
}

type fakeVehicles struct {
	byID  map[string]*model.Vehicle
	bound map[string]bool // vehicle ids with an approved request
}

func newFakeVehicles(vs ...model.Vehicle) *fakeVehicles {
	f := &fakeVehicles{byID: map[string]*model.Vehicle{}}
	for i := range vs {
		f.byID[vs[i].ID] = &vs[i]
	}
	return f
}

func (f *fakeVehicles) Create(_ context.Context, v *model.Vehicle) error {
	v.ID = uuid.New().String()
	f.byID[v.ID] = v
	return nil
}

func (f *fakeVehicles) GetByID(_ context.Context, id, userID string) (*model.Vehicle, error) {
	if v, ok := f.byID[id]; ok && v.UserID == userID {
		cp := *v
		return &cp, nil
	}
	return nil, apperr.NotFoundf("vehicle not found")
}

func (f *fakeVehicles) Update(_ context.Context, v *model.Vehicle) error {
	cur := f.byID[v.ID]
	if f.bound[v.ID] && (cur.VehicleType != v.VehicleType || cur.Size != v.Size) {
		return repository.ErrVehicleBound
	}
	f.byID[v.ID] = v
	return nil
}

func (f *fakeVehicles) Delete(_ context.Context, id, userID string) error {
	if v, ok := f.byID[id]; ok && v.UserID == userID {
		delete(f.byID, id)
		return nil
	}
	return apperr.NotFoundf("vehicle not found")
}

func (f *fakeVehicles) List(_ context.Context, userID string, _ model.PageRequest) ([]model.Vehicle, int, error) {
	var out []model.Vehicle
	for _, v := range f.byID {
		if v.UserID == userID {
			out = append(out, *v)
		}
	}
	return out, len(out), nil
}

type fakeSlots struct {
	created       []model.ParkingSlot
	onlyAvailable bool
	byID          map[string]*model.ParkingSlot
	updated       []model.ParkingSlot
}

func (f *fakeSlots) BulkCreate(_ context.Context, s []model.ParkingSlot) error {
	f.created = append(f.created, s...)
	return nil
}

func (f *fakeSlots) GetByID(_ context.Context, id string) (*model.ParkingSlot, error) {
	if s, ok := f.byID[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, apperr.NotFoundf("slot not found")
}

func (f *fakeSlots) Update(_ context.Context, s *model.ParkingSlot) error {
	f.updated = append(f.updated, *s)
	return nil
}
func (f *fakeSlots) Delete(context.Context, string) error               { return nil }

func (f *fakeSlots) List(_ context.Context, _ model.PageRequest, onlyAvailable bool) ([]model.ParkingSlot, int, error) {
	f.onlyAvailable = onlyAvailable
	return nil, 0, nil
}

type decideCall struct {
	id     string
	status model.RequestStatus
	slotID string
}

type fakeRequests struct {
	byID      map[string]*model.SlotRequest
	decisions []decideCall
	filter    repository.RequestFilter
	decideErr error
}

func newFakeRequests(rs ...model.SlotRequest) *fakeRequests {
	f := &fakeRequests{byID: map[string]*model.SlotRequest{}}
	for i := range rs {
		f.byID[rs[i].ID] = &rs[i]
	}
	return f
}

func (f *fakeRequests) Create(_ context.Context, r *model.SlotRequest) error {
	r.ID = uuid.New().String()
	r.RequestStatus = model.RequestPending
	f.byID[r.ID] = r
	return nil
}

func (f *fakeRequests) GetByID(_ context.Context, id string) (*model.SlotRequest, error) {
	if r, ok := f.byID[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, apperr.NotFoundf("slot request not found")
}

func (f *fakeRequests) List(_ context.Context, filter repository.RequestFilter, _ model.PageRequest) ([]model.SlotRequest, int, error) {
	f.filter = filter
	var out []model.SlotRequest
	for _, r := range f.byID {
		if filter.UserID == "" || r.UserID == filter.UserID {
			out = append(out, *r)
		}
	}
	return out, len(out), nil
}

func (f *fakeRequests) UpdateVehicle(_ context.Context, id, userID, vehicleID string) error {
	r, ok := f.byID[id]
	if !ok || !r.EditableBy(userID) {
		return apperr.NotFoundf("slot request not found or not editable")
	}
	r.VehicleID = vehicleID
	return nil
}

func (f *fakeRequests) Delete(_ context.Context, id, userID string) error {
	r, ok := f.byID[id]
	if !ok || !r.EditableBy(userID) {
		return apperr.NotFoundf("slot request not found or not editable")
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeRequests) Decide(_ context.Context, id string, status model.RequestStatus, slotID string) (*model.SlotRequest, error) {
	f.decisions = append(f.decisions, decideCall{id, status, slotID})
	if f.decideErr != nil {
		return nil, f.decideErr
	}
	r, ok := f.byID[id]
	if !ok {
		return nil, apperr.NotFoundf("slot request not found")
	}
	if r.RequestStatus != model.RequestPending {
		return nil, apperr.Conflictf("request already processed")
	}
	r.RequestStatus = status
	if slotID != "" {
		r.SlotID = &slotID
	}
	cp := *r
	return &cp, nil
}

type fakeParking struct {
	occupied []int
	openErrs []error
	opened   []model.ParkingRecord
	closedAt time.Time
	rate     int64
}

func (f *fakeParking) OccupiedSlots(context.Context) ([]int, error) { return f.occupied, nil }

func (f *fakeParking) Open(_ context.Context, p *model.ParkingRecord) error {
	if len(f.openErrs) > 0 {
		err := f.openErrs[0]
		f.openErrs = f.openErrs[1:]
		if err != nil {
			return err
		}
	}
	p.ID = uuid.New().String()
	f.opened = append(f.opened, *p)
	return nil
}

func (f *fakeParking) Close(_ context.Context, car string, at time.Time, rate int64) (*model.ExitResult, error) {
	for _, p := range f.opened {
		if p.CarNumber == car && p.IsOpen() {
			f.closedAt, f.rate = at, rate
			p.ExitTime = &at
			return &model.ExitResult{ParkingRecord: p, Amount: model.Fee(p.EntryTime, at, rate), PaymentID: "pay-1"}, nil
		}
	}
	return nil, apperr.NotFoundf("no active parking session for this car")
}

func (f *fakeParking) ListOpen(context.Context) ([]model.ParkingRecord, error) { return nil, nil }

func (f *fakeParking) History(_ context.Context, userID string, _ model.PageRequest) ([]model.ParkingRecord, int, error) {
	var out []model.ParkingRecord
	for _, p := range f.opened {
		if userID == "" || p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

type fakePayments struct {
	pending   map[string]int
	completed map[string]bool
}

func newFakePayments() *fakePayments {
	return &fakePayments{pending: map[string]int{}, completed: map[string]bool{}}
}

func (f *fakePayments) CountPending(_ context.Context, userID string) (int, error) {
	return f.pending[userID], nil
}

func (f *fakePayments) ListPending(context.Context, string) ([]model.Payment, error) { return nil, nil }
func (f *fakePayments) ListAll(context.Context) ([]model.Payment, error)             { return nil, nil }

func (f *fakePayments) Complete(_ context.Context, id, userID string, at time.Time) (*model.Payment, error) {
	if f.completed[id] {
		return nil, apperr.NotFoundf("payment not found or already completed")
	}
	f.completed[id] = true
	return &model.Payment{ID: id, UserID: userID, Status: model.PaymentCompleted, PaymentTime: &at}, nil
}

type fakeLogs struct {
	entries []model.Log
	err     error
}

func (f *fakeLogs) Create(ctx context.Context, l *model.Log) error {
	if f.err != nil {
		return f.err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	f.entries = append(f.entries, *l)
	return nil
}

func (f *fakeLogs) List(context.Context, model.PageRequest) ([]model.Log, int, error) {
	return f.entries, len(f.entries), nil
}

type recordingAuditor struct {
	mu      sync.Mutex
	actions []string
}

func (r *recordingAuditor) Record(_ context.Context, _ string, action string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, action)
}

type recordingNotifier struct {
	mu       sync.Mutex
	approved []model.SlotRequest
	to       []string
}

func (r *recordingNotifier) SlotApproved(u model.User, req model.SlotRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.approved = append(r.approved, req)
	r.to = append(r.to, u.Email)
}
