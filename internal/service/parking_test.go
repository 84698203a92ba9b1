package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/parking-management/internal/apperr"
	"github.com/Shivanand-hulikatti/parking-management/internal/model"
	"github.com/Shivanand-hulikatti/parking-management/internal/repository"
)

var entryTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type parkingFixture struct {
	svc      *ParkingService
	users    *fakeUsers
	parking  *fakeParking
	payments *fakePayments
}

func newParkingFixture(t *testing.T, totalSlots int) parkingFixture {
	t.Helper()
	f := parkingFixture{
		users:    newFakeUsers(),
		parking:  &fakeParking{},
		payments: newFakePayments(),
	}
	f.users.owners["AB123"] = []string{alice.UserID}
	f.svc = NewParkingService(f.users, f.parking, f.payments, &recordingAuditor{}, 100, totalSlots)
	f.svc.now = fixedClock(entryTime)
	return f
}

func TestEntryResolvesOwnerByPlate(t *testing.T) {
	f := newParkingFixture(t, 10)

	rec, err := f.svc.RegisterEntry(context.Background(), admin, " ab123 ")
	require.NoError(t, err)

	assert.Equal(t, alice.UserID, rec.UserID)
	assert.Equal(t, "AB123", rec.CarNumber)
	assert.Equal(t, entryTime, rec.EntryTime)
	assert.True(t, rec.IsOpen())
	assert.GreaterOrEqual(t, rec.SlotNumber, 1)
	assert.LessOrEqual(t, rec.SlotNumber, 10)
}

func TestEntryRejections(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f parkingFixture)
		car   string
		want  error
	}{
		{"unknown plate", func(parkingFixture) {}, "ZZ999", apperr.ErrValidation},
		{"ambiguous plate", func(f parkingFixture) { f.users.owners["AB123"] = []string{"u1", "u2"} }, "AB123", apperr.ErrValidation},
		{"unpaid dues", func(f parkingFixture) { f.payments.pending[alice.UserID] = 1 }, "AB123", apperr.ErrForbidden},
		{"lot full", func(f parkingFixture) { f.parking.occupied = []int{1, 2, 3} }, "AB123", apperr.ErrValidation},
		{"already parked", func(f parkingFixture) { f.parking.openErrs = []error{repository.ErrCarParked} }, "AB123", apperr.ErrConflict},
		{"empty plate", func(parkingFixture) {}, "  ", apperr.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newParkingFixture(t, 3)
			tt.setup(f)
			_, err := f.svc.RegisterEntry(context.Background(), admin, tt.car)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, f.parking.opened)
		})
	}
}

func TestEntryRequiresAdmin(t *testing.T) {
	f := newParkingFixture(t, 3)
	_, err := f.svc.RegisterEntry(context.Background(), alice, "AB123")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestEntryPicksOnlyFreeSlots(t *testing.T) {
	f := newParkingFixture(t, 5)
	f.parking.occupied = []int{1, 2, 4}

	var domain []int
	f.svc.intn = func(n int) int {
		domain = append(domain, n)
		return n - 1
	}

	rec, err := f.svc.RegisterEntry(context.Background(), admin, "AB123")
	require.NoError(t, err)
	assert.Equal(t, []int{2}, domain, "choice is drawn from the two free slots")
	assert.Equal(t, 5, rec.SlotNumber)
}

func TestEntryCoversEveryFreeSlot(t *testing.T) {
	f := newParkingFixture(t, 4)
	f.parking.occupied = []int{3}

	seen := map[int]bool{}
	for i := range 3 {
		f.svc.intn = func(int) int { return i }
		f.parking.opened = nil
		rec, err := f.svc.RegisterEntry(context.Background(), admin, "AB123")
		require.NoError(t, err)
		seen[rec.SlotNumber] = true
	}
	assert.Equal(t, map[int]bool{1: true, 2: true, 4: true}, seen)
}

func TestEntryRetriesLostSlotRace(t *testing.T) {
	f := newParkingFixture(t, 10)
	f.parking.openErrs = []error{repository.ErrSlotTaken, repository.ErrSlotTaken}

	rec, err := f.svc.RegisterEntry(context.Background(), admin, "AB123")
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Len(t, f.parking.opened, 1)
}

func TestEntryGivesUpAfterRepeatedSlotRaces(t *testing.T) {
	f := newParkingFixture(t, 10)
	for range maxSlotAttempts {
		f.parking.openErrs = append(f.parking.openErrs, repository.ErrSlotTaken)
	}

	_, err := f.svc.RegisterEntry(context.Background(), admin, "AB123")
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestExitBillsStartedHours(t *testing.T) {
	f := newParkingFixture(t, 10)
	ctx := context.Background()
	_, err := f.svc.RegisterEntry(ctx, admin, "AB123")
	require.NoError(t, err)

	exit := entryTime.Add(125 * time.Minute)
	f.svc.now = fixedClock(exit)

	res, err := f.svc.RegisterExit(ctx, admin, "ab123")
	require.NoError(t, err)
	assert.Equal(t, int64(300), res.Amount)
	assert.Equal(t, exit, f.parking.closedAt)
	assert.Equal(t, int64(100), f.parking.rate)
	require.NotNil(t, res.ExitTime)
}

func TestExitWithoutSessionIsNotFound(t *testing.T) {
	f := newParkingFixture(t, 10)
	_, err := f.svc.RegisterExit(context.Background(), admin, "AB123")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestHistoryScope(t *testing.T) {
	f := newParkingFixture(t, 10)
	f.parking.opened = []model.ParkingRecord{
		{ID: "p1", UserID: alice.UserID},
		{ID: "p2", UserID: bob.UserID},
	}

	page, err := f.svc.History(context.Background(), alice, model.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalItems)

	page, err = f.svc.History(context.Background(), admin, model.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalItems)
}

func TestCurrentlyParkedNeverReturnsNil(t *testing.T) {
	f := newParkingFixture(t, 10)
	records, err := f.svc.CurrentlyParked(context.Background(), admin)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}
