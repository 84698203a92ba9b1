//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Shivanand-hulikatti/parking-management/internal/apperr"
	"github.com/Shivanand-hulikatti/parking-management/internal/config"
	"github.com/Shivanand-hulikatti/parking-management/internal/database"
	"github.com/Shivanand-hulikatti/parking-management/internal/model"
	"github.com/Shivanand-hulikatti/parking-management/internal/repository"
)

var pool *pgxpool.Pool

func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	ctx := context.Background()

	pg, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("parking"),
		postgres.WithUsername("parking"),
		postgres.WithPassword("parking"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "start postgres: %v\n", err)
		return 1
	}
	defer func() { _ = pg.Terminate(ctx) }()

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		fmt.Fprintf(os.Stderr, "connection string: %v\n", err)
		return 1
	}
	if err := database.MigrateUp(config.DatabaseConfig{URL: dsn}.MigrateURL()); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		return 1
	}

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	pool, err = database.NewPool(ctx, dsn, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pool: %v\n", err)
		return 1
	}
	defer pool.Close()

	return m.Run()
}

func reset(t *testing.T) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`TRUNCATE logs, payments, parking_records, slot_requests, parking_slots, vehicles, users`)
	require.NoError(t, err)
}

func seedUser(t *testing.T, username string, plate *string) *model.User {
	t.Helper()
	u := &model.User{Username: username, PasswordHash: "x", Role: model.RoleUser, PlateNumber: plate}
	require.NoError(t, repository.NewUserRepository(pool).Create(context.Background(), u))
	return u
}

func seedVehicle(t *testing.T, userID, plate string) *model.Vehicle {
	t.Helper()
	v := &model.Vehicle{UserID: userID, PlateNumber: plate, VehicleType: model.VehicleCar, Size: model.SizeMedium}
	require.NoError(t, repository.NewVehicleRepository(pool).Create(context.Background(), v))
	return v
}

func seedSlot(t *testing.T, number string) *model.ParkingSlot {
	t.Helper()
	slots := []model.ParkingSlot{{
		SlotNumber: number, Size: model.SizeMedium, VehicleType: model.VehicleCar, Location: model.LocationNorth,
	}}
	require.NoError(t, repository.NewSlotRepository(pool).BulkCreate(context.Background(), slots))
	return &slots[0]
}

func ptr(s string) *string { return &s }

func TestDecideApprovesOnce(t *testing.T) {
	reset(t)
	ctx := context.Background()
	requests := repository.NewRequestRepository(pool)

	u := seedUser(t, "alice", nil)
	v := seedVehicle(t, u.ID, "KA01AB1234")
	slot := seedSlot(t, "A-1")

	req := &model.SlotRequest{UserID: u.ID, VehicleID: v.ID}
	require.NoError(t, requests.Create(ctx, req))

	got, err := requests.Decide(ctx, req.ID, model.RequestApproved, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestApproved, got.RequestStatus)
	require.NotNil(t, got.Slot)
	assert.Equal(t, model.SlotUnavailable, got.Slot.Status)

	_, err = requests.Decide(ctx, req.ID, model.RequestRejected, "")
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))

	err = requests.UpdateVehicle(ctx, req.ID, u.ID, v.ID)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err), "decided requests are no longer editable")
}

func TestDecideRejectsMismatchedSlot(t *testing.T) {
	reset(t)
	ctx := context.Background()
	requests := repository.NewRequestRepository(pool)

	u := seedUser(t, "alice", nil)
	v := seedVehicle(t, u.ID, "KA01AB1234")
	slots := []model.ParkingSlot{{
		SlotNumber: "T-1", Size: model.SizeLarge, VehicleType: model.VehicleTruck, Location: model.LocationEast,
	}}
	require.NoError(t, repository.NewSlotRepository(pool).BulkCreate(ctx, slots))

	req := &model.SlotRequest{UserID: u.ID, VehicleID: v.ID}
	require.NoError(t, requests.Create(ctx, req))

	_, err := requests.Decide(ctx, req.ID, model.RequestApproved, slots[0].ID)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	still, err := requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, still.RequestStatus)
}

func TestConcurrentApprovalsGrantSlotOnce(t *testing.T) {
	reset(t)
	ctx := context.Background()
	requests := repository.NewRequestRepository(pool)
	slot := seedSlot(t, "A-1")

	const n = 5
	ids := make([]string, n)
	for i := range ids {
		u := seedUser(t, fmt.Sprintf("user%d", i), nil)
		v := seedVehicle(t, u.ID, fmt.Sprintf("KA01AB%04d", i))
		req := &model.SlotRequest{UserID: u.ID, VehicleID: v.ID}
		require.NoError(t, requests.Create(ctx, req))
		ids[i] = req.ID
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		approved int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := requests.Decide(ctx, id, model.RequestApproved, slot.ID); err == nil {
				mu.Lock()
				approved++
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 1, approved)
}

func TestParkingSessionLifecycle(t *testing.T) {
	reset(t)
	ctx := context.Background()
	parking := repository.NewParkingRepository(pool)
	payments := repository.NewPaymentRepository(pool)

	u := seedUser(t, "alice", ptr("KA01AB1234"))
	entry := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	rec := &model.ParkingRecord{UserID: u.ID, CarNumber: "KA01AB1234", SlotNumber: 7, EntryTime: entry}
	require.NoError(t, parking.Open(ctx, rec))

	again := &model.ParkingRecord{UserID: u.ID, CarNumber: "KA01AB1234", SlotNumber: 8, EntryTime: entry}
	assert.ErrorIs(t, parking.Open(ctx, again), repository.ErrCarParked)

	other := seedUser(t, "bob", ptr("KA02CD5678"))
	clash := &model.ParkingRecord{UserID: other.ID, CarNumber: "KA02CD5678", SlotNumber: 7, EntryTime: entry}
	assert.ErrorIs(t, parking.Open(ctx, clash), repository.ErrSlotTaken)

	occupied, err := parking.OccupiedSlots(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{7}, occupied)

	res, err := parking.Close(ctx, "KA01AB1234", entry.Add(125*time.Minute), 100)
	require.NoError(t, err)
	assert.Equal(t, int64(300), res.Amount)

	_, err = parking.Close(ctx, "KA01AB1234", entry.Add(3*time.Hour), 100)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))

	count, err := payments.CountPending(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	paid, err := payments.Complete(ctx, res.PaymentID, u.ID, entry.Add(4*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCompleted, paid.Status)

	_, err = payments.Complete(ctx, res.PaymentID, u.ID, entry.Add(5*time.Hour))
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))

	history, total, err := parking.History(ctx, u.ID, model.PageRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, history, 1)
	assert.False(t, history[0].IsOpen())
}

func TestExitNeverPrecedesEntry(t *testing.T) {
	reset(t)
	ctx := context.Background()
	parking := repository.NewParkingRepository(pool)

	u := seedUser(t, "alice", ptr("KA01AB1234"))
	entry := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, parking.Open(ctx, &model.ParkingRecord{
		UserID: u.ID, CarNumber: "KA01AB1234", SlotNumber: 1, EntryTime: entry,
	}))

	res, err := parking.Close(ctx, "KA01AB1234", entry.Add(-time.Minute), 100)
	require.NoError(t, err)
	require.NotNil(t, res.ExitTime)
	assert.True(t, res.ExitTime.Equal(entry))
	assert.Equal(t, int64(0), res.Amount)
}

func TestConcurrentEntriesOpenOneSession(t *testing.T) {
	reset(t)
	ctx := context.Background()
	parking := repository.NewParkingRepository(pool)
	u := seedUser(t, "alice", ptr("KA01AB1234"))

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = parking.Open(ctx, &model.ParkingRecord{
				UserID: u.ID, CarNumber: "KA01AB1234", SlotNumber: i + 1, EntryTime: time.Now().UTC(),
			})
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, repository.ErrCarParked)
		}
	}
	assert.Equal(t, 1, ok)
}

func TestUserUniquenessAndOwnerLookup(t *testing.T) {
	reset(t)
	ctx := context.Background()
	users := repository.NewUserRepository(pool)

	alice := seedUser(t, "alice", ptr("KA01AB1234"))
	err := users.Create(ctx, &model.User{Username: "alice", PasswordHash: "x", Role: model.RoleUser})
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	seedVehicle(t, alice.ID, "KA09ZZ0001")
	owners, err := users.FindOwnersByPlate(ctx, "KA09ZZ0001")
	require.NoError(t, err)
	assert.Equal(t, []string{alice.ID}, owners)

	owners, err = users.FindOwnersByPlate(ctx, "NOPE")
	require.NoError(t, err)
	assert.Empty(t, owners)
}

func TestSlotListPaginationAndReferences(t *testing.T) {
	reset(t)
	ctx := context.Background()
	slotsRepo := repository.NewSlotRepository(pool)

	batch := make([]model.ParkingSlot, 12)
	for i := range batch {
		batch[i] = model.ParkingSlot{
			SlotNumber: fmt.Sprintf("B-%02d", i+1), Size: model.SizeSmall,
			VehicleType: model.VehicleMotorcycle, Location: model.LocationWest,
		}
	}
	require.NoError(t, slotsRepo.BulkCreate(ctx, batch))

	page, total, err := slotsRepo.List(ctx, model.PageRequest{Page: 2, Limit: 5}, false)
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	assert.Len(t, page, 5)

	dup := []model.ParkingSlot{{
		SlotNumber: "B-01", Size: model.SizeSmall, VehicleType: model.VehicleMotorcycle, Location: model.LocationWest,
	}}
	err = slotsRepo.BulkCreate(ctx, dup)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	u := seedUser(t, "alice", nil)
	v := &model.Vehicle{UserID: u.ID, PlateNumber: "KA01MC0001", VehicleType: model.VehicleMotorcycle, Size: model.SizeSmall}
	require.NoError(t, repository.NewVehicleRepository(pool).Create(ctx, v))
	requests := repository.NewRequestRepository(pool)
	req := &model.SlotRequest{UserID: u.ID, VehicleID: v.ID}
	require.NoError(t, requests.Create(ctx, req))
	_, err = requests.Decide(ctx, req.ID, model.RequestApproved, batch[0].ID)
	require.NoError(t, err)

	err = slotsRepo.Delete(ctx, batch[0].ID)
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))

	available, total, err := slotsRepo.List(ctx, model.PageRequest{Page: 1, Limit: 100}, true)
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	assert.Len(t, available, 11)
}

func TestApprovedMatchCannotBeEditedAway(t *testing.T) {
	reset(t)
	ctx := context.Background()
	vehicles := repository.NewVehicleRepository(pool)
	slotsRepo := repository.NewSlotRepository(pool)
	requests := repository.NewRequestRepository(pool)

	u := seedUser(t, "alice", nil)
	v := seedVehicle(t, u.ID, "KA01AB1234")
	slot := seedSlot(t, "A-1")
	free := seedSlot(t, "A-2")

	req := &model.SlotRequest{UserID: u.ID, VehicleID: v.ID}
	require.NoError(t, requests.Create(ctx, req))
	_, err := requests.Decide(ctx, req.ID, model.RequestApproved, slot.ID)
	require.NoError(t, err)

	edited := *v
	edited.VehicleType, edited.Size = model.VehicleTruck, model.SizeLarge
	assert.ErrorIs(t, vehicles.Update(ctx, &edited), repository.ErrVehicleBound)

	edited = *v
	edited.PlateNumber = "KA01AB9999"
	require.NoError(t, vehicles.Update(ctx, &edited), "plate stays editable")

	grown := *slot
	grown.Size = model.SizeLarge
	assert.ErrorIs(t, slotsRepo.Update(ctx, &grown), repository.ErrSlotBound)

	renamed := *slot
	renamed.SlotNumber = "A-1X"
	require.NoError(t, slotsRepo.Update(ctx, &renamed))

	grownFree := *free
	grownFree.Size = model.SizeLarge
	require.NoError(t, slotsRepo.Update(ctx, &grownFree))

	ghost := *free
	ghost.ID = "00000000-0000-4000-8000-000000000000"
	assert.Equal(t, apperr.NotFound, apperr.KindOf(slotsRepo.Update(ctx, &ghost)))

	got, err := requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Slot)
	assert.True(t, got.Slot.Fits(got.Vehicle))
}

func TestVehicleEditRacingApprovalKeepsMatch(t *testing.T) {
	reset(t)
	ctx := context.Background()
	vehicles := repository.NewVehicleRepository(pool)
	requests := repository.NewRequestRepository(pool)

	for i := 0; i < 10; i++ {
		u := seedUser(t, fmt.Sprintf("racer%d", i), nil)
		v := seedVehicle(t, u.ID, fmt.Sprintf("KA05RC%04d", i))
		slot := seedSlot(t, fmt.Sprintf("R-%d", i))
		req := &model.SlotRequest{UserID: u.ID, VehicleID: v.ID}
		require.NoError(t, requests.Create(ctx, req))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = requests.Decide(ctx, req.ID, model.RequestApproved, slot.ID)
		}()
		go func() {
			defer wg.Done()
			edited := *v
			edited.VehicleType, edited.Size = model.VehicleTruck, model.SizeLarge
			_ = vehicles.Update(ctx, &edited)
		}()
		wg.Wait()

		got, err := requests.GetByID(ctx, req.ID)
		require.NoError(t, err)
		if got.RequestStatus == model.RequestApproved {
			assert.True(t, got.Slot.Fits(got.Vehicle), "round %d", i)
		}
	}
}
