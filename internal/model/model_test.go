package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBilledHours(t *testing.T) {
	entry := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		elapsed time.Duration
		want    int64
	}{
		{"zero", 0, 0},
		{"negative clock skew", -time.Minute, 0},
		{"one second", time.Second, 1},
		{"exactly one hour", 60 * time.Minute, 1},
		{"sixty one minutes", 61 * time.Minute, 2},
		{"two hours five minutes", 125 * time.Minute, 3},
		{"full day", 24 * time.Hour, 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BilledHours(entry, entry.Add(tt.elapsed)))
		})
	}
}

func TestFee(t *testing.T) {
	entry := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, int64(300), Fee(entry, entry.Add(125*time.Minute), 100))
	assert.Equal(t, int64(100), Fee(entry, entry.Add(60*time.Minute), 100))
	assert.Equal(t, int64(200), Fee(entry, entry.Add(61*time.Minute), 100))
}

func TestFeeIsMonotonic(t *testing.T) {
	entry := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	prev := int64(0)
	for m := 0; m <= 600; m++ {
		fee := Fee(entry, entry.Add(time.Duration(m)*time.Minute), 100)
		assert.GreaterOrEqual(t, fee, prev, "minute %d", m)
		prev = fee
	}
}

func TestSlotFits(t *testing.T) {
	slot := &ParkingSlot{VehicleType: "Car", Size: "SMALL"}

	assert.True(t, slot.Fits(&Vehicle{VehicleType: VehicleCar, Size: SizeSmall}))
	assert.False(t, slot.Fits(&Vehicle{VehicleType: VehicleCar, Size: SizeLarge}))
	assert.False(t, slot.Fits(&Vehicle{VehicleType: VehicleTruck, Size: SizeSmall}))
}

func TestRequestEditableBy(t *testing.T) {
	req := &SlotRequest{UserID: "u1", RequestStatus: RequestPending}
	assert.True(t, req.EditableBy("u1"))
	assert.False(t, req.EditableBy("u2"))

	req.RequestStatus = RequestApproved
	assert.False(t, req.EditableBy("u1"))

	var missing *SlotRequest
	assert.False(t, missing.EditableBy("u1"))
}

func TestPageRequestNormalize(t *testing.T) {
	p := PageRequest{Page: 0, Limit: 0}.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPageLimit, p.Limit)
	assert.Equal(t, 0, p.Offset())

	p = PageRequest{Page: 3, Limit: 1000}.Normalize()
	assert.Equal(t, MaxPageLimit, p.Limit)
	assert.Equal(t, 200, p.Offset())

	p = PageRequest{Page: math.MaxInt, Limit: MaxPageLimit}.Normalize()
	assert.Equal(t, MaxPage, p.Page)
	assert.Positive(t, p.Offset())
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 0, TotalPages(5, 0))
}

func TestNewPageNeverNil(t *testing.T) {
	page := NewPage[Log](nil, 0, PageRequest{Page: 1, Limit: 10})
	assert.NotNil(t, page.Items)
	assert.Equal(t, 0, page.TotalPages)
}
