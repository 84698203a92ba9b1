package model

import "time"

// BilledHours returns the number of started hours between entry and exit.
// Any partial hour counts as a full one; a non-positive duration bills zero.
func BilledHours(entry, exit time.Time) int64 {
	elapsed := exit.Sub(entry)
	if elapsed <= 0 {
		return 0
	}
	hours := int64(elapsed / time.Hour)
	if elapsed%time.Hour != 0 {
		hours++
	}
	return hours
}

// Fee returns the amount owed for a session at the given hourly rate.
func Fee(entry, exit time.Time, ratePerHour int64) int64 {
	return BilledHours(entry, exit) * ratePerHour
}
