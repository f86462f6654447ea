package model

import "time"

// Transaction is a single parking meter transaction as downloaded from the
// Arlington open data API. Times are normalized to UTC.
type Transaction struct {
	Street string
	Start  time.Time
	End    time.Time
}

// Valid reports whether the transaction can contribute to occupancy counts.
func (t Transaction) Valid() bool {
	return t.Street != "" && !t.Start.IsZero() && !t.End.IsZero() && t.End.After(t.Start)
}
