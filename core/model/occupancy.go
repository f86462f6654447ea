package model

import (
	"math"
	"time"
)

// FeatureNames lists the model inputs in column order.
var FeatureNames = []string{
	"street",
	"day_of_week",
	"hour_of_day",
	"month",
	"is_weekend",
	"hour_sin",
	"hour_cos",
}

// HourlyOccupancy is one observed (street, hour) occupancy count together
// with its derived calendar features.
type HourlyOccupancy struct {
	Street    string
	Hour      time.Time
	Occupancy int
	DayOfWeek int
	HourOfDay int
	Month     int
	IsWeekend int
	HourSin   float64
	HourCos   float64
}

// NewHourlyOccupancy derives the calendar features for a (street, hour)
// count. Monday is day 0, matching the training data layout.
func NewHourlyOccupancy(street string, hour time.Time, occupancy int) HourlyOccupancy {
	dow := (int(hour.Weekday()) + 6) % 7
	weekend := 0
	if dow >= 5 {
		weekend = 1
	}
	h := hour.Hour()
	return HourlyOccupancy{
		Street:    street,
		Hour:      hour,
		Occupancy: occupancy,
		DayOfWeek: dow,
		HourOfDay: h,
		Month:     int(hour.Month()),
		IsWeekend: weekend,
		HourSin:   math.Sin(2 * math.Pi * float64(h) / 24),
		HourCos:   math.Cos(2 * math.Pi * float64(h) / 24),
	}
}
