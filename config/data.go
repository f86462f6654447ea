package config

import "fmt"

// Month identifies one calendar month of transactions to download.
type Month struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// DataConfig defines the raw transaction download settings.
type DataConfig struct {
	// BaseURL is the Arlington open data endpoint for parking transactions.
	BaseURL string `json:"base_url"`
	// PageSize is the OData $top value per request.
	PageSize int `json:"page_size"`
	// RawDir receives the monthly CSV snapshots.
	RawDir string `json:"raw_dir"`
	// Months lists the calendar months included in training.
	Months []Month `json:"months"`
	// ForceDownload re-fetches months that already have a snapshot.
	ForceDownload bool `json:"force_download"`
	// MaxRetries bounds retries on server errors.
	MaxRetries int `json:"max_retries"`
	// TimeoutSeconds is the per-request HTTP timeout.
	TimeoutSeconds int `json:"timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *DataConfig) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://datahub-v2.arlingtonva.us/api/ParkingMeter/ParkingTransactions"
	}
	if c.PageSize == 0 {
		c.PageSize = 100000
	}
	if c.RawDir == "" {
		c.RawDir = "data/raw"
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 5
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 180
	}
}

// Validate checks mandatory fields.
func (c DataConfig) Validate() error {
	for _, m := range c.Months {
		if m.Year < 2000 || m.Month < 1 || m.Month > 12 {
			return fmt.Errorf("invalid month %04d-%02d", m.Year, m.Month)
		}
	}
	if c.PageSize < 1 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	return nil
}

// FeaturesConfig defines where processed datasets live.
type FeaturesConfig struct {
	ProcessedDir string `json:"processed_dir"`
	HourlyOutput string `json:"hourly_output"`
}

// SetDefaults applies sane defaults.
func (c *FeaturesConfig) SetDefaults() {
	if c.ProcessedDir == "" {
		c.ProcessedDir = "data/processed"
	}
	if c.HourlyOutput == "" {
		c.HourlyOutput = "parking_hourly_occupancy.csv"
	}
}
