package gbt

import "fmt"

// Params defines the boosting hyperparameters loaded from configuration.
type Params struct {
	// NumRounds caps the number of boosting iterations.
	NumRounds int `json:"num_rounds"`
	// EarlyStopping stops training after this many rounds without
	// validation RMSE improvement. Zero disables early stopping.
	EarlyStopping int `json:"early_stopping"`
	// LearningRate shrinks each tree's contribution.
	LearningRate float64 `json:"learning_rate"`
	// MaxDepth limits tree depth.
	MaxDepth int `json:"max_depth"`
	// MinSamplesLeaf is the minimum row count per leaf.
	MinSamplesLeaf int `json:"min_samples_leaf"`
	// Lambda is the L2 regularization applied to leaf values.
	Lambda float64 `json:"lambda"`
}

// SetDefaults applies sane defaults.
func (p *Params) SetDefaults() {
	if p.NumRounds == 0 {
		p.NumRounds = 1000
	}
	if p.EarlyStopping == 0 {
		p.EarlyStopping = 50
	}
	if p.LearningRate == 0 {
		p.LearningRate = 0.1
	}
	if p.MaxDepth == 0 {
		p.MaxDepth = 6
	}
	if p.MinSamplesLeaf == 0 {
		p.MinSamplesLeaf = 20
	}
	if p.Lambda == 0 {
		p.Lambda = 1.0
	}
}

// Validate checks mandatory fields.
func (p Params) Validate() error {
	if p.NumRounds < 1 {
		return fmt.Errorf("num_rounds must be positive, got %d", p.NumRounds)
	}
	if p.LearningRate <= 0 || p.LearningRate > 1 {
		return fmt.Errorf("learning_rate must be in (0, 1], got %g", p.LearningRate)
	}
	if p.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be positive, got %d", p.MaxDepth)
	}
	if p.MinSamplesLeaf < 1 {
		return fmt.Errorf("min_samples_leaf must be positive, got %d", p.MinSamplesLeaf)
	}
	if p.Lambda < 0 {
		return fmt.Errorf("lambda must be non-negative, got %g", p.Lambda)
	}
	return nil
}
