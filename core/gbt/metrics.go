package gbt

import "math"

// RMSE computes the root mean squared error between observed and predicted
// values. Empty inputs yield zero.
func RMSE(y, pred []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	sum := 0.0
	for i := range y {
		d := y[i] - pred[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(y)))
}

// MAE computes the mean absolute error.
func MAE(y, pred []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	sum := 0.0
	for i := range y {
		sum += math.Abs(y[i] - pred[i])
	}
	return sum / float64(len(y))
}

// Evaluate returns RMSE and MAE for the booster on a dataset.
func (b *Booster) Evaluate(xs [][]float64, y []float64) map[string]float64 {
	pred := b.PredictBatch(xs)
	return map[string]float64{
		"rmse": RMSE(y, pred),
		"mae":  MAE(y, pred),
	}
}
