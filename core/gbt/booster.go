package gbt

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/meterwise/hotspot/core/logger"
)

// Booster is a gradient-boosted ensemble of regression trees trained on
// squared error.
type Booster struct {
	BaseScore     float64   `json:"base_score"`
	LearningRate  float64   `json:"learning_rate"`
	BestIteration int       `json:"best_iteration"`
	FeatureNames  []string  `json:"feature_names"`
	Trees         []Tree    `json:"trees"`
	Gain          []float64 `json:"gain"`
	Split         []int     `json:"split"`
}

// ErrEmptyDataset indicates training was attempted without rows.
var ErrEmptyDataset = errors.New("gbt: empty training set")

// Train fits the booster with validation-based early stopping. Validation
// RMSE is evaluated after every round; the iteration with the lowest value
// is retained as BestIteration.
func Train(xTrain [][]float64, yTrain []float64, xVal [][]float64, yVal []float64, featureNames []string, params Params, log logger.Logger) (*Booster, error) {
	if len(xTrain) == 0 {
		return nil, ErrEmptyDataset
	}
	params.SetDefaults()
	if err := params.Validate(); err != nil {
		return nil, err
	}

	nFeatures := len(xTrain[0])
	b := &Booster{
		BaseScore:    stat.Mean(yTrain, nil),
		LearningRate: params.LearningRate,
		FeatureNames: featureNames,
		Gain:         make([]float64, nFeatures),
		Split:        make([]int, nFeatures),
	}

	predTrain := constant(len(xTrain), b.BaseScore)
	predVal := constant(len(xVal), b.BaseScore)
	grad := make([]float64, len(xTrain))

	bestRMSE := math.Inf(1)
	sinceBest := 0
	for round := 0; round < params.NumRounds; round++ {
		for i := range grad {
			grad[i] = yTrain[i] - predTrain[i]
		}
		tree := growTree(xTrain, grad, params, b.Gain, b.Split)
		b.Trees = append(b.Trees, tree)
		for i, x := range xTrain {
			predTrain[i] += params.LearningRate * tree.Predict(x)
		}
		for i, x := range xVal {
			predVal[i] += params.LearningRate * tree.Predict(x)
		}

		valRMSE := RMSE(yVal, predVal)
		if valRMSE < bestRMSE {
			bestRMSE = valRMSE
			b.BestIteration = round + 1
			sinceBest = 0
		} else {
			sinceBest++
		}
		if log != nil && (round+1)%50 == 0 {
			log.Infof("round %d: train rmse %.4f, val rmse %.4f", round+1, RMSE(yTrain, predTrain), valRMSE)
		}
		if params.EarlyStopping > 0 && sinceBest >= params.EarlyStopping {
			if log != nil {
				log.Infof("early stopping at round %d, best iteration %d", round+1, b.BestIteration)
			}
			break
		}
	}
	if b.BestIteration == 0 {
		b.BestIteration = len(b.Trees)
	}
	return b, nil
}

// Predict returns the model output for one feature vector, using the trees
// up to the best iteration.
func (b *Booster) Predict(x []float64) float64 {
	out := b.BaseScore
	for _, t := range b.Trees[:b.BestIteration] {
		out += b.LearningRate * t.Predict(x)
	}
	return out
}

// PredictBatch applies Predict to every row.
func (b *Booster) PredictBatch(xs [][]float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = b.Predict(x)
	}
	return out
}

// Importance lists per-feature gain and split counts.
type Importance struct {
	Feature string  `json:"feature"`
	Gain    float64 `json:"gain"`
	Split   int     `json:"split"`
}

// FeatureImportance returns the accumulated importances in feature order.
func (b *Booster) FeatureImportance() []Importance {
	out := make([]Importance, len(b.FeatureNames))
	for i, name := range b.FeatureNames {
		out[i] = Importance{Feature: name, Gain: b.Gain[i], Split: b.Split[i]}
	}
	return out
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
