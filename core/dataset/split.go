package dataset

import (
	"errors"
	"math/rand"
	"sort"

	"github.com/meterwise/hotspot/core/model"
)

// Split holds the three folds of a train/validation/test split.
type Split struct {
	Train []model.HourlyOccupancy
	Val   []model.HourlyOccupancy
	Test  []model.HourlyOccupancy
}

// StratifiedSplit partitions records into train/val/test folds, shuffling
// within each street so the street distribution is preserved across folds.
// The test fraction is carved out first; the validation fraction is then
// adjusted by 1/(1-testSize) so both refer to the full dataset. Streets with
// fewer than three rows go entirely to train. The split is deterministic for
// a given seed.
func StratifiedSplit(recs []model.HourlyOccupancy, testSize, valSize float64, seed int64) (Split, error) {
	if testSize <= 0 || valSize <= 0 || testSize+valSize >= 1 {
		return Split{}, errors.New("test and val sizes must be positive and sum below 1")
	}

	byStreet := make(map[string][]int)
	for i, r := range recs {
		byStreet[r.Street] = append(byStreet[r.Street], i)
	}
	streets := make([]string, 0, len(byStreet))
	for s := range byStreet {
		streets = append(streets, s)
	}
	sort.Strings(streets)

	rng := rand.New(rand.NewSource(seed))
	adjustedVal := valSize / (1 - testSize)

	var sp Split
	for _, street := range streets {
		idx := byStreet[street]
		if len(idx) < 3 {
			for _, i := range idx {
				sp.Train = append(sp.Train, recs[i])
			}
			continue
		}
		rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })

		nTest := int(float64(len(idx)) * testSize)
		if nTest < 1 {
			nTest = 1
		}
		rest := len(idx) - nTest
		nVal := int(float64(rest) * adjustedVal)
		if nVal < 1 {
			nVal = 1
		}
		for i, j := range idx {
			switch {
			case i < nTest:
				sp.Test = append(sp.Test, recs[j])
			case i < nTest+nVal:
				sp.Val = append(sp.Val, recs[j])
			default:
				sp.Train = append(sp.Train, recs[j])
			}
		}
	}
	if len(sp.Train) == 0 {
		return Split{}, errors.New("empty training fold")
	}
	return sp, nil
}
