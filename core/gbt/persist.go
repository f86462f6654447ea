package gbt

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// ModelFileName is the artifact name of the persisted booster.
const ModelFileName = "gbt_occupancy.json"

// ErrModelNotFound indicates the model artifact is missing from the
// artifacts directory.
var ErrModelNotFound = errors.New("gbt: model not found, run the training pipeline first")

// Save writes the booster as JSON into dir.
func (b *Booster) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, ModelFileName)
	data, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("encode model: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Load reads a booster persisted by Save.
func Load(dir string) (*Booster, error) {
	path := filepath.Join(dir, ModelFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, path)
		}
		return nil, err
	}
	var b Booster
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if len(b.Trees) == 0 || b.BestIteration < 1 || b.BestIteration > len(b.Trees) {
		return nil, fmt.Errorf("corrupt model artifact %s", path)
	}
	return &b, nil
}
