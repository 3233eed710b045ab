package core

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"strings"
	"time"

	"forest-backend/internal/core/types"
	"forest-backend/internal/core/utils"
)

const (
	DefaultSeed        = 511
	DefaultNEstimators = 100
)

type Engine interface {
	Train(ctx context.Context, dataset *types.Dataset, params types.TrainParams) ([]byte, error)

	Predict(ctx context.Context, model []byte, features []float64) (types.Prediction, error)
}

// ForestEngine trains random forests in process. Every tree is seeded with
// Seed plus its index so identical inputs produce identical models.
type ForestEngine struct {
	Seed       int64
	MaxWorkers int
}

var _ Engine = (*ForestEngine)(nil)

func NewForestEngine(seed int64) *ForestEngine {
	return &ForestEngine{Seed: seed, MaxWorkers: runtime.NumCPU()}
}

func (e *ForestEngine) Train(ctx context.Context, dataset *types.Dataset, params types.TrainParams) ([]byte, error) {
	if params.TaskType != types.Classification && params.TaskType != types.Regression {
		return nil, fmt.Errorf("%w '%s': must be '%s' or '%s'", ErrInvalidTaskType, params.TaskType, types.Classification, types.Regression)
	}

	target := dataset.ColumnIndex(params.TargetColumn)
	if target < 0 {
		return nil, fmt.Errorf("%w: target column '%s' not found in dataset columns [%s]", ErrInvalidTarget, params.TargetColumn, strings.Join(dataset.Columns, ", "))
	}

	if len(dataset.Rows) == 0 {
		return nil, fmt.Errorf("%w: dataset has no rows", ErrInvalidDataset)
	}

	var featureCols []int
	var featureNames []string
	for col, name := range dataset.Columns {
		if col != target && dataset.IsNumericColumn(col) {
			featureCols = append(featureCols, col)
			featureNames = append(featureNames, name)
		}
	}
	if len(featureCols) == 0 {
		return nil, fmt.Errorf("%w: no numeric columns besides target '%s'", ErrNoFeatures, params.TargetColumn)
	}

	x := make([][]float64, len(dataset.Rows))
	for row := range dataset.Rows {
		x[row] = make([]float64, len(featureCols))
		for i, col := range featureCols {
			v, err := types.ParseNumeric(dataset.Cell(row, col))
			if err != nil {
				return nil, fmt.Errorf("%w: row %d column '%s': %v", ErrInvalidDataset, row+1, dataset.Columns[col], err)
			}
			x[row][i] = v
		}
	}

	y, classes, err := encodeTarget(dataset, target, params.TaskType)
	if err != nil {
		return nil, err
	}

	nEstimators := params.NEstimators
	if nEstimators <= 0 {
		nEstimators = DefaultNEstimators
	}

	maxFeatures := len(featureCols)
	if params.TaskType == types.Classification {
		maxFeatures = max(1, int(math.Sqrt(float64(len(featureCols)))))
	}

	slog.Info("starting forest training", "task_type", params.TaskType, "target", params.TargetColumn,
		"features", featureNames, "rows", len(x), "n_estimators", nEstimators)
	start := time.Now()

	seeds := make([]int64, nEstimators)
	for i := range seeds {
		seeds[i] = e.Seed + int64(i)
	}

	trees, err := utils.RunInPool(seeds, func(_ int, seed int64) (decisionTree, error) {
		if err := ctx.Err(); err != nil {
			return decisionTree{}, err
		}

		rng := rand.New(rand.NewSource(seed))
		samples := make([]int, len(x))
		for i := range samples {
			samples[i] = rng.Intn(len(x))
		}

		builder := &treeBuilder{x: x, y: y, nClasses: len(classes), maxFeatures: maxFeatures, rng: rng}
		return builder.build(samples), nil
	}, max(e.MaxWorkers, 1))
	if err != nil {
		return nil, fmt.Errorf("error fitting trees: %w", err)
	}

	slog.Info("forest training completed", "n_estimators", nEstimators, "duration", time.Since(start))

	return encodeArtifact(&forestArtifact{
		Version:  artifactVersion,
		TaskType: params.TaskType,
		Target:   params.TargetColumn,
		Features: featureNames,
		Classes:  classes,
		Trees:    trees,
	})
}

func encodeTarget(dataset *types.Dataset, target int, taskType types.TaskType) ([]float64, []string, error) {
	y := make([]float64, len(dataset.Rows))

	if taskType == types.Regression {
		for row := range dataset.Rows {
			v, err := types.ParseNumeric(dataset.Cell(row, target))
			if err != nil {
				return nil, nil, fmt.Errorf("%w: regression target '%s' has non-numeric or non-finite value '%s' in row %d",
					ErrInvalidTarget, dataset.Columns[target], dataset.Cell(row, target), row+1)
			}
			y[row] = v
		}
		return y, nil, nil
	}

	seen := map[string]struct{}{}
	for row := range dataset.Rows {
		seen[strings.TrimSpace(dataset.Cell(row, target))] = struct{}{}
	}

	classes := make([]string, 0, len(seen))
	for label := range seen {
		classes = append(classes, label)
	}
	sort.Strings(classes)

	index := make(map[string]int, len(classes))
	for i, label := range classes {
		index[label] = i
	}
	for row := range dataset.Rows {
		y[row] = float64(index[strings.TrimSpace(dataset.Cell(row, target))])
	}

	return y, classes, nil
}

func (e *ForestEngine) Predict(ctx context.Context, model []byte, features []float64) (types.Prediction, error) {
	forest, err := decodeArtifact(model)
	if err != nil {
		return types.Prediction{}, err
	}

	if len(features) != len(forest.Features) {
		return types.Prediction{}, fmt.Errorf("%w: model expects %d features [%s], got %d",
			ErrInference, len(forest.Features), strings.Join(forest.Features, ", "), len(features))
	}

	for i, v := range features {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return types.Prediction{}, fmt.Errorf("%w: feature %d ('%s') is not a finite number", ErrInference, i, forest.Features[i])
		}
	}

	if forest.TaskType == types.Regression {
		sum := 0.0
		for i := range forest.Trees {
			sum += forest.Trees[i].leaf(features)[0]
		}
		return types.Prediction{Value: sum / float64(len(forest.Trees))}, nil
	}

	probas := make([]float64, len(forest.Classes))
	for i := range forest.Trees {
		for c, p := range forest.Trees[i].leaf(features) {
			probas[c] += p
		}
	}

	best := 0
	for c := range probas {
		if probas[c] > probas[best] {
			best = c
		}
	}

	return types.Prediction{Categorical: true, Label: forest.Classes[best]}, nil
}
