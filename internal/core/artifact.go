package core

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"forest-backend/internal/core/types"
)

const (
	artifactVersion = 1

	// ArtifactExt is the file extension of serialized models.
	ArtifactExt = ".gob"
)

type forestArtifact struct {
	Version  int
	TaskType types.TaskType
	Target   string
	Features []string
	Classes  []string
	Trees    []decisionTree
}

func encodeArtifact(forest *forestArtifact) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(forest); err != nil {
		return nil, fmt.Errorf("error serializing model: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeArtifact(data []byte) (*forestArtifact, error) {
	var forest forestArtifact
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&forest); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeserialization, err)
	}

	if forest.Version != artifactVersion {
		return nil, fmt.Errorf("%w: unsupported model version %d", ErrDeserialization, forest.Version)
	}
	if len(forest.Trees) == 0 || len(forest.Features) == 0 {
		return nil, fmt.Errorf("%w: model has no trees or no features", ErrDeserialization)
	}
	if forest.TaskType == types.Classification && len(forest.Classes) == 0 {
		return nil, fmt.Errorf("%w: classification model has no classes", ErrDeserialization)
	}

	for i, tree := range forest.Trees {
		if err := validateTree(tree, len(forest.Features), len(forest.Classes)); err != nil {
			return nil, fmt.Errorf("%w: tree %d: %v", ErrDeserialization, i, err)
		}
	}

	return &forest, nil
}

// validateTree checks node references so that a corrupt artifact fails to load
// instead of panicking during inference.
func validateTree(tree decisionTree, nFeatures, nClasses int) error {
	if len(tree.Nodes) == 0 {
		return fmt.Errorf("empty tree")
	}

	leafSize := nClasses
	if leafSize == 0 {
		leafSize = 1
	}

	for i, node := range tree.Nodes {
		if node.Feature == leafFeature {
			if len(node.Value) != leafSize {
				return fmt.Errorf("leaf %d has %d values, expected %d", i, len(node.Value), leafSize)
			}
			continue
		}
		if node.Feature < 0 || node.Feature >= nFeatures {
			return fmt.Errorf("node %d references feature %d", i, node.Feature)
		}
		if node.Left <= i || node.Left >= len(tree.Nodes) || node.Right <= i || node.Right >= len(tree.Nodes) {
			return fmt.Errorf("node %d has invalid children", i)
		}
	}

	return nil
}
