package core

import "errors"

var (
	ErrInvalidDataset  = errors.New("invalid dataset")
	ErrInvalidTarget   = errors.New("invalid target column")
	ErrNoFeatures      = errors.New("no usable feature columns")
	ErrInvalidTaskType = errors.New("invalid task type")

	ErrDeserialization = errors.New("unable to deserialize model")
	ErrInference       = errors.New("inference failed")
)
