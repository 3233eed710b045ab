package worker

import "errors"

var (
	ErrUnknownTaskType = errors.New("unknown task type")
	ErrInvalidModelID  = errors.New("invalid model id")
)
