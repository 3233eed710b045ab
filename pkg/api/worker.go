package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TaskType mirrors the worker.v1.TaskType enum of the worker RPC surface.
type TaskType int32

const (
	TaskTypeUnspecified TaskType = 0
	ClassificationTask  TaskType = 1
	RegressionTask      TaskType = 2

	// UnrecognizedTaskType is decoded for enum names this version does not
	// know, so the worker can reject them in its response.
	UnrecognizedTaskType TaskType = -1
)

var taskTypeNames = map[TaskType]string{
	TaskTypeUnspecified: "TASK_TYPE_UNSPECIFIED",
	ClassificationTask:  "CLASSIFICATION_TASK",
	RegressionTask:      "REGRESSION_TASK",
}

func (t TaskType) String() string {
	if name, ok := taskTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TaskType(%d)", int32(t))
}

func (t TaskType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts either the enum name or its numeric value, the same
// way protojson does for enums. Unknown names decode to UnrecognizedTaskType.
func (t *TaskType) UnmarshalJSON(data []byte) error {
	var num int32
	if err := json.Unmarshal(data, &num); err == nil {
		*t = TaskType(num)
		return nil
	}

	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("invalid task type %s: %w", string(data), err)
	}
	for value, n := range taskTypeNames {
		if strings.EqualFold(n, name) {
			*t = value
			return nil
		}
	}
	*t = UnrecognizedTaskType
	return nil
}

// ParseTaskType converts the user facing names ("classification",
// "regression") into the RPC enum.
func ParseTaskType(name string) (TaskType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "classification":
		return ClassificationTask, nil
	case "regression":
		return RegressionTask, nil
	default:
		return TaskTypeUnspecified, fmt.Errorf("invalid task_type %q: must be classification or regression", name)
	}
}

type TrainRequest struct {
	ModelId      string   `json:"model_id"`
	DatasetUrl   string   `json:"dataset_url"`
	TaskType     TaskType `json:"task_type"`
	TargetColumn string   `json:"target_column"`
	NEstimators  int32    `json:"n_estimators"`
}

type TrainResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type PredictRequest struct {
	ModelId  string    `json:"model_id"`
	Features []float64 `json:"features"`
}

type PredictResponse struct {
	Prediction string `json:"prediction"`
}
