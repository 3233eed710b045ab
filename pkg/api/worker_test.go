package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskType_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		data     string
		expected TaskType
	}{
		{`"CLASSIFICATION_TASK"`, ClassificationTask},
		{`"regression_task"`, RegressionTask},
		{`2`, RegressionTask},
		{`"TASK_TYPE_UNSPECIFIED"`, TaskTypeUnspecified},
		{`"BANANA"`, UnrecognizedTaskType},
	}

	for _, test := range tests {
		var req TrainRequest
		require.NoError(t, json.Unmarshal([]byte(`{"task_type":`+test.data+`}`), &req), test.data)
		assert.Equal(t, test.expected, req.TaskType, test.data)
	}

	var req TrainRequest
	assert.Error(t, json.Unmarshal([]byte(`{"task_type":{}}`), &req))
}

func TestParseTaskType(t *testing.T) {
	taskType, err := ParseTaskType(" Classification ")
	require.NoError(t, err)
	assert.Equal(t, ClassificationTask, taskType)

	_, err = ParseTaskType("clustering")
	assert.Error(t, err)
}
