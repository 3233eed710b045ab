package shared

import (
	"context"
	"errors"
	"net/rpc"

	"forest-backend/internal/core"
	"forest-backend/internal/core/types"
)

// Sentinel errors that keep their identity across the plugin boundary.
var errorKinds = []error{
	core.ErrInvalidDataset,
	core.ErrInvalidTarget,
	core.ErrNoFeatures,
	core.ErrInvalidTaskType,
	core.ErrDeserialization,
	core.ErrInference,
}

type remoteError struct {
	kind    error
	message string
}

func (e *remoteError) Error() string { return e.message }

func (e *remoteError) Unwrap() error { return e.kind }

type TrainArgs struct {
	Dataset *types.Dataset
	Params  types.TrainParams
}

type TrainReply struct {
	Model     []byte
	ErrorKind string
	Error     string
}

type PredictArgs struct {
	Model    []byte
	Features []float64
}

type PredictReply struct {
	Prediction types.Prediction
	ErrorKind  string
	Error      string
}

func encodeError(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	for _, kind := range errorKinds {
		if errors.Is(err, kind) {
			return kind.Error(), err.Error()
		}
	}
	return "", err.Error()
}

func decodeError(kind, message string) error {
	if message == "" {
		return nil
	}
	for _, k := range errorKinds {
		if k.Error() == kind {
			return &remoteError{kind: k, message: message}
		}
	}
	return errors.New(message)
}

// RPCClient is the worker side of the plugin. net/rpc cannot carry a context,
// so cancellation stops at the process boundary.
type RPCClient struct{ client *rpc.Client }

var _ core.Engine = (*RPCClient)(nil)

func (m *RPCClient) Train(ctx context.Context, dataset *types.Dataset, params types.TrainParams) ([]byte, error) {
	var reply TrainReply
	if err := m.client.Call("Plugin.Train", TrainArgs{Dataset: dataset, Params: params}, &reply); err != nil {
		return nil, err
	}
	if err := decodeError(reply.ErrorKind, reply.Error); err != nil {
		return nil, err
	}
	return reply.Model, nil
}

func (m *RPCClient) Predict(ctx context.Context, model []byte, features []float64) (types.Prediction, error) {
	var reply PredictReply
	if err := m.client.Call("Plugin.Predict", PredictArgs{Model: model, Features: features}, &reply); err != nil {
		return types.Prediction{}, err
	}
	if err := decodeError(reply.ErrorKind, reply.Error); err != nil {
		return types.Prediction{}, err
	}
	return reply.Prediction, nil
}

// RPCServer runs inside the plugin process, conforming to the requirements
// of net/rpc.
type RPCServer struct {
	Impl core.Engine
}

func (m *RPCServer) Train(args TrainArgs, reply *TrainReply) error {
	model, err := m.Impl.Train(context.Background(), args.Dataset, args.Params)
	reply.Model = model
	reply.ErrorKind, reply.Error = encodeError(err)
	return nil
}

func (m *RPCServer) Predict(args PredictArgs, reply *PredictReply) error {
	prediction, err := m.Impl.Predict(context.Background(), args.Model, args.Features)
	reply.Prediction = prediction
	reply.ErrorKind, reply.Error = encodeError(err)
	return nil
}
