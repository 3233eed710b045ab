package rpc

import (
	"context"

	"forest-backend/pkg/api"

	"google.golang.org/grpc"
)

const (
	serviceName = "worker.v1.WorkerService"

	trainMethod   = "/" + serviceName + "/Train"
	predictMethod = "/" + serviceName + "/Predict"
)

// WorkerServer is the server API for the worker service.
type WorkerServer interface {
	Train(context.Context, *api.TrainRequest) (*api.TrainResponse, error)
	Predict(context.Context, *api.PredictRequest) (*api.PredictResponse, error)
}

func RegisterWorkerServer(s grpc.ServiceRegistrar, srv WorkerServer) {
	s.RegisterService(&workerServiceDesc, srv)
}

func trainHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(api.TrainRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(WorkerServer).Train(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: trainMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(WorkerServer).Train(ctx, req.(*api.TrainRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func predictHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(api.PredictRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(WorkerServer).Predict(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: predictMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(WorkerServer).Predict(ctx, req.(*api.PredictRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var workerServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*WorkerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Train", Handler: trainHandler},
		{MethodName: "Predict", Handler: predictHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "worker.proto",
}
