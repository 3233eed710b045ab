package rpc

import (
	"context"
	"log/slog"
	"runtime/debug"

	"forest-backend/internal/worker"
	"forest-backend/pkg/api"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Server adapts worker.Service to the wire contract: Train reports failures in
// the response body, Predict reports them as codes.Internal.
type Server struct {
	service *worker.Service
}

var _ WorkerServer = (*Server)(nil)

func NewServer(service *worker.Service) *Server {
	return &Server{service: service}
}

func (s *Server) Train(ctx context.Context, req *api.TrainRequest) (*api.TrainResponse, error) {
	return s.service.Train(ctx, req), nil
}

func (s *Server) Predict(ctx context.Context, req *api.PredictRequest) (*api.PredictResponse, error) {
	resp, err := s.service.Predict(ctx, req)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

// NewGRPCServer returns a grpc.Server serving srv that runs at most
// maxWorkers calls at once. Additional calls wait for a free slot.
func NewGRPCServer(srv WorkerServer, maxWorkers int, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(
		recoveryInterceptor,
		concurrencyLimitInterceptor(maxWorkers),
	))
	server := grpc.NewServer(opts...)
	RegisterWorkerServer(server, srv)
	return server
}

func concurrencyLimitInterceptor(maxWorkers int) grpc.UnaryServerInterceptor {
	slots := make(chan struct{}, max(maxWorkers, 1))

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		select {
		case slots <- struct{}{}:
		case <-ctx.Done():
			return nil, status.FromContextError(ctx.Err()).Err()
		}
		defer func() { <-slots }()

		return handler(ctx, req)
	}
}

func recoveryInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic while handling rpc", "method", info.FullMethod, "panic", r, "stack", string(debug.Stack()))
			err = status.Errorf(codes.Internal, "internal error: %v", r)
		}
	}()
	return handler(ctx, req)
}
