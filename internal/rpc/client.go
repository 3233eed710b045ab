package rpc

import (
	"context"
	"fmt"

	"forest-backend/pkg/api"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type Client struct {
	conn *grpc.ClientConn
}

func NewClient(target string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}, opts...)

	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating worker client for %s: %w", target, err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Train(ctx context.Context, req *api.TrainRequest) (*api.TrainResponse, error) {
	out := new(api.TrainResponse)
	if err := c.conn.Invoke(ctx, trainMethod, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Predict(ctx context.Context, req *api.PredictRequest) (*api.PredictResponse, error) {
	out := new(api.PredictResponse)
	if err := c.conn.Invoke(ctx, predictMethod, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}
