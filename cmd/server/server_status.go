package main

import (
	"context"

	apiv1 "github.com/Adam-Blf/abel-assistant/api/v1"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func (s *SupervisorService) CheckDocker(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.BoolValue, error) {
	available, err := s.supervisor.CheckDockerAvailable(context.WithoutCancel(ctx))
	if err != nil {
		return nil, toStatusError(err)
	}
	return wrapperspb.Bool(available), nil
}

func (s *SupervisorService) CheckStatus(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.BoolValue, error) {
	running, err := s.supervisor.CheckStatus(context.WithoutCancel(ctx))
	if err != nil {
		return nil, toStatusError(err)
	}
	return wrapperspb.Bool(running), nil
}

func (s *SupervisorService) Running(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error) {
	return wrapperspb.Bool(s.supervisor.Running()), nil
}

func (s *SupervisorService) Snapshot(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	msg, err := apiv1.EncodeSnapshot(s.supervisor.Snapshot())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode snapshot: %v", err)
	}
	return msg, nil
}
