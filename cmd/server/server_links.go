package main

import (
	"context"

	apiv1 "github.com/Adam-Blf/abel-assistant/api/v1"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *SupervisorService) Links(context.Context, *emptypb.Empty) (*structpb.ListValue, error) {
	msg, err := apiv1.EncodeLinks(s.links)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode links: %v", err)
	}
	return msg, nil
}

func (s *SupervisorService) Containers(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	if s.containers == nil {
		return nil, status.Error(codes.Unavailable, "docker API is not reachable")
	}
	cs, err := s.containers.List(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Unavailable, "failed to list containers: %v", err)
	}
	msg, err := apiv1.EncodeContainers(cs)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode containers: %v", err)
	}
	return msg, nil
}
