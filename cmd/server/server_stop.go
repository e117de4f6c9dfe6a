package main

import (
	"context"

	"google.golang.org/protobuf/types/known/emptypb"
)

func (s *SupervisorService) Stop(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := s.supervisor.StopServices(context.WithoutCancel(ctx)); err != nil {
		return nil, toStatusError(err)
	}
	return &emptypb.Empty{}, nil
}
