package main

import (
	"context"

	"google.golang.org/protobuf/types/known/emptypb"
)

// Start blocks until the stack settled. The client going away does not abort
// the compose command.
func (s *SupervisorService) Start(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := s.supervisor.StartServices(context.WithoutCancel(ctx)); err != nil {
		return nil, toStatusError(err)
	}
	return &emptypb.Empty{}, nil
}
