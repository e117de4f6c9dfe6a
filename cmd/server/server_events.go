package main

import (
	apiv1 "github.com/Adam-Blf/abel-assistant/api/v1"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *SupervisorService) Events(_ *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	sub, current, err := s.subscribe()
	if err != nil {
		return status.Error(codes.Unavailable, "event stream is closed")
	}
	defer sub.Close()
	s.logger.Debug("event stream opened", zap.String("subscription", sub.ID))

	msg, err := apiv1.EncodeEvent(current)
	if err != nil {
		return status.Errorf(codes.Internal, "failed to encode event: %v", err)
	}
	if err := stream.Send(msg); err != nil {
		return err
	}

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("event stream closed by client", zap.String("subscription", sub.ID))
			return nil
		case e, ok := <-sub.C():
			if !ok {
				return nil
			}
			msg, err := apiv1.EncodeEvent(e)
			if err != nil {
				return status.Errorf(codes.Internal, "failed to encode event: %v", err)
			}
			if err := stream.Send(msg); err != nil {
				return err
			}
		}
	}
}
