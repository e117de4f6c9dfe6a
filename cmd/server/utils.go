package main

import (
	"context"
	"errors"
	"net"

	"github.com/Adam-Blf/abel-assistant/pkg/lib/runner"
	"github.com/Adam-Blf/abel-assistant/pkg/lib/supervisor"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func toStatusError(err error) error {
	switch {
	case errors.Is(err, runner.ErrSpawn):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, supervisor.ErrClosed):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// isLoopback reports whether addr only accepts local connections.
func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
