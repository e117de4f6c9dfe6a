package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	apiv1 "github.com/Adam-Blf/abel-assistant/api/v1"
	"github.com/Adam-Blf/abel-assistant/pkg/lib"
	"github.com/Adam-Blf/abel-assistant/pkg/lib/config"
	"github.com/Adam-Blf/abel-assistant/pkg/lib/inventory"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
)

// backend is what the commands drive: the daemon over gRPC or an in-process
// supervisor.
type backend interface {
	CheckDocker(ctx context.Context) (bool, error)
	CheckStatus(ctx context.Context) (bool, error)
	Running(ctx context.Context) (bool, error)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Snapshot(ctx context.Context) (lib.Snapshot, error)
	Links(ctx context.Context) ([]lib.Link, error)
	Containers(ctx context.Context) ([]inventory.Container, error)
	// Events returns once the subscription is live. The first event is the
	// current status. The channel closes when ctx ends or the source goes
	// away.
	Events(ctx context.Context) (<-chan lib.Event, error)
	Close() error
}

type remoteBackend struct {
	conn   *grpc.ClientConn
	client apiv1.SupervisorClient
}

func dialBackend(_ context.Context, cfg config.Config) (*remoteBackend, error) {
	conn, err := dial(cfg)
	if err != nil {
		return nil, err
	}
	return &remoteBackend{conn: conn, client: apiv1.NewSupervisorClient(conn)}, nil
}

func (b *remoteBackend) CheckDocker(ctx context.Context) (bool, error) {
	resp, err := b.client.CheckDocker(ctx, &emptypb.Empty{})
	return resp.GetValue(), err
}

func (b *remoteBackend) CheckStatus(ctx context.Context) (bool, error) {
	resp, err := b.client.CheckStatus(ctx, &emptypb.Empty{})
	return resp.GetValue(), err
}

func (b *remoteBackend) Running(ctx context.Context) (bool, error) {
	resp, err := b.client.Running(ctx, &emptypb.Empty{})
	return resp.GetValue(), err
}

func (b *remoteBackend) Start(ctx context.Context) error {
	_, err := b.client.Start(ctx, &emptypb.Empty{})
	return err
}

func (b *remoteBackend) Stop(ctx context.Context) error {
	_, err := b.client.Stop(ctx, &emptypb.Empty{})
	return err
}

func (b *remoteBackend) Snapshot(ctx context.Context) (lib.Snapshot, error) {
	resp, err := b.client.Snapshot(ctx, &emptypb.Empty{})
	if err != nil {
		return lib.Snapshot{}, err
	}
	return apiv1.DecodeSnapshot(resp)
}

func (b *remoteBackend) Links(ctx context.Context) ([]lib.Link, error) {
	resp, err := b.client.Links(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, err
	}
	return apiv1.DecodeLinks(resp)
}

func (b *remoteBackend) Containers(ctx context.Context) ([]inventory.Container, error) {
	resp, err := b.client.Containers(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, err
	}
	return apiv1.DecodeContainers(resp)
}

func (b *remoteBackend) Events(ctx context.Context) (<-chan lib.Event, error) {
	stream, err := b.client.Events(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, err
	}

	// the daemon subscribes before it sends the current status
	msg, err := stream.Recv()
	if err != nil {
		return nil, err
	}
	first, err := apiv1.DecodeEvent(msg)
	if err != nil {
		return nil, err
	}

	ch := make(chan lib.Event, 64)
	ch <- first
	go func() {
		defer close(ch)
		for {
			msg, err := stream.Recv()
			if err != nil {
				if !errors.Is(err, io.EOF) && ctx.Err() == nil {
					fmt.Fprintf(errOut, "event stream ended: %v\n", err)
				}
				return
			}
			e, err := apiv1.DecodeEvent(msg)
			if err != nil {
				continue
			}
			select {
			case ch <- e:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

func (b *remoteBackend) Close() error {
	return b.conn.Close()
}
