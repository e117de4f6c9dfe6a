package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"

	apiv1 "github.com/Adam-Blf/abel-assistant/api/v1"
	"github.com/Adam-Blf/abel-assistant/pkg/lib/config"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

// GRPCServer encapsulates transport credentials, the gRPC server instance and
// its listener.
type GRPCServer struct {
	lis net.Listener
	s   *grpc.Server
}

// NewGRPCServer registers service and prepares it to serve on addr.
//
// With TLS material the server requires client certificates (mTLS) carrying a
// SPIFFE ID. Without it the server only agrees to listen on a loopback
// address.
func NewGRPCServer(addr string, tlsCfg config.TLSConfig, service apiv1.SupervisorServer, logger *zap.Logger) (*GRPCServer, error) {
	opts, err := serverOptions(addr, tlsCfg, logger)
	if err != nil {
		return nil, err
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	s := grpc.NewServer(opts...)
	apiv1.RegisterSupervisorServer(s, service)

	return &GRPCServer{lis: lis, s: s}, nil
}

func serverOptions(addr string, tlsCfg config.TLSConfig, logger *zap.Logger) ([]grpc.ServerOption, error) {
	if !tlsCfg.Enabled() {
		if !isLoopback(addr) {
			return nil, fmt.Errorf("refusing to serve %s without TLS; set ABEL_TLS_KEY, ABEL_TLS_CERT and ABEL_CA_TLS_CERT", addr)
		}
		logger.Warn("serving without TLS on loopback", zap.String("address", addr))
		return []grpc.ServerOption{
			grpc.Creds(insecure.NewCredentials()),
			grpc.ChainUnaryInterceptor(logUnary(logger)),
			grpc.ChainStreamInterceptor(logStream(logger)),
		}, nil
	}

	creds, err := serverCredentials(tlsCfg)
	if err != nil {
		return nil, err
	}
	return []grpc.ServerOption{
		grpc.Creds(creds),
		grpc.ChainUnaryInterceptor(requireSpiffeIDUnary, logUnary(logger)),
		grpc.ChainStreamInterceptor(requireSpiffeIDStream, logStream(logger)),
	}, nil
}

func serverCredentials(tlsCfg config.TLSConfig) (credentials.TransportCredentials, error) {
	cert, err := tls.X509KeyPair([]byte(tlsCfg.CertPEM), []byte(tlsCfg.KeyPEM))
	if err != nil {
		return nil, fmt.Errorf("failed to load server key pair: %w", err)
	}

	caPool := x509.NewCertPool()
	if ok := caPool.AppendCertsFromPEM([]byte(tlsCfg.CAPEM)); !ok {
		return nil, fmt.Errorf("failed to append CA certificate to pool")
	}

	return credentials.NewTLS(&tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      caPool,
		ClientCAs:    caPool,
		ClientAuth:   tls.RequireAndVerifyClientCert,
		MinVersion:   tls.VersionTLS13,
	}), nil
}

// Serve starts serving gRPC on the configured listener.
func (g *GRPCServer) Serve() error {
	return g.s.Serve(g.lis)
}

// Addr returns the network address the server is bound to.
func (g *GRPCServer) Addr() net.Addr { return g.lis.Addr() }

// Stop gracefully stops the gRPC server. Open event streams end when the
// event bus is closed, which must happen first. RPCs still running when ctx
// is done are cut off.
func (g *GRPCServer) Stop(ctx context.Context) error {
	stopped := make(chan struct{})
	go func() {
		g.s.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		g.s.Stop()
		return fmt.Errorf("gRPC graceful stop: %w", ctx.Err())
	}
}
