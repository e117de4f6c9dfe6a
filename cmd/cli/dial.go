package main

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"

	"github.com/Adam-Blf/abel-assistant/pkg/lib/config"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// dial connects to abeld. With TLS material configured the client presents
// its certificate (mTLS); without it the connection is plaintext, which the
// daemon only accepts on loopback.
func dial(cfg config.Config) (*grpc.ClientConn, error) {
	creds, err := clientCredentials(cfg.TLS)
	if err != nil {
		return nil, err
	}

	conn, err := grpc.NewClient(cfg.GRPCAddress, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func clientCredentials(tlsCfg config.TLSConfig) (credentials.TransportCredentials, error) {
	if !tlsCfg.Enabled() {
		return insecure.NewCredentials(), nil
	}

	cert, err := tls.X509KeyPair([]byte(tlsCfg.CertPEM), []byte(tlsCfg.KeyPEM))
	if err != nil {
		return nil, fmt.Errorf("failed to parse TLS cert/key from env: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM([]byte(tlsCfg.CAPEM)) {
		return nil, fmt.Errorf("failed to parse CA cert from env")
	}

	return credentials.NewTLS(&tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      pool,
		MinVersion:   tls.VersionTLS13,
	}), nil
}

func grpcCode(err error) codes.Code {
	st, ok := status.FromError(err)
	if !ok {
		return codes.Unknown
	}
	return st.Code()
}

// explain turns transport errors into something a person can act on.
func explain(err error, cfg config.Config) error {
	switch grpcCode(err) {
	case codes.Unavailable:
		return fmt.Errorf("abeld is not reachable at %s (use --local to run without it): %w", cfg.GRPCAddress, err)
	case codes.FailedPrecondition:
		return fmt.Errorf("%s", status.Convert(err).Message())
	case codes.Unauthenticated:
		return fmt.Errorf("abeld rejected the client certificate: %s", status.Convert(err).Message())
	default:
		return err
	}
}
