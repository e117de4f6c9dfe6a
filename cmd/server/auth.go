package main

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

type spiffeIDContextKey struct{}

func spiffeIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(spiffeIDContextKey{}).(string)
	return id, ok
}

func spiffeIDFromTLS(ctx context.Context) (string, bool) {
	// First, check if it was already injected into context.
	if id, ok := spiffeIDFromContext(ctx); ok {
		return id, true
	}

	p, ok := peer.FromContext(ctx)
	if !ok || p == nil {
		return "", false
	}
	ti, ok := p.AuthInfo.(credentials.TLSInfo)
	if !ok {
		return "", false
	}
	if len(ti.State.PeerCertificates) == 0 || ti.State.PeerCertificates[0] == nil {
		return "", false
	}

	// First SPIFFE URI SAN; the trust domain is the identity, e.g.
	// spiffe://operator -> "operator"
	for _, uri := range ti.State.PeerCertificates[0].URIs {
		if uri != nil && uri.Scheme == "spiffe" && uri.Host != "" {
			return uri.Host, true
		}
	}
	return "", false
}

func withSpiffeID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, spiffeIDContextKey{}, id)
}

// requireSpiffeIDUnary rejects callers whose certificate carries no SPIFFE ID.
func requireSpiffeIDUnary(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	id, ok := spiffeIDFromTLS(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "client must have SPIFFE ID")
	}
	return handler(withSpiffeID(ctx, id), req)
}

type streamWithCtx struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *streamWithCtx) Context() context.Context { return s.ctx }

func requireSpiffeIDStream(srv any, ss grpc.ServerStream, _ *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	id, ok := spiffeIDFromTLS(ss.Context())
	if !ok {
		return status.Error(codes.Unauthenticated, "client must have SPIFFE ID")
	}
	return handler(srv, &streamWithCtx{ServerStream: ss, ctx: withSpiffeID(ss.Context(), id)})
}

func callerOf(ctx context.Context) string {
	if id, ok := spiffeIDFromContext(ctx); ok {
		return id
	}
	return "anonymous"
}

// logUnary records every call with the caller identity. It runs after the
// SPIFFE check so the identity is already in the context.
func logUnary(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		started := time.Now()
		resp, err := handler(ctx, req)
		logger.Info("rpc",
			zap.String("method", info.FullMethod),
			zap.String("caller", callerOf(ctx)),
			zap.String("code", status.Code(err).String()),
			zap.Duration("duration", time.Since(started)),
		)
		return resp, err
	}
}

func logStream(logger *zap.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		logger.Info("stream opened", zap.String("method", info.FullMethod), zap.String("caller", callerOf(ss.Context())))
		err := handler(srv, ss)
		logger.Info("stream closed", zap.String("method", info.FullMethod), zap.String("code", status.Code(err).String()))
		return err
	}
}
