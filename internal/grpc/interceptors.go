package grpc

import (
	"context"
	"log/slog"
	"path"
	"time"

	"catalog-service/internal/logging"
	"catalog-service/internal/metrics"

	grpcgo "google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// UnaryInterceptor attaches a request id, logs the call and records its outcome.
func UnaryInterceptor(logger *slog.Logger) grpcgo.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpcgo.UnaryServerInfo, handler grpcgo.UnaryHandler) (any, error) {
		id := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get("x-request-id"); len(values) > 0 {
				id = values[0]
			}
		}
		if id == "" {
			id = logging.NewRequestID()
		}
		ctx = logging.ContextWithRequestID(ctx, id)

		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		metrics.RecordGRPCRequest(path.Base(info.FullMethod), code.String())
		logger.InfoContext(ctx, "gRPC call completed",
			slog.String("method", info.FullMethod),
			slog.String("code", code.String()),
			slog.Duration("duration", time.Since(start)))
		return resp, err
	}
}
