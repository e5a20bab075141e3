package trace

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// UnaryServerInterceptor continues the caller's trace from incoming gRPC metadata.
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx = WithContext(ctx, fromIncoming(ctx))
		Logger(ctx).Debug("grpc request", "method", info.FullMethod)
		return handler(ctx, req)
	}
}

func fromIncoming(ctx context.Context) Context {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return New()
	}
	return Remote(first(md.Get(TraceIDKey)), first(md.Get(SpanIDKey)))
}

func first(v []string) string {
	if len(v) == 0 {
		return ""
	}
	return v[0]
}
