package trace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

func TestGeneratedIDLengths(t *testing.T) {
	if id := generateTraceID(); len(id) != 32 {
		t.Errorf("trace ID should be 32 chars, got %d", len(id))
	}
	if id := generateSpanID(); len(id) != 16 {
		t.Errorf("span ID should be 16 chars, got %d", len(id))
	}
}

func TestIDsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := generateTraceID()
		if seen[id] {
			t.Error("generated duplicate trace ID")
		}
		seen[id] = true
	}
}

func TestNewChild(t *testing.T) {
	parent := New()
	child := NewChild(parent)

	if child.TraceID != parent.TraceID {
		t.Error("child should inherit trace ID")
	}
	if child.SpanID == parent.SpanID {
		t.Error("child should have new span ID")
	}
	if child.ParentSpanID != parent.SpanID {
		t.Error("child's parent should be parent's span ID")
	}
}

func TestContextPropagation(t *testing.T) {
	tc := New()
	ctx := WithContext(context.Background(), tc)

	extracted, ok := FromContext(ctx)
	if !ok {
		t.Fatal("should extract trace context")
	}
	if extracted.TraceID != tc.TraceID {
		t.Error("extracted trace ID mismatch")
	}
	if _, ok := FromContext(context.Background()); ok {
		t.Error("should not find trace context in empty context")
	}
}

func TestEnsureContext(t *testing.T) {
	ctx, tc := EnsureContext(context.Background())
	ctx2, tc2 := EnsureContext(ctx)
	if tc.TraceID != tc2.TraceID || ctx != ctx2 {
		t.Error("EnsureContext should reuse existing trace")
	}
}

func TestStartSpanNesting(t *testing.T) {
	ctx, run := StartSpan(context.Background(), "monitor_run")
	_, toggle := StartSpan(ctx, "toggle")

	if toggle.Ctx.TraceID != run.Ctx.TraceID {
		t.Error("nested span should share trace ID")
	}
	if toggle.Ctx.ParentSpanID != run.Ctx.SpanID {
		t.Error("nested span parent should be outer span")
	}

	toggle.SetAttr("enable", true)
	if toggle.Duration() != 0 {
		t.Error("unfinished span should report zero duration")
	}
	toggle.End()
	if toggle.EndTime.IsZero() {
		t.Error("End should set EndTime")
	}
}

func TestRemote(t *testing.T) {
	tc := Remote("abc", "def")
	if tc.TraceID != "abc" || tc.ParentSpanID != "def" || tc.SpanID == "" {
		t.Errorf("Remote = %+v", tc)
	}
	if fresh := Remote("", "def"); fresh.TraceID == "" || fresh.ParentSpanID != "" {
		t.Errorf("Remote with empty trace = %+v", fresh)
	}
}

func TestMiddleware(t *testing.T) {
	var got Context
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set(TraceIDKey, "0123456789abcdef0123456789abcdef")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got.TraceID != "0123456789abcdef0123456789abcdef" {
		t.Errorf("TraceID = %q", got.TraceID)
	}
	if rec.Header().Get(TraceIDKey) != got.TraceID {
		t.Error("response should echo trace id")
	}
}

func TestUnaryServerInterceptor(t *testing.T) {
	md := metadata.Pairs(TraceIDKey, "feedfacefeedfacefeedfacefeedface", SpanIDKey, "0011223344556677")
	ctx := metadata.NewIncomingContext(context.Background(), md)

	var got Context
	_, err := UnaryServerInterceptor()(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"},
		func(ctx context.Context, _ any) (any, error) {
			got, _ = FromContext(ctx)
			return nil, nil
		})
	if err != nil {
		t.Fatalf("interceptor error: %v", err)
	}
	if got.TraceID != "feedfacefeedfacefeedfacefeedface" || got.ParentSpanID != "0011223344556677" {
		t.Errorf("got %+v", got)
	}
}
