package client

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"

	"github.com/alfredjeanlab/lots/internal/model"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

// gatewayStub answers every Send with reply (or err) and records the request.
type gatewayStub struct {
	method string
	req    *structpb.Struct
	auth   []string
	reply  map[string]any
	err    error
}

func (g *gatewayStub) handle(_ any, stream grpc.ServerStream) error {
	g.method, _ = grpc.MethodFromServerStream(stream)
	if md, ok := metadata.FromIncomingContext(stream.Context()); ok {
		g.auth = md.Get("authorization")
	}
	g.req = &structpb.Struct{}
	if err := stream.RecvMsg(g.req); err != nil {
		return err
	}
	if g.err != nil {
		return g.err
	}
	reply, err := structpb.NewStruct(g.reply)
	if err != nil {
		return err
	}
	return stream.SendMsg(reply)
}

func newTestGRPC(t *testing.T, g *gatewayStub, token string) *GRPCTransport {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnknownServiceHandler(g.handle))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	tr, err := NewGRPCTransport("passthrough:///bufnet", token,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	if err != nil {
		t.Fatalf("NewGRPCTransport() error = %v", err)
	}
	t.Cleanup(func() { _ = tr.Close() })
	return tr
}

func TestGRPCTransport_Send(t *testing.T) {
	g := &gatewayStub{reply: map[string]any{
		"payload": map[string]any{
			"items":       []any{map[string]any{"id": 1, "title": "Lamp"}},
			"total_count": 1,
		},
	}}
	tr := newTestGRPC(t, g, "tok")
	c := New(tr, model.Session{})

	page, err := c.FetchPage(context.Background(), model.ListingQuery{ObjServer: "lots", PageSize: 20})
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if g.method != SendMethod {
		t.Errorf("method = %q, want %q", g.method, SendMethod)
	}
	if len(g.auth) != 1 || g.auth[0] != "Bearer tok" {
		t.Errorf("authorization = %v", g.auth)
	}
	fields := g.req.AsMap()
	if fields["method"] != "GET" {
		t.Errorf("request method = %v", fields["method"])
	}
	if path, _ := fields["path"].(string); !strings.HasPrefix(path, "/lots?filter_1_key=category") {
		t.Errorf("request path = %q", path)
	}
	if _, ok := fields["body"]; ok {
		t.Error("GET carried a body")
	}
	if len(page.Items) != 1 || page.Items[0].ID != 1 || page.TotalCount != 1 {
		t.Errorf("page = %+v", page)
	}
}

func TestGRPCTransport_SendsBody(t *testing.T) {
	g := &gatewayStub{reply: map[string]any{"operation_result": map[string]any{"result": true}}}
	tr := newTestGRPC(t, g, "")

	env, err := tr.Send(context.Background(), "POST", "/lots/5/bids", map[string]any{"amount": 3})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	body, _ := g.req.AsMap()["body"].(map[string]any)
	if body["amount"] != float64(3) {
		t.Errorf("body = %v", body)
	}
	if g.auth != nil {
		t.Errorf("authorization = %v, want none", g.auth)
	}
	if env.OperationResult == nil || !env.OperationResult.Result {
		t.Errorf("envelope = %+v", env)
	}
}

func TestGRPCTransport_EnvelopeFailure(t *testing.T) {
	g := &gatewayStub{reply: map[string]any{"error_code": "lot_closed", "human_message": "ended"}}
	tr := newTestGRPC(t, g, "")

	_, err := tr.Send(context.Background(), "GET", "/lots/1", nil)
	var se *model.ServerError
	if !errors.As(err, &se) || se.Code != "lot_closed" {
		t.Fatalf("Send() error = %v", err)
	}
}

func TestGRPCTransport_StatusMapping(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantTransport bool
		wantCode      string
	}{
		{"unavailable", status.Error(codes.Unavailable, "down"), true, ""},
		{"deadline", status.Error(codes.DeadlineExceeded, "slow"), true, ""},
		{"not found", status.Error(codes.NotFound, "no lot"), false, "NotFound"},
		{"permission", status.Error(codes.PermissionDenied, "nope"), false, "PermissionDenied"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestGRPC(t, &gatewayStub{err: tt.err}, "")
			_, err := tr.Send(context.Background(), "GET", "/x", nil)

			var te *model.TransportError
			var se *model.ServerError
			switch {
			case tt.wantTransport:
				if !errors.As(err, &te) {
					t.Errorf("error = %v, want *TransportError", err)
				}
			case !errors.As(err, &se):
				t.Errorf("error = %v, want *ServerError", err)
			case se.Code != tt.wantCode:
				t.Errorf("Code = %q, want %q", se.Code, tt.wantCode)
			}
		})
	}
}

func TestGrpcError_NonStatus(t *testing.T) {
	err := grpcError("GET /x", errors.New("boom"))
	var te *model.TransportError
	if !errors.As(err, &te) || te.Op != "GET /x" {
		t.Errorf("grpcError() = %v", err)
	}
}
