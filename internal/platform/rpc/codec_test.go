package rpc

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

type echoRequest struct {
	Message string `json:"message"`
}

type echoResponse struct {
	Message string `json:"message"`
}

type echoServer struct{ prefix string }

func (s *echoServer) Echo(ctx context.Context, req *echoRequest) (*echoResponse, error) {
	return &echoResponse{Message: s.prefix + req.Message}, nil
}

func TestCodec_Registered(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	if c == nil {
		t.Fatal("json codec not registered")
	}
	if c.Name() != "json" {
		t.Errorf("Name = %q, want json", c.Name())
	}
}

func TestCodec_MarshalUsesJSONTags(t *testing.T) {
	b, err := Codec{}.Marshal(&echoRequest{Message: "hi"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != `{"message":"hi"}` {
		t.Errorf("Marshal = %s", b)
	}
}

func TestCodec_UnmarshalEmpty(t *testing.T) {
	var req echoRequest
	if err := (Codec{}).Unmarshal(nil, &req); err != nil {
		t.Fatalf("Unmarshal(nil): %v", err)
	}
	if req.Message != "" {
		t.Errorf("Message = %q, want empty", req.Message)
	}
	if err := (Codec{}).Unmarshal([]byte("{not json"), &req); err == nil {
		t.Error("malformed JSON should fail")
	}
}

func TestUnary_NoInterceptor(t *testing.T) {
	h := Unary("/test.Echo/Echo", (*echoServer).Echo)
	dec := func(v interface{}) error {
		return Codec{}.Unmarshal([]byte(`{"message":"world"}`), v)
	}
	resp, err := h(&echoServer{prefix: "hello "}, context.Background(), dec, nil)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if got := resp.(*echoResponse).Message; got != "hello world" {
		t.Errorf("Message = %q", got)
	}
}

func TestUnary_RunsInterceptor(t *testing.T) {
	h := Unary("/test.Echo/Echo", (*echoServer).Echo)
	dec := func(v interface{}) error { return nil }

	var seen string
	interceptor := func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		seen = info.FullMethod
		return handler(ctx, req)
	}
	if _, err := h(&echoServer{}, context.Background(), dec, interceptor); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if seen != "/test.Echo/Echo" {
		t.Errorf("interceptor saw %q", seen)
	}
}

func TestUnary_DecodeError(t *testing.T) {
	h := Unary("/test.Echo/Echo", (*echoServer).Echo)
	decErr := errors.New("bad frame")
	_, err := h(&echoServer{}, context.Background(), func(interface{}) error { return decErr }, nil)
	if !errors.Is(err, decErr) {
		t.Errorf("err = %v, want decode error", err)
	}
}
