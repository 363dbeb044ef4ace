package amqp

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},  // capped at 30s
		{10, 30 * time.Second}, // capped at 30s
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			if result != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"connection closed", errors.New("connection closed"), true},
		{"unexpected EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"closed network connection", errors.New("use of closed network connection"), true},
		{"channel closed", errors.New("message channel closed"), true},
		{"unrelated error", errors.New("table does not exist"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestMessageRoundTrip(t *testing.T) {
	msg := NewTransactionSyncMessage(42, 3)
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatal(err)
	}

	kind, err := PeekKind(body)
	if err != nil {
		t.Fatal(err)
	}
	if kind != KindTransactionSync {
		t.Fatalf("kind = %q, want %q", kind, KindTransactionSync)
	}

	decoded, err := TransactionSyncMessageFromJSON(body)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.ID != 42 || decoded.Version != 3 {
		t.Fatalf("decoded = %+v", decoded)
	}
}

type recordingHandler struct {
	syncIDs   []int64
	deleteIDs []int64
	fail      error
}

func (h *recordingHandler) HandleSyncMessage(_ context.Context, msg *TransactionSyncMessage) error {
	if h.fail != nil {
		return h.fail
	}
	h.syncIDs = append(h.syncIDs, msg.ID)
	return nil
}

func (h *recordingHandler) HandleDeleteMessage(_ context.Context, msg *TransactionDeleteMessage) error {
	if h.fail != nil {
		return h.fail
	}
	h.deleteIDs = append(h.deleteIDs, msg.ID)
	return nil
}

func TestDispatch(t *testing.T) {
	c := &Client{}
	h := &recordingHandler{}
	ctx := context.Background()

	syncBody, _ := NewTransactionSyncMessage(7, 1).ToJSON()
	if err := c.dispatch(ctx, h, syncBody); err != nil {
		t.Fatalf("dispatch sync: %v", err)
	}
	deleteBody, _ := (&TransactionDeleteMessage{Kind: KindTransactionDelete, ID: 9}).ToJSON()
	if err := c.dispatch(ctx, h, deleteBody); err != nil {
		t.Fatalf("dispatch delete: %v", err)
	}
	if len(h.syncIDs) != 1 || h.syncIDs[0] != 7 {
		t.Errorf("syncIDs = %v", h.syncIDs)
	}
	if len(h.deleteIDs) != 1 || h.deleteIDs[0] != 9 {
		t.Errorf("deleteIDs = %v", h.deleteIDs)
	}
}

func TestDispatchRejectsMalformed(t *testing.T) {
	c := &Client{}
	h := &recordingHandler{}
	ctx := context.Background()

	cases := [][]byte{
		[]byte("not json"),
		[]byte(`{"kind":"unknown.kind","id":1}`),
	}
	for _, body := range cases {
		err := c.dispatch(ctx, h, body)
		if err == nil {
			t.Fatalf("%s: expected error", body)
		}
		if !isDecodeError(err) {
			t.Fatalf("%s: expected decode error, got %v", body, err)
		}
	}
}

func TestDispatchPropagatesHandlerError(t *testing.T) {
	c := &Client{}
	h := &recordingHandler{fail: errors.New("downstream unavailable")}
	body, _ := NewTransactionSyncMessage(1, 1).ToJSON()

	err := c.dispatch(context.Background(), h, body)
	if err == nil {
		t.Fatal("expected error")
	}
	if isDecodeError(err) {
		t.Fatal("handler error must not be classified as decode error")
	}
}
