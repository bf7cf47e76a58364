package producer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"

	"kyc-onboarding/backend/internal/telemetry/domain"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestNewKafkaProducer_EmptyConfigIsNil(t *testing.T) {
	if p := NewKafkaProducer(nil, "topic", nil); p != nil {
		t.Error("expected nil producer without brokers")
	}
	if p := NewKafkaProducer([]string{"localhost:9092"}, "", nil); p != nil {
		t.Error("expected nil producer without topic")
	}
	var p *KafkaProducer
	if err := p.Emit(context.Background(), domain.NewEvent("x", "y", "", "")); err != nil {
		t.Errorf("nil producer Emit: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("nil producer Close: %v", err)
	}
}

func TestEmit_WritesJSONKeyedBySubject(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaProducer(w, "kyc.telemetry", nil)
	ev := domain.NewEvent(domain.EventCodeVerified, "verification", "phone", "chal-9")
	if err := p.Emit(context.Background(), ev); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(w.msgs))
	}
	if string(w.msgs[0].Key) != "chal-9" {
		t.Errorf("key = %q", w.msgs[0].Key)
	}
	var got domain.Event
	if err := json.Unmarshal(w.msgs[0].Value, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.EventType != domain.EventCodeVerified || got.Channel != "phone" {
		t.Errorf("decoded = %+v", got)
	}
}

func TestEmit_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := newKafkaProducer(w, "t", nil)
	if err := p.Emit(context.Background(), domain.NewEvent("x", "y", "", "")); err == nil {
		t.Fatal("expected error")
	}
	if err := p.Close(); err != nil || !w.closed {
		t.Errorf("Close err=%v closed=%v", err, w.closed)
	}
}
