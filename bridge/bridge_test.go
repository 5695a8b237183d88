package bridge

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/c0deeast/suyuan-vm/blocks"
	"github.com/c0deeast/suyuan-vm/board"
	"github.com/c0deeast/suyuan-vm/dispatch"
	"github.com/c0deeast/suyuan-vm/interrupt"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
)

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

type published struct {
	topic    string
	retained bool
	payload  []byte
}

type fakeClient struct {
	mu   sync.Mutex
	pubs []published
	subs map[string]mqtt.MessageHandler
}

func (c *fakeClient) Publish(topic string, _ byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pubs = append(c.pubs, published{topic, retained, payload.([]byte)})
	return doneToken{}
}

func (c *fakeClient) Subscribe(topic string, _ byte, cb mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs[topic] = cb
	return doneToken{}
}

func (c *fakeClient) Unsubscribe(topics ...string) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range topics {
		delete(c.subs, t)
	}
	return doneToken{}
}

func (c *fakeClient) deliver(topic, payload string) {
	c.mu.Lock()
	cb := c.subs[topic]
	c.mu.Unlock()
	cb(nil, &fakeMessage{topic: topic, payload: []byte(payload)})
}

func (c *fakeClient) waitFor(t *testing.T, topic string, n int) []published {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for {
		c.mu.Lock()
		var got []published
		for _, p := range c.pubs {
			if p.topic == topic {
				got = append(got, p)
			}
		}
		c.mu.Unlock()
		if len(got) >= n {
			return got
		}
		if time.Now().After(deadline) {
			t.Fatalf("%d messages on %s, want %d", len(got), topic, n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 1 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 1 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

type fakeExecutor struct {
	catalog *blocks.Catalog
	mu      sync.Mutex
	ops     []string
	body    interrupt.Handler
}

func (x *fakeExecutor) Catalog() *blocks.Catalog { return x.catalog }

func (x *fakeExecutor) Execute(_ context.Context, opcode string, args map[string]interface{}) (dispatch.Result, error) {
	x.mu.Lock()
	x.ops = append(x.ops, opcode)
	x.mu.Unlock()
	switch opcode {
	case blocks.Op_ReadAnalogPin:
		return dispatch.Result{Arity: blocks.Arity_Number, Value: 1234.0}, nil
	case blocks.Op_SetPinMode:
		return dispatch.Result{}, nil
	}
	return dispatch.Result{}, &dispatch.Error{Kind: dispatch.KindUnknownOpcode, Op: opcode, Err: errors.New("unknown block")}
}

func (x *fakeExecutor) Attach(_ context.Context, args map[string]interface{}, body interrupt.Handler) error {
	x.mu.Lock()
	x.body = body
	x.mu.Unlock()
	return nil
}

func start(t *testing.T) (*Bridge, *fakeClient, *fakeExecutor) {
	t.Helper()
	c, err := blocks.Load(board.ESP32)
	if err != nil {
		t.Fatal(err)
	}
	fc := &fakeClient{subs: map[string]mqtt.MessageHandler{}}
	x := &fakeExecutor{catalog: c}
	b := New(fc, x, Options{TopicPrefix: "lab/", QoS: 1})
	ctx, cancel := context.WithCancel(context.Background())
	if err := b.Start(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		cancel()
		b.Stop()
	})
	return b, fc, x
}

func TestCatalogRetained(t *testing.T) {
	_, fc, _ := start(t)
	p := fc.waitFor(t, "lab/catalog", 1)[0]
	if !p.retained {
		t.Error("catalog not retained")
	}
	var cats []map[string]interface{}
	if err := json.Unmarshal(p.payload, &cats); err != nil || len(cats) != 4 {
		t.Errorf("catalog payload: %v, %d categories", err, len(cats))
	}
}

func TestExecInOrder(t *testing.T) {
	_, fc, x := start(t)
	fc.deliver("lab/exec", `{"id":"a","opcode":"setPinMode","args":{"PIN":"2","MODE":"OUTPUT"}}`)
	fc.deliver("lab/exec", `{"opcode":"readAnalogPin","args":{"PIN":"34"}}`)
	fc.deliver("lab/exec", `{"id":"c","opcode":"playNote"}`)
	fc.deliver("lab/exec", `not json`)

	pubs := fc.waitFor(t, "lab/result", 4)
	var rs []Response
	for _, p := range pubs {
		var r Response
		if err := json.Unmarshal(p.payload, &r); err != nil {
			t.Fatal(err)
		}
		rs = append(rs, r)
	}
	// the malformed request is answered from the router, ahead of the queue
	byID := map[string]Response{}
	for _, r := range rs {
		byID[r.ID] = r
	}
	if r := byID["a"]; !r.OK {
		t.Errorf("a = %+v", r)
	}
	if r := byID["c"]; r.OK || r.Kind != "unknownOpcode" {
		t.Errorf("c = %+v", r)
	}
	var read *Response
	for i := range rs {
		if rs[i].Value == 1234.0 {
			read = &rs[i]
		}
	}
	if read == nil || read.ID == "" || !read.OK {
		t.Errorf("analog read response missing: %+v", rs)
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if len(x.ops) != 3 || x.ops[0] != blocks.Op_SetPinMode || x.ops[1] != blocks.Op_ReadAnalogPin {
		t.Errorf("ops = %v", x.ops)
	}
}

func TestInterruptEvents(t *testing.T) {
	_, fc, x := start(t)
	fc.deliver("lab/exec", `{"id":"irq","opcode":"esp32AttachInterrupt","args":{"PIN":"4","MODE":"RISING"}}`)
	fc.waitFor(t, "lab/result", 1)

	x.mu.Lock()
	body := x.body
	x.mu.Unlock()
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := body(context.Background(), interrupt.Event{Pin: "4", Mode: board.InterruptMode_Rising, High: true, TS: ts}); err != nil {
		t.Fatal(err)
	}
	p := fc.waitFor(t, "lab/event/4", 1)[0]
	var ev Event
	if err := json.Unmarshal(p.payload, &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Pin != "4" || ev.Mode != "RISING" || !ev.High || !ev.TS.Equal(ts) {
		t.Errorf("event = %+v", ev)
	}
}

func TestResponseJSON(t *testing.T) {
	in := Response{ID: "r1", OK: true, Arity: blocks.Arity_Number, Value: 1234.5}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var out Response
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Errorf("got %+v, want %+v", out, in)
	}

	in = Response{ID: "r2", Arity: blocks.Arity_None, Error: "unknown block", Kind: dispatch.KindUnknownOpcode.String()}
	b, _ = json.Marshal(in)
	out = Response{}
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Errorf("got %+v, want %+v", out, in)
	}
}
