// Package bridge は、Dispatcher を MQTT 経由で公開します。
// <prefix>/exec でブロックの実行要求を受け取り、結果を <prefix>/result に送ります。
// 割り込みは <prefix>/event/<pin> に、カタログは <prefix>/catalog に retained で送信します。
package bridge

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/c0deeast/suyuan-vm/blocks"
	"github.com/c0deeast/suyuan-vm/config"
	"github.com/c0deeast/suyuan-vm/dispatch"
	"github.com/c0deeast/suyuan-vm/interrupt"
	"github.com/c0deeast/suyuan-vm/log"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Client は、Bridge が使う mqtt.Client のメソッドです。
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	Unsubscribe(topics ...string) mqtt.Token
}

// Executor は、ブロックを実行します。*dispatch.Dispatcher が実装しています。
type Executor interface {
	Catalog() *blocks.Catalog
	Execute(ctx context.Context, opcode string, args map[string]interface{}) (dispatch.Result, error)
	Attach(ctx context.Context, args map[string]interface{}, body interrupt.Handler) error
}

var _ Executor = (*dispatch.Dispatcher)(nil)

// Request は、ブロックの実行要求です。
type Request struct {
	ID     string                 `json:"id"`
	Opcode string                 `json:"opcode"`
	Args   map[string]interface{} `json:"args"`
}

// Response は、Request に対する応答です。
type Response struct {
	ID    string       `json:"id"`
	OK    bool         `json:"ok"`
	Arity blocks.Arity `json:"arity"`
	Value interface{}  `json:"value"`
	Error string       `json:"error,omitempty"`
	Kind  string       `json:"kind,omitempty"`
}

// Event は、Bridge 経由で登録したピンの割り込みの通知です。
type Event struct {
	Pin  string    `json:"pin"`
	Mode string    `json:"mode"`
	High bool      `json:"high"`
	TS   time.Time `json:"ts"`
}

type Options struct {
	TopicPrefix string
	QoS         byte
	// Timeout は、送信とブロックの実行それぞれの制限時間です。
	Timeout time.Duration
	// QueueSize は、実行を待つことのできる要求の数です。
	QueueSize int
}

// Bridge は、受け取った順に要求を 1 つずつ実行します。
type Bridge struct {
	c      Client
	x      Executor
	prefix string
	qos    byte
	tmo    time.Duration

	queue chan Request
	wg    sync.WaitGroup

	mu      sync.Mutex
	running bool
	dropped int
}

// New は、新しい Bridge を作成します。Start するまでは何もしません。
func New(c Client, x Executor, opts Options) *Bridge {
	if opts.TopicPrefix == "" {
		opts.TopicPrefix = "suyuan"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	return &Bridge{
		c:      c,
		x:      x,
		prefix: strings.TrimRight(opts.TopicPrefix, "/"),
		qos:    opts.QoS,
		tmo:    opts.Timeout,
		queue:  make(chan Request, opts.QueueSize),
	}
}

func (b *Bridge) topic(parts ...string) string {
	return b.prefix + "/" + strings.Join(parts, "/")
}

// Start は、カタログを送信して exec トピックを購読し、
// ctx が終了するまでワーカーを動かします。
func (b *Bridge) Start(ctx context.Context) error {
	body, err := json.Marshal(b.x.Catalog())
	if err != nil {
		return errors.WithStack(err)
	}
	if err := b.wait(b.c.Publish(b.topic("catalog"), b.qos, true, body)); err != nil {
		return errors.Wrap(err, "publishing catalog")
	}
	if err := b.wait(b.c.Subscribe(b.topic("exec"), b.qos, b.onMessage)); err != nil {
		return errors.Wrap(err, "subscribing")
	}
	b.mu.Lock()
	b.running = true
	b.mu.Unlock()
	log.Infof("bridge listening on %s", b.topic("exec"))

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case req := <-b.queue:
				b.handle(ctx, req)
			}
		}
	}()
	return nil
}

// Stop は、購読を解除してワーカーの終了を待ちます。ワーカーの ctx は終了している必要があります。
func (b *Bridge) Stop() error {
	b.mu.Lock()
	running := b.running
	b.running = false
	b.mu.Unlock()
	if !running {
		return nil
	}
	err := b.wait(b.c.Unsubscribe(b.topic("exec")))
	b.wg.Wait()
	return err
}

// Dropped は、キューが一杯で破棄した要求の数を返します。
func (b *Bridge) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

func (b *Bridge) wait(t mqtt.Token) error {
	if !t.WaitTimeout(b.tmo) {
		return errors.New("mqtt operation timed out")
	}
	return errors.WithStack(t.Error())
}

// onMessage は、クライアントのルーターの goroutine で呼ばれるため、ブロックしてはいけません。
func (b *Bridge) onMessage(_ mqtt.Client, msg mqtt.Message) {
	var req Request
	if err := json.Unmarshal(msg.Payload(), &req); err != nil {
		log.Warnf("bridge: malformed request on %s: %s", msg.Topic(), err)
		b.respond(Response{ID: uuid.NewString(), Error: "malformed request: " + err.Error(), Kind: dispatch.KindArgument.String()})
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	select {
	case b.queue <- req:
	default:
		b.mu.Lock()
		b.dropped++
		b.mu.Unlock()
		log.Warnf("bridge: request %s dropped, queue full", req.ID)
	}
}

func (b *Bridge) handle(ctx context.Context, req Request) {
	ctx, cancel := context.WithTimeout(ctx, b.tmo)
	defer cancel()
	resp := Response{ID: req.ID}
	var err error
	if req.Opcode == blocks.Op_AttachInterrupt {
		err = b.x.Attach(ctx, req.Args, b.publishEvent)
	} else {
		var res dispatch.Result
		res, err = b.x.Execute(ctx, req.Opcode, req.Args)
		resp.Arity, resp.Value = res.Arity, res.Value
	}
	if err != nil {
		resp.Error = err.Error()
		resp.Kind = dispatch.KindOf(err).String()
	} else {
		resp.OK = true
	}
	b.respond(resp)
}

func (b *Bridge) respond(resp Response) {
	body, err := json.Marshal(resp)
	if err != nil {
		log.Warnf("bridge: %s", err)
		return
	}
	// not waited on: may run on the router goroutine
	b.c.Publish(b.topic("result"), b.qos, false, body)
}

func (b *Bridge) publishEvent(_ context.Context, ev interrupt.Event) error {
	body, err := json.Marshal(Event{Pin: ev.Pin, Mode: ev.Mode.String(), High: ev.High, TS: ev.TS})
	if err != nil {
		return errors.WithStack(err)
	}
	return b.wait(b.c.Publish(b.topic("event", ev.Pin), b.qos, false, body))
}

// Dial は、cfg に従ってブローカーに接続します。
func Dial(cfg config.MQTTConfig) (mqtt.Client, error) {
	id := cfg.ClientID
	if id == "" {
		id = "suyuan-vm-" + uuid.NewString()[:8]
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(id).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetKeepAlive(60 * time.Second).
		SetPingTimeout(10 * time.Second)

	client := mqtt.NewClient(opts)
	log.Infof("connecting to %s as %s", cfg.Broker, id)
	token := client.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout()) {
		client.Disconnect(0)
		return nil, errors.Errorf("connecting to %s timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, errors.Wrapf(err, "connecting to %s", cfg.Broker)
	}
	return client, nil
}
