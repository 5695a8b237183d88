package sequencer

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/c0deeast/suyuan-vm/blocks"
	"github.com/c0deeast/suyuan-vm/dispatch"
	"github.com/c0deeast/suyuan-vm/interrupt"
	"github.com/c0deeast/suyuan-vm/log"
	"github.com/pkg/errors"
)

/*

ダミーのシリアルデバイスでプログラムを試す

$ socat -d -d pty,raw pty,raw &
socat[31853] N PTY is /dev/ttys006  <- run の <device> に指定
socat[31853] N PTY is /dev/ttys007  <- これを cat して確認

$ cat /dev/ttys007

実機がない場合は <device> に /dev/null を指定すると、送信内容がデバッグログに出力されます。

*/

// SequencerOptions は、プログラム再生時の設定です。
type SequencerOptions struct {
	// Loop は、プログラム全体の繰り返し回数です（0: 停止されるまで繰り返す）。
	Loop int
	// Linger は、最後のステップの後、割り込みを待ち続ける時間です。
	// 負の値を指定すると、ctx が終了するまで待ちます。
	Linger time.Duration
	// OnStep は、ブロックを実行するたびに呼ばれます。
	OnStep func(opcode string, res dispatch.Result)
}

// Sequencer は、ブロックプログラムを Dispatcher で順に実行します。
// 割り込みのボディは、割り込みテーブルのワーカーから非同期に実行されます。
type Sequencer struct {
	d *dispatch.Dispatcher

	mu   sync.RWMutex
	vars map[string]interface{}
	opts *SequencerOptions
}

// New は、新しい Sequencer を作成します。
// d の割り込みテーブルは、呼び出し側で Start しておく必要があります。
func New(d *dispatch.Dispatcher) *Sequencer {
	return &Sequencer{d: d, vars: map[string]interface{}{}}
}

// Var は、保存された変数の値を返します。
func (q *Sequencer) Var(name string) (interface{}, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	v, ok := q.vars[name]
	return v, ok
}

func (q *Sequencer) store(name string, v interface{}) {
	q.mu.Lock()
	q.vars[name] = v
	q.mu.Unlock()
}

// Play は、プログラムを実行します。
// 途中のステップが失敗するとその時点で中断し、エラーを返します。
// 終了時には、登録されたすべての割り込みを解除します。
func (q *Sequencer) Play(ctx context.Context, p *Program, opts *SequencerOptions) (err error) {
	if opts == nil {
		opts = &SequencerOptions{Loop: 1}
	}
	if err := p.Validate(q.d.Catalog()); err != nil {
		return err
	}
	q.opts = opts
	if p.Name != "" {
		log.Infof("=============== playing %s", p.Name)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if e := q.d.Stop(stopCtx); e != nil && err == nil {
			err = e
		}
	}()

	for i := 0; opts.Loop == 0 || i < opts.Loop; i++ {
		log.Enter()
		err := q.runSteps(ctx, p.Steps)
		log.Leave()
		if err != nil {
			return err
		}
	}
	if opts.Linger != 0 && 0 < q.d.Table().Len() {
		log.Infof("waiting for interrupts")
		return q.linger(ctx, opts.Linger)
	}
	return nil
}

func (q *Sequencer) linger(ctx context.Context, d time.Duration) error {
	if d < 0 {
		<-ctx.Done()
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
	return nil
}

func (q *Sequencer) runSteps(ctx context.Context, steps []*Step) error {
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return errors.WithStack(err)
		}
		if err := q.runStep(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (q *Sequencer) runStep(ctx context.Context, s *Step) error {
	switch {
	case s.Wait != "":
		log.Debugf("wait %s", s.wait)
		t := time.NewTimer(s.wait)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return errors.WithStack(ctx.Err())
		case <-t.C:
		}
		return nil

	case s.Block == "":
		for i := 0; s.Repeat == 0 || i < s.Repeat; i++ {
			if err := q.runSteps(ctx, s.Steps); err != nil {
				return err
			}
		}
		return nil
	}

	args, err := q.resolveArgs(s.Args)
	if err != nil {
		return errors.Wrap(err, s.Block)
	}
	if s.Body != nil {
		body := s.Body
		return q.d.Attach(ctx, args, func(ctx context.Context, ev interrupt.Event) error {
			log.Debugf("interrupt on pin %s (%s)", ev.Pin, ev.Mode)
			return q.runSteps(ctx, body)
		})
	}
	res, err := q.d.Execute(ctx, s.Block, args)
	if err != nil {
		return err
	}
	if s.Store != "" {
		q.store(s.Store, res.Value)
	}
	if q.opts != nil && q.opts.OnStep != nil {
		q.opts.OnStep(s.Block, res)
	}
	if res.Arity != blocks.Arity_None {
		log.Infof("%s = %v", s.Block, res.Value)
	}
	return nil
}

// resolveArgs は、$名前 の形式の引数を保存済みの変数の値で置き換えます。
func (q *Sequencer) resolveArgs(args map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(args))
	for k, v := range args {
		if s, ok := v.(string); ok && strings.HasPrefix(s, "$") {
			name := s[1:]
			val, ok := q.Var(name)
			if !ok {
				return nil, errors.Errorf("argument %s refers to undefined variable %q", k, name)
			}
			v = val
		}
		out[k] = v
	}
	return out, nil
}
