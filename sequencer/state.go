package sequencer

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/ahmetalpbalkan/go-cursor"
	"github.com/c0deeast/suyuan-vm/blocks"
	"github.com/c0deeast/suyuan-vm/board"
	"github.com/c0deeast/suyuan-vm/dispatch"
	"github.com/c0deeast/suyuan-vm/interrupt"
	"github.com/c0deeast/suyuan-vm/log"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// PinState は、監視中のピン 1 本の状態です。
type PinState struct {
	Pin        board.Pin
	High       bool
	Analog     float64
	HasAnalog  bool
	Changes    int
	Interrupts int
	LastChange time.Time
}

// Print は、ピンの状態を 1 行で表示します。
func (ps *PinState) Print(w io.Writer) {
	level := board.LevelOf(ps.High)
	analog := "-"
	if ps.HasAnalog {
		analog = fmt.Sprintf("%g", ps.Analog)
	}
	last := "-"
	if !ps.LastChange.IsZero() {
		last = ps.LastChange.Format("15:04:05.000")
	}
	fmt.Fprintf(
		w,
		"%-5s %-4s %6s %7d %5d %s\n",
		ps.Pin.Name,
		level,
		analog,
		ps.Changes,
		ps.Interrupts,
		last,
	)
}

// WatchState は、ピン監視の状態です。
type WatchState struct {
	mu    sync.Mutex
	Pins  []*PinState
	Polls int
}

// NewWatchState は、指定したピンを監視する WatchState を作成します。
func NewWatchState(v *board.Variant, pins []string) (*WatchState, error) {
	ws := &WatchState{}
	seen := map[string]bool{}
	for _, s := range pins {
		p, ok := v.Pin(s)
		if !ok || !p.Caps.Has(board.Cap_Input) || v.IsFlashReserved(p.Value) {
			return nil, errors.Errorf("pin %s cannot be read on %s", s, v.Name)
		}
		if seen[p.Value] {
			continue
		}
		seen[p.Value] = true
		ws.Pins = append(ws.Pins, &PinState{Pin: p})
	}
	sort.SliceStable(ws.Pins, func(i, j int) bool {
		return cast.ToInt(ws.Pins[i].Pin.Value) < cast.ToInt(ws.Pins[j].Pin.Value)
	})
	return ws, nil
}

func (ws *WatchState) find(pin string) *PinState {
	for _, ps := range ws.Pins {
		if ps.Pin.Value == pin {
			return ps
		}
	}
	return nil
}

// Update は、読み取った値を反映します。値が変化した場合は真を返します。
func (ws *WatchState) Update(pin string, high bool, analog *float64, at time.Time) bool {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ps := ws.find(pin)
	if ps == nil {
		return false
	}
	changed := ps.High != high || ps.LastChange.IsZero()
	if analog != nil {
		changed = changed || !ps.HasAnalog || ps.Analog != *analog
		ps.Analog = *analog
		ps.HasAnalog = true
	}
	if changed {
		ps.Changes++
		ps.LastChange = at
	}
	ps.High = high
	return changed
}

// Interrupted は、割り込みの発生を記録します。
func (ws *WatchState) Interrupted(ev interrupt.Event) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ps := ws.find(ev.Pin); ps != nil {
		ps.Interrupts++
		ps.High = ev.High
		ps.LastChange = ev.TS
	}
}

// Print は、画面をクリアして状態を表示します。
func (ws *WatchState) Print(w io.Writer) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	fmt.Fprint(w, cursor.ClearEntireScreen())
	fmt.Fprint(w, cursor.MoveTo(0, 0))
	fmt.Fprintf(w, "Pin   Lv   Analog Changes   IRQ Last change   (poll #%d)\n", ws.Polls)
	for _, ps := range ws.Pins {
		ps.Print(w)
	}
}

// WatchOptions は、ピン監視の設定です。
type WatchOptions struct {
	Interval time.Duration
	// Interrupt が空でなければ、各ピンにこのモードの割り込みを登録して発生回数も数えます。
	Interrupt board.InterruptMode
	Out       io.Writer
}

// Watch は、ctx が終了するまでピンを定期的に読み取り、変化があるたびに状態を表示します。
func Watch(ctx context.Context, d *dispatch.Dispatcher, ws *WatchState, opts *WatchOptions) error {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	analog := map[string]bool{}
	if m, ok := d.Catalog().Menu(blocks.Menu_AnalogPins); ok {
		for _, ps := range ws.Pins {
			analog[ps.Pin.Value] = m.Contains(ps.Pin.Value)
		}
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := d.Stop(stopCtx); err != nil {
			log.Warnf("%s", err)
		}
	}()
	if opts.Interrupt != "" {
		for _, ps := range ws.Pins {
			args := map[string]interface{}{"PIN": ps.Pin.Value, "MODE": opts.Interrupt.String()}
			err := d.Attach(ctx, args, func(_ context.Context, ev interrupt.Event) error {
				ws.Interrupted(ev)
				ws.Print(opts.Out)
				return nil
			})
			if err != nil {
				return err
			}
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		changed := false
		for _, ps := range ws.Pins {
			pin := ps.Pin.Value
			res, err := d.Execute(ctx, blocks.Op_ReadDigitalPin, map[string]interface{}{"PIN": pin})
			if err != nil {
				return stopped(ctx, err)
			}
			var a *float64
			if analog[pin] {
				res, err := d.Execute(ctx, blocks.Op_ReadAnalogPin, map[string]interface{}{"PIN": pin})
				if err != nil {
					return stopped(ctx, err)
				}
				f := cast.ToFloat64(res.Value)
				a = &f
			}
			if ws.Update(pin, cast.ToBool(res.Value), a, time.Now()) {
				changed = true
			}
		}
		ws.mu.Lock()
		ws.Polls++
		ws.mu.Unlock()
		if changed {
			ws.Print(opts.Out)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// stopped は、ctx の終了によって中断された読み取りをエラーとして扱いません。
func stopped(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	return err
}
