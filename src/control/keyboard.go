package control

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"golang.org/x/term"
)

// DefaultReleaseAfter is longer than the usual autorepeat delay, so a held
// key keeps the note sounding.
const DefaultReleaseAfter = 600 * time.Millisecond

// ErrQuit is returned by Keyboard.Run when the user asked to quit.
var ErrQuit = errors.New("quit requested")

const (
	keyCtrlC = 0x03
	keyCtrlD = 0x04
)

// ----- Keyboard ----- //

// Keyboard is a terminal front-end. Terminals report key presses but not
// releases, so the note key is considered released when its autorepeat stops.
//
//	z     note (hold)
//	a s   amplitude down / up
//	k l   frequency down / up
//	q     quit
type Keyboard struct {
	ctl          *Controller
	noteKey      byte
	amplitude    *Knob
	frequency    *Knob
	releaseAfter time.Duration
}

// NewKeyboard ...
func NewKeyboard(ctl *Controller, noteKey byte) *Keyboard {
	return &Keyboard{
		ctl:          ctl,
		noteKey:      noteKey,
		amplitude:    NewKnob(TargetAmplitude, 1.0),
		frequency:    NewKnob(TargetFrequency, 0.0),
		releaseAfter: DefaultReleaseAfter,
	}
}

// SetReleaseAfter changes how long the note key may stay silent before the
// note is released.
func (k *Keyboard) SetReleaseAfter(d time.Duration) {
	k.releaseAfter = d
}

// Amplitude ...
func (k *Keyboard) Amplitude() *Knob { return k.amplitude }

// Frequency ...
func (k *Keyboard) Frequency() *Knob { return k.frequency }

// Run reads keys from r until ctx is done, r is exhausted or the user quits.
// A held note is released before returning. Reading happens on a separate
// goroutine that stays blocked in r.Read after a cancellation until r
// delivers data or fails, so callers that outlive Run should close r.
func (k *Keyboard) Run(ctx context.Context, r io.Reader) error {
	keys := make(chan byte, 64)
	go func() {
		defer close(keys)
		buf := make([]byte, 64)
		for {
			n, err := r.Read(buf)
			for _, b := range buf[:n] {
				select {
				case keys <- b:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()

	k.dispatch(k.amplitude.Set(k.amplitude.Value()))
	k.dispatch(k.frequency.Set(k.frequency.Value()))

	release := time.NewTimer(k.releaseAfter)
	release.Stop()
	defer release.Stop()
	held := false
	defer func() {
		if held {
			k.dispatch(KeyUp(string(k.noteKey)))
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-release.C:
			if held {
				k.dispatch(KeyUp(string(k.noteKey)))
				held = false
			}
		case b, ok := <-keys:
			if !ok {
				return nil
			}
			if 'A' <= b && b <= 'Z' {
				b += 'a' - 'A'
			}
			switch b {
			case k.noteKey:
				if !held {
					k.dispatch(KeyDown(string(k.noteKey)))
					held = true
				}
				release.Reset(k.releaseAfter)
			case 'a':
				k.dispatch(k.amplitude.Nudge(-1))
			case 's':
				k.dispatch(k.amplitude.Nudge(1))
			case 'k':
				k.dispatch(k.frequency.Nudge(-1))
			case 'l':
				k.dispatch(k.frequency.Nudge(1))
			case 'q', keyCtrlC, keyCtrlD:
				return ErrQuit
			}
		}
	}
}

func (k *Keyboard) dispatch(e Event) {
	if err := k.ctl.Dispatch(e); err != nil && !errors.Is(err, ErrUnbound) {
		log.Printf("failed to dispatch %v: %v\n", e, err)
	}
}

// IsTerminal ...
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// MakeRaw puts the terminal behind f into raw mode so single key presses
// arrive without waiting for Enter. The returned function restores it.
func MakeRaw(f *os.File) (func(), error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("%s is not a terminal", f.Name())
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to set raw mode: %w", err)
	}
	return func() {
		if err := term.Restore(fd, oldState); err != nil {
			log.Printf("failed to restore terminal: %v\n", err)
		}
	}, nil
}
