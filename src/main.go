package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/jinjor/knob-synth/src/analysis"
	"github.com/jinjor/knob-synth/src/audio"
	"github.com/jinjor/knob-synth/src/control"
	"github.com/jinjor/knob-synth/src/speaker"
	"golang.org/x/sync/errgroup"
)

const (
	fftSize        = 2048
	reportInterval = time.Second / 30
	statsInterval  = time.Second
)

// errWindowClosed ends the session when the front-end goes away.
var errWindowClosed = errors.New("front-end closed the connection")

var (
	sampleRate   = flag.Int("rate", 48000, "sample rate in Hz")
	channels     = flag.Int("channels", 2, "number of output channels")
	sampleFormat = flag.String("format", "f32", "sample format: f32, s16 or u8")
	bufferSize   = flag.Duration("buffer", 0, "output buffer size, 0 lets the driver decide")
	busCapacity  = flag.Int("bus", audio.DefaultBusCapacity, "parameter bus capacity")
	sockFileName = flag.String("sock", "/tmp/knob-synth.sock", "unix socket for the front-end")
	useKeyboard  = flag.Bool("keyboard", true, "read keys from the terminal when stdin is one")
	releaseAfter = flag.Duration("release", control.DefaultReleaseAfter, "release the note this long after the last key repeat")
	windowName   = flag.String("window", "han", "spectrum window: han, hamming, blackman or none")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Lshortfile)
	log.Printf("NumCPU: %v\n", runtime.NumCPU())

	if err := run(); err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("main() ended.")
}

func configFromFlags() (audio.Config, error) {
	format, err := audio.ParseSampleFormat(*sampleFormat)
	if err != nil {
		return audio.Config{}, err
	}
	cfg := audio.Config{
		SampleRate:  *sampleRate,
		Channels:    *channels,
		Format:      format,
		BusCapacity: *busCapacity,
		BufferSize:  *bufferSize,
	}
	return cfg, cfg.Validate()
}

func run() error {
	cfg, err := configFromFlags()
	if err != nil {
		return err
	}
	window, err := analysis.WindowFromString(*windowName)
	if err != nil {
		return err
	}

	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tx, rx := audio.NewBus(cfg.BusCapacity)
	defer tx.Close()
	log.Printf("parameter bus holds %d commands\n", tx.Cap())
	stream, err := audio.NewStream(cfg, rx)
	if err != nil {
		return err
	}
	device, err := speaker.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := device.Close(); err != nil {
			log.Printf("error while closing device: %v", err)
		}
	}()
	ctl := control.NewSynthController(tx, control.DefaultNoteKey)

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer func() {
		signal.Stop(signalCh)
		cancel()
	}()
	go func() {
		select {
		case sig := <-signalCh:
			log.Printf("Caught signal %s: shutting down...\n", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return device.Play(ctx, stream)
	})
	g.Go(func() error {
		return serveIPC(ctx, *sockFileName, ctl, stream, window)
	})
	if *useKeyboard && control.IsTerminal(os.Stdin) {
		log.Println("keys: z note, a/s amplitude, k/l frequency, q quit")
		restore, err := control.MakeRaw(os.Stdin)
		if err != nil {
			log.Printf("keyboard disabled: %v\n", err)
		} else {
			defer restore()
			kb := control.NewKeyboard(ctl, control.DefaultNoteKey[0])
			kb.SetReleaseAfter(*releaseAfter)
			g.Go(func() error {
				return kb.Run(ctx, os.Stdin)
			})
		}
	}
	err = g.Wait()
	log.Printf("rendered %s frames in %s, dropped %s commands\n",
		humanize.Comma(int64(stream.FramesRendered())),
		durafmt.Parse(time.Since(start)).LimitFirstN(2),
		humanize.Comma(int64(ctl.Dropped())),
	)
	if errors.Is(err, control.ErrQuit) || errors.Is(err, errWindowClosed) {
		log.Printf("session ended: %v\n", err)
		return nil
	}
	return err
}

// serveIPC waits for the front-end and serves it until either side stops.
func serveIPC(ctx context.Context, path string, ctl *control.Controller, stream *audio.Stream, window analysis.Window) error {
	os.Remove(path)
	listener, err := new(net.ListenConfig).Listen(ctx, "unix", path)
	if err != nil {
		return err
	}
	defer func() {
		log.Println("Closing IPC...")
		err := listener.Close()
		if err != nil && !errors.Is(err, net.ErrClosed) {
			log.Printf("error while closing listener: %v", err)
		}
		os.Remove(path)
	}()
	stopListening := context.AfterFunc(ctx, func() {
		listener.Close()
	})
	defer stopListening()

	log.Printf("start listening on %s...\n", path)
	conn, err := listener.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	defer func() {
		err := conn.Close()
		if err != nil && !errors.Is(err, net.ErrClosed) {
			log.Printf("error while closing connection: %v", err)
		}
	}()
	stopConn := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stopConn()
	log.Println("front-end connected")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return receiveEvents(ctx, conn, ctl)
	})
	g.Go(func() error {
		return sendReports(ctx, conn, stream, ctl, window)
	})
	return g.Wait()
}

func receiveEvents(ctx context.Context, conn net.Conn, ctl *control.Controller) error {
	reader := bufio.NewReader(conn)
	var line []byte
	for {
		next, isPrefix, err := reader.ReadLine()
		if ctx.Err() != nil {
			log.Println("Connection interrupted")
			return nil
		}
		if err == io.EOF {
			return errWindowClosed
		}
		if err != nil {
			return err
		}
		line = append(line, next...)
		if isPrefix {
			continue
		}
		event, err := control.ParseEvent(string(line))
		line = line[:0]
		if err != nil {
			log.Printf("[WARN] %v\n", err)
			continue
		}
		if err := ctl.Dispatch(event); err != nil {
			switch {
			case errors.Is(err, control.ErrUnbound):
				log.Printf("[WARN] %v\n", err)
			case errors.Is(err, audio.ErrBusFull):
				// already logged, the next update supersedes it
			default:
				return err
			}
		}
	}
}

func sendReports(ctx context.Context, conn net.Conn, stream *audio.Stream, ctl *control.Controller, window analysis.Window) error {
	analyzer, err := analysis.NewAnalyzer(fftSize, window)
	if err != nil {
		return err
	}
	tap := stream.Monitor()
	samples := make([]float64, fftSize)
	filled := 0
	lastStats := time.Now()

	t := time.NewTicker(reportInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("sendReports() interrupted")
			return nil
		case <-t.C:
		}
		var reports []string
		filled += tap.Read(samples[filled:])
		if filled == len(samples) {
			filled = 0
			spectrum, err := analyzer.Spectrum(samples)
			if err != nil {
				return err
			}
			reports = append(reports, formatSpectrum(spectrum))
		}
		if time.Since(lastStats) >= statsInterval {
			lastStats = time.Now()
			reports = append(reports, fmt.Sprintf("stats %d %d", stream.FramesRendered(), ctl.Dropped()))
		}
		for _, report := range reports {
			if _, err := conn.Write([]byte(report + "\n")); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("%w: %v", errWindowClosed, err)
			}
		}
	}
}

func formatSpectrum(spectrum []float64) string {
	var b strings.Builder
	b.WriteString("fft")
	for _, value := range spectrum {
		b.WriteByte(' ')
		b.WriteString(strconv.FormatFloat(value, 'f', 6, 64))
	}
	return b.String()
}
