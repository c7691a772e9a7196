package main

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"testing"

	"github.com/jinjor/knob-synth/src/analysis"
	"github.com/jinjor/knob-synth/src/audio"
	"github.com/jinjor/knob-synth/src/control"
)

func TestReceiveEvents(t *testing.T) {
	tx, rx := audio.NewBus(16)
	ctl := control.NewSynthController(tx, control.DefaultNoteKey)
	server, client := net.Pipe()
	defer server.Close()

	done := make(chan error, 1)
	go func() {
		done <- receiveEvents(context.Background(), server, ctl)
	}()
	lines := []string{
		"key_down z",
		"set amplitude 0.5",
		"garbage",
		"set cutoff 0.1",
		"set frequency 0.5",
		"key_up z",
	}
	if _, err := client.Write([]byte(strings.Join(lines, "\n") + "\n")); err != nil {
		t.Fatal(err)
	}
	client.Close()

	if err := <-done; !errors.Is(err, errWindowClosed) {
		t.Fatalf("expected errWindowClosed, but got: %v", err)
	}
	var got []audio.Command
	rx.Drain(func(cmd audio.Command) {
		got = append(got, cmd)
	})
	expected := []audio.Command{
		audio.NoteOn(),
		audio.SetAmplitude(0.5),
		audio.SetFrequency(0.5),
		audio.NoteOff(),
	}
	if len(got) != len(expected) {
		t.Fatalf("expected %v, but got: %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("command %d: expected %v, but got: %v", i, expected[i], got[i])
		}
	}
}

func TestReceiveEventsCancelled(t *testing.T) {
	tx, _ := audio.NewBus(16)
	ctl := control.NewSynthController(tx, control.DefaultNoteKey)
	server, client := net.Pipe()
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	server.Close()
	if err := receiveEvents(ctx, server, ctl); err != nil {
		t.Errorf("expected no error, but got: %v", err)
	}
}

func TestFormatSpectrum(t *testing.T) {
	got := formatSpectrum([]float64{0, 0.5, 1.25})
	expected := "fft 0.000000 0.500000 1.250000"
	if got != expected {
		t.Errorf("expected %q, but got: %q", expected, got)
	}
}

func TestSendReports(t *testing.T) {
	cfg := audio.DefaultConfig()
	tx, rx := audio.NewBus(cfg.BusCapacity)
	stream, err := audio.NewStream(cfg, rx)
	if err != nil {
		t.Fatal(err)
	}
	ctl := control.NewSynthController(tx, control.DefaultNoteKey)
	if err := ctl.Dispatch(control.KeyDown(control.DefaultNoteKey)); err != nil {
		t.Fatal(err)
	}
	if _, err := stream.Read(make([]byte, fftSize*cfg.BytesPerFrame())); err != nil {
		t.Fatal(err)
	}

	server, client := net.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- sendReports(ctx, server, stream, ctl, analysis.Hamming)
	}()
	line, err := bufio.NewReader(client).ReadString('\n')
	if err != nil {
		t.Fatal(err)
	}
	cancel()
	client.Close()
	if err := <-done; err != nil {
		t.Errorf("expected no error, but got: %v", err)
	}

	fields := strings.Fields(line)
	if fields[0] != "fft" {
		t.Fatalf("expected an fft report, but got: %q", line)
	}
	if len(fields) != 1+fftSize/2 {
		t.Errorf("expected %d bins, but got: %d", fftSize/2, len(fields)-1)
	}
}
