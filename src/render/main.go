package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/jinjor/knob-synth/src/analysis"
	"golang.org/x/sync/errgroup"
)

var (
	sampleRate = flag.Int("rate", 48000, "sample rate in Hz")
	channels   = flag.Int("channels", 1, "number of channels")
	outDir     = flag.String("dir", ".", "directory for the rendered files")
	jobs       = flag.Int("jobs", 4, "scripts rendered at the same time")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Lshortfile)
	if flag.NArg() == 0 {
		log.Fatalf("usage: render [flags] script...")
	}
	if *sampleRate <= 0 || *channels <= 0 {
		log.Fatalf("invalid rate %d or channels %d", *sampleRate, *channels)
	}

	ctx := context.Background()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(*jobs)
	for _, path := range flag.Args() {
		path := path
		g.Go(func() error {
			return renderFile(ctx, path, *outDir, *sampleRate, *channels)
		})
	}
	err := g.Wait()
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Printf("Successfully rendered %d scripts.\n", flag.NArg())
}

func outputPath(dir, script string) string {
	base := filepath.Base(script)
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+".wav")
}

func renderFile(ctx context.Context, script, dir string, sampleRate, channels int) error {
	f, err := os.Open(script)
	if err != nil {
		return err
	}
	steps, err := parseScript(f)
	f.Close()
	if err != nil {
		return err
	}
	r, err := renderSteps(ctx, steps, sampleRate, channels)
	if err != nil {
		return err
	}
	path := outputPath(dir, script)
	if err := writeWAV(path, r); err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	log.Printf("rendered %s: %s, %s\n", path, durafmt.Parse(r.duration()).LimitFirstN(2), humanize.Bytes(uint64(info.Size())))
	if r.held {
		log.Printf("[WARN] %s ends with the note still held\n", path)
	}
	if r.peak == 0 {
		log.Printf("%s is silent\n", path)
		return nil
	}
	freq, err := analysis.PeakFrequency(r.mono, float64(sampleRate))
	if err != nil {
		log.Printf("%s too short to analyze: %v\n", path, err)
		return nil
	}
	log.Printf("%s: peak %.3f, dominant frequency %.1f Hz\n", path, r.peak, freq)
	return nil
}
