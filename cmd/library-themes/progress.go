package main

import (
	"io"
	"sync/atomic"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// progressBar renders discovery progress on a terminal.
type progressBar struct {
	p       *mpb.Progress
	bar     *mpb.Bar
	message atomic.Value
}

func newProgressBar(out io.Writer) *progressBar {
	pb := &progressBar{p: mpb.New(mpb.WithWidth(64), mpb.WithOutput(out))}
	pb.message.Store("Starting")
	pb.bar = pb.p.AddBar(100,
		mpb.PrependDecorators(
			decor.Any(func(decor.Statistics) string {
				return pb.message.Load().(string)
			}, decor.WCSyncSpaceR),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
		),
	)
	return pb
}

// Update matches themes.ProgressFunc.
func (pb *progressBar) Update(message string, percent int) {
	pb.message.Store(message)
	if percent < 0 {
		pb.bar.Abort(false)
		return
	}
	pb.bar.SetCurrent(int64(percent))
}

// Finish stops the bar and waits for the final render.
func (pb *progressBar) Finish() {
	if !pb.bar.Completed() {
		pb.bar.Abort(false)
	}
	pb.p.Wait()
}
