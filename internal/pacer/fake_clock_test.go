package pacer

import (
	"context"
	"time"
)

// fakeClock 只在 Sleep 时前进
type fakeClock struct {
	now     time.Time
	sleeps  []time.Duration
	onSleep func(n int, d time.Duration)
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	if c.onSleep != nil {
		c.onSleep(len(c.sleeps), d)
	}
	return ctx.Err()
}

func (c *fakeClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type published struct {
	channel string
	body    string
	ctxErr  error
}

// recordingPublisher 记录每次发布；err 非空时全部失败
type recordingPublisher struct {
	messages  []published
	err       error
	onPublish func(n int)
	calls     int
}

func (p *recordingPublisher) Publish(ctx context.Context, channel string, body []byte) error {
	p.calls++
	if p.onPublish != nil {
		p.onPublish(p.calls)
	}
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, published{channel: channel, body: string(body), ctxErr: ctx.Err()})
	return nil
}

type acceptAll struct{}

func (acceptAll) Validate(string, []byte) error { return nil }

type countingRecorder struct {
	published     map[string]int
	publishErrors int
	violations    int
	overruns      int
	ticks         int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{published: map[string]int{}}
}

func (r *countingRecorder) Published(channel string)    { r.published[channel]++ }
func (r *countingRecorder) PublishError(string)         { r.publishErrors++ }
func (r *countingRecorder) Violation(string)            { r.violations++ }
func (r *countingRecorder) Overrun()                    { r.overruns++ }
func (r *countingRecorder) ObserveTick(time.Duration)   { r.ticks++ }
