package publisher

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Stdout 不连接总线，每条消息写一行 "channel<TAB>body"
type Stdout struct {
	w         io.Writer
	closeOnce sync.Once
	closed    bool
}

// NewStdout 创建
func NewStdout(w io.Writer) *Stdout {
	return &Stdout{w: w}
}

func (p *Stdout) Publish(_ context.Context, channel string, body []byte) error {
	if p.closed {
		return &TransportError{Transport: TransportStdout, Channel: channel, Err: ErrClosed}
	}
	if _, err := fmt.Fprintf(p.w, "%s\t%s\n", channel, body); err != nil {
		return &TransportError{Transport: TransportStdout, Channel: channel, Err: err}
	}
	return nil
}

func (p *Stdout) Close() error {
	p.closeOnce.Do(func() { p.closed = true })
	return nil
}

func (p *Stdout) Transport() string { return TransportStdout }
