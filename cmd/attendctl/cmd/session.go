package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dkeye/Attend/internal/adapters/rtc"
	"github.com/dkeye/Attend/internal/client"
	"github.com/dkeye/Attend/internal/core"
	"github.com/dkeye/Attend/internal/ui"
)

type runCtx struct {
	ctx    context.Context
	cancel context.CancelFunc
	conn   *client.Conn
}

func connect(name, role string) (*runCtx, core.MediaFactory, error) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	wsURL, err := signalURL(flagServer, flagToken)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	conn, err := client.Dial(ctx, wsURL, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	media := rtc.Factory(rtc.DefaultWebRTCConfig(), rtc.Hello{Name: name, Role: role})
	return &runCtx{ctx: ctx, cancel: cancel, conn: conn}, media, nil
}

func (r *runCtx) Close() {
	r.conn.Close()
	r.cancel()
}

func printEvent(e client.Event) {
	if line := ui.EventLine(e); line != "" {
		fmt.Println(line)
	}
}
