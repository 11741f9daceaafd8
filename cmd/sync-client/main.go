package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	json "github.com/goccy/go-json"

	"animehub/internal/logging"
	synchub "animehub/internal/sync"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:7070", "TCP sync server address")
	user := flag.String("user", "", "only show events for this user id")
	pretty := flag.Bool("pretty", true, "pretty print JSON events")
	flag.Parse()

	logging.Init(logging.Config{Level: "info", Format: "console", Output: os.Stderr})
	log := logging.With("sync-client")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	show := func(ev synchub.ActivityEvent) {
		if *user != "" && ev.UserID != *user {
			return
		}
		var b []byte
		if *pretty {
			b, _ = json.MarshalIndent(ev, "", "  ")
		} else {
			b, _ = json.Marshal(ev)
		}
		fmt.Println(string(b))
	}

	for ctx.Err() == nil {
		log.Info().Str("addr", *addr).Msg("connecting")
		if err := synchub.Subscribe(ctx, *addr, show); err != nil {
			log.Warn().Err(err).Msg("disconnected")
		}
		select {
		case <-ctx.Done():
		case <-time.After(1 * time.Second): // auto reconnect
		}
	}
}
