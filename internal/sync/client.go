package sync

import (
	"bufio"
	"context"
	"fmt"
	"net"

	json "github.com/goccy/go-json"
)

// Subscribe connects to the TCP feed at addr and calls handle for every
// activity event until ctx is cancelled or the server hangs up. Lines that
// are not activity events, such as the welcome line, are skipped.
func Subscribe(ctx context.Context, addr string, handle func(ActivityEvent)) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		var ev ActivityEvent
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil || ev.AnimeID == 0 {
			continue
		}
		handle(ev)
	}
	if ctx.Err() != nil {
		return nil
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return net.ErrClosed
}
