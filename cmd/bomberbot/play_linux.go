//go:build linux

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

func setRawMode(fd int) (*unix.Termios, error) {
	settings, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, err
	}
	saved := *settings
	settings.Iflag &^= unix.BRKINT | unix.ICRNL | unix.INPCK | unix.ISTRIP | unix.IXON
	settings.Lflag &^= unix.ECHO | unix.ICANON | unix.IEXTEN | unix.ISIG
	settings.Cflag &^= unix.CSIZE | unix.PARENB
	settings.Cflag |= unix.CS8
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, settings); err != nil {
		return nil, err
	}
	return &saved, nil
}

// runInteractive joins as one player driven by the keyboard.
func runInteractive(ctx context.Context, url, origin, color string, logger *slog.Logger) error {
	c, err := dial(ctx, url, origin, logger)
	if err != nil {
		return err
	}
	defer c.close()

	fd := int(os.Stdin.Fd())
	saved, err := setRawMode(fd)
	if err != nil {
		return fmt.Errorf("raw mode: %w", err)
	}
	defer func() { _ = unix.IoctlSetTermios(fd, unix.TCSETS, saved) }()

	go c.readPump()
	go c.writePump()
	c.join(color)

	keys := make(chan byte)
	go func() {
		buf := make([]byte, 1)
		for {
			if _, err := os.Stdin.Read(buf); err != nil {
				close(keys)
				return
			}
			keys <- buf[0]
		}
	}()

	viewCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go watchView(viewCtx, c, 100*time.Millisecond)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.done:
			return nil
		case k, ok := <-keys:
			if !ok {
				return nil
			}
			switch k {
			case 'w', 'W':
				c.move(0, -1)
			case 's', 'S':
				c.move(0, 1)
			case 'a', 'A':
				c.move(-1, 0)
			case 'd', 'D':
				c.move(1, 0)
			case ' ':
				c.bomb()
			case 'q', 'Q', 3:
				return nil
			}
		}
	}
}
