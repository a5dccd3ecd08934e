//go:build !linux

package main

import (
	"context"
	"errors"
	"log/slog"
)

func runInteractive(context.Context, string, string, string, *slog.Logger) error {
	return errors.New("interactive play needs a linux terminal")
}
