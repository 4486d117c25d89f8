//go:build !windows

package main

import (
	"context"
	"errors"

	"github.com/urraka/volumeicon/internal/config"
)

var errUnsupported = errors.New("the tray icon is only available on Windows")

func runTray(ctx context.Context, cfg *config.Config) error {
	return errUnsupported
}
