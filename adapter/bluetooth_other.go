//go:build !linux

package adapter

import (
	"context"
	"fmt"
)

func dialRFCOMM(ctx context.Context, addr [6]byte, channel uint8) (rfcommConn, error) {
	return nil, fmt.Errorf("bluetooth rfcomm: %w", ErrNotSupported)
}
