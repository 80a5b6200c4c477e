//go:build linux

package adapter

import (
	"context"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// connectPollInterval bounds how long a pending connect waits between
// context checks.
const connectPollInterval = 100 * time.Millisecond

func dialRFCOMM(ctx context.Context, addr [6]byte, channel uint8) (rfcommConn, error) {
	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.BTPROTO_RFCOMM)
	if err != nil {
		return nil, os.NewSyscallError("socket", err)
	}

	// The kernel expects the address bytes in reverse order.
	sa := &unix.SockaddrRFCOMM{Channel: channel}
	for i := range addr {
		sa.Addr[i] = addr[len(addr)-1-i]
	}

	if err := connectNonblock(ctx, fd, sa); err != nil {
		unix.Close(fd)
		return nil, err
	}

	// fd is non-blocking, so the file is registered with the runtime poller
	// and supports deadlines.
	return os.NewFile(uintptr(fd), "rfcomm"), nil
}

func connectNonblock(ctx context.Context, fd int, sa unix.Sockaddr) error {
	err := unix.Connect(fd, sa)
	if err == nil {
		return nil
	}
	if err != unix.EINPROGRESS {
		return os.NewSyscallError("connect", err)
	}

	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLOUT}}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := unix.Poll(fds, int(connectPollInterval/time.Millisecond))
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return os.NewSyscallError("poll", err)
		}
		if n == 0 {
			continue
		}

		soErr, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
		if err != nil {
			return os.NewSyscallError("getsockopt", err)
		}
		if soErr != 0 {
			return os.NewSyscallError("connect", unix.Errno(soErr))
		}
		return nil
	}
}
