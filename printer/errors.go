package printer

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is wrapped by every validation error
	ErrInvalidRequest = errors.New("invalid print request")

	ErrInvalidConnectionType = fmt.Errorf("%w: invalid connection type", ErrInvalidRequest)
	ErrInvalidPort           = fmt.Errorf("%w: invalid port number", ErrInvalidRequest)
	ErrMissingAddress        = fmt.Errorf("%w: printer address is required", ErrInvalidRequest)

	// ErrUnsupportedTransport is returned when the registry has no driver for a transport
	ErrUnsupportedTransport = errors.New("no driver registered for transport")

	// ErrSessionUsed is returned when a session is run a second time
	ErrSessionUsed = errors.New("printer session already used")
)

// ErrorKind classifies a failed print
type ErrorKind int

const (
	KindDeviceNotFound ErrorKind = iota + 1
	KindConnection
	KindTransmission
	KindClose
)

func (k ErrorKind) String() string {
	switch k {
	case KindDeviceNotFound, KindConnection:
		return "Printer connection error"
	case KindTransmission:
		return "Printer transmission error"
	case KindClose:
		return "Printer close error"
	default:
		return "Error printing data"
	}
}

// PrintError reports a failure after validation: opening, writing to or
// closing the device.
type PrintError struct {
	Kind      ErrorKind
	Transport Transport
	// Step names the job command that failed to write (KindTransmission only)
	Step string
	Err  error
}

func (e *PrintError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Step, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *PrintError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a PrintError in err's chain, or 0
func KindOf(err error) ErrorKind {
	var pe *PrintError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}
