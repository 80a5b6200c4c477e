package printer

import (
	"fmt"
	"strconv"
	"strings"
)

// Port bounds for network printers
const (
	MinPort = 0
	MaxPort = 65535
)

// Defaults are fallbacks for network requests that omit the address or
// port. Zero values mean no fallback; a request missing the field is
// rejected.
type Defaults struct {
	Address string
	Port    int
}

// Validator turns raw request fields into a PrintTarget
type Validator struct {
	Defaults Defaults
}

// NewValidator returns a validator using the given fallbacks
func NewValidator(defaults Defaults) *Validator {
	return &Validator{Defaults: defaults}
}

// Validate checks a raw (connectionType, address, port) triple. It has no
// side effects.
func (v *Validator) Validate(connectionType, address, portRaw string) (PrintTarget, error) {
	transport, err := ParseTransport(connectionType)
	if err != nil {
		return PrintTarget{}, err
	}

	address = strings.TrimSpace(address)

	switch transport {
	case TransportUSB:
		return NewUSBTarget(), nil

	case TransportNetwork:
		port, err := v.parsePort(portRaw)
		if err != nil {
			return PrintTarget{}, err
		}
		if address == "" {
			address = v.Defaults.Address
		}
		return NewNetworkTarget(address, port)

	case TransportBluetooth:
		return NewBluetoothTarget(address)
	}

	return PrintTarget{}, fmt.Errorf("%w: %q", ErrInvalidConnectionType, connectionType)
}

func (v *Validator) parsePort(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if v.Defaults.Port > 0 {
			return v.Defaults.Port, nil
		}
		return 0, fmt.Errorf("%w: port is required", ErrInvalidPort)
	}

	port, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidPort, raw)
	}
	if port < MinPort || port > MaxPort {
		return 0, fmt.Errorf("%w: %d out of range", ErrInvalidPort, port)
	}
	return int(port), nil
}
