// Package printer validates print requests and runs single-use printer
// sessions over the USB, network and Bluetooth transports.
package printer

import (
	"fmt"
	"net"
	"strconv"
)

// Transport is the link used to reach a printer
type Transport int

const (
	TransportUSB Transport = iota + 1
	TransportNetwork
	TransportBluetooth
)

// Connection type strings accepted from clients
const (
	ConnectionUSB       = "usb"
	ConnectionWiFi      = "wifi"
	ConnectionBluetooth = "bluetooth"
)

// ParseTransport maps a connection type string to a Transport. Matching is
// case-sensitive.
func ParseTransport(connectionType string) (Transport, error) {
	switch connectionType {
	case ConnectionUSB:
		return TransportUSB, nil
	case ConnectionWiFi:
		return TransportNetwork, nil
	case ConnectionBluetooth:
		return TransportBluetooth, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidConnectionType, connectionType)
	}
}

func (t Transport) String() string {
	switch t {
	case TransportUSB:
		return "usb"
	case TransportNetwork:
		return "network"
	case TransportBluetooth:
		return "bluetooth"
	default:
		return "Transport(" + strconv.Itoa(int(t)) + ")"
	}
}

// PrintTarget describes which printer to reach and how. It is immutable;
// build one with NewUSBTarget, NewNetworkTarget or NewBluetoothTarget, or
// through a Validator.
type PrintTarget struct {
	transport Transport
	address   string
	port      int
}

// NewUSBTarget returns a target for the locally attached USB printer
func NewUSBTarget() PrintTarget {
	return PrintTarget{transport: TransportUSB}
}

// NewNetworkTarget returns a target for a socket printer at address:port
func NewNetworkTarget(address string, port int) (PrintTarget, error) {
	if address == "" {
		return PrintTarget{}, ErrMissingAddress
	}
	if port < MinPort || port > MaxPort {
		return PrintTarget{}, fmt.Errorf("%w: %d", ErrInvalidPort, port)
	}
	return PrintTarget{transport: TransportNetwork, address: address, port: port}, nil
}

// NewBluetoothTarget returns a target for the Bluetooth device at address
func NewBluetoothTarget(address string) (PrintTarget, error) {
	if address == "" {
		return PrintTarget{}, ErrMissingAddress
	}
	return PrintTarget{transport: TransportBluetooth, address: address}, nil
}

// Transport returns the target's transport
func (t PrintTarget) Transport() Transport { return t.transport }

// Address returns the host (network) or device address (Bluetooth). Empty for USB.
func (t PrintTarget) Address() string { return t.address }

// Port returns the TCP port. Zero unless the transport is network.
func (t PrintTarget) Port() int { return t.port }

// Key identifies the physical device the target addresses
func (t PrintTarget) Key() string {
	switch t.transport {
	case TransportUSB:
		return "usb"
	case TransportNetwork:
		return "network:" + net.JoinHostPort(t.address, strconv.Itoa(t.port))
	case TransportBluetooth:
		return "bluetooth:" + t.address
	default:
		return t.transport.String()
	}
}

func (t PrintTarget) String() string {
	return t.Key()
}
