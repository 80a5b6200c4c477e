package printer

import (
	"fmt"

	"github.com/nixxel-company-limited/escpos-http-bridge/adapter"
	"go.uber.org/zap"
)

// Factory builds an unopened device for a target
type Factory func(target PrintTarget) (adapter.Adapter, error)

// Registry holds one driver factory per transport. A nil factory means the
// transport is not available.
type Registry struct {
	USB       Factory
	Network   Factory
	Bluetooth Factory
}

// DriverOptions configure the default drivers
type DriverOptions struct {
	USB              adapter.USBOptions
	BluetoothChannel uint8
}

// NewRegistry returns a registry backed by the gousb, TCP and RFCOMM adapters
func NewRegistry(opts DriverOptions, logger *zap.Logger) Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Registry{
		USB: func(PrintTarget) (adapter.Adapter, error) {
			return adapter.NewUSBAdapter(opts.USB, logger.Named("usb")), nil
		},
		Network: func(t PrintTarget) (adapter.Adapter, error) {
			return adapter.NewNetworkAdapter(t.Address(), t.Port(), logger.Named("network")), nil
		},
		Bluetooth: func(t PrintTarget) (adapter.Adapter, error) {
			return adapter.NewBluetoothAdapter(t.Address(), opts.BluetoothChannel, logger.Named("bluetooth")), nil
		},
	}
}

// factory selects the driver for a transport
func (r Registry) factory(t Transport) (Factory, error) {
	var f Factory
	switch t {
	case TransportUSB:
		f = r.USB
	case TransportNetwork:
		f = r.Network
	case TransportBluetooth:
		f = r.Bluetooth
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTransport, t)
	}
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTransport, t)
	}
	return f, nil
}

// Device builds an unopened device for target
func (r Registry) Device(target PrintTarget) (adapter.Adapter, error) {
	f, err := r.factory(target.Transport())
	if err != nil {
		return nil, err
	}
	return f(target)
}
