package adapter

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/google/gousb"
	"go.uber.org/zap"
)

// USBOptions selects which USB printer an adapter claims. With no VID/PID and
// no serial the first printer-class device found is used.
type USBOptions struct {
	VendorID  uint16
	ProductID uint16
	Serial    string
}

func (o USBOptions) String() string {
	switch {
	case o.VendorID != 0 || o.ProductID != 0:
		return fmt.Sprintf("usb %04x:%04x", o.VendorID, o.ProductID)
	case o.Serial != "":
		return "usb serial " + o.Serial
	default:
		return "usb auto"
	}
}

// USBAdapter manages USB printer communication
type USBAdapter struct {
	opts        USBOptions
	logger      *zap.Logger
	ctx         *gousb.Context
	device      *gousb.Device
	config      *gousb.Config
	iface       *gousb.Interface
	outEndpoint *gousb.OutEndpoint
	isOpen      bool
	mu          sync.Mutex
}

// NewUSBAdapter creates a USB adapter. No device is touched until Open.
func NewUSBAdapter(opts USBOptions, logger *zap.Logger) *USBAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &USBAdapter{
		opts:   opts,
		logger: logger,
	}
}

// newContext initializes libusb. gousb panics when libusb cannot be
// initialized; that is reported as an error instead.
func newContext() (ctx *gousb.Context, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to initialize libusb: %v", r)
		}
	}()
	return gousb.NewContext(), nil
}

// IsPrinterDesc reports whether any interface of the device descriptor
// belongs to the printer class.
func IsPrinterDesc(desc *gousb.DeviceDesc) bool {
	if desc == nil {
		return false
	}
	if desc.Class == gousb.ClassPrinter {
		return true
	}
	for _, cfg := range desc.Configs {
		for _, iface := range cfg.Interfaces {
			for _, alt := range iface.AltSettings {
				if alt.Class == gousb.ClassPrinter {
					return true
				}
			}
		}
	}
	return false
}

// FindPrinters opens and returns all USB printer devices. The caller owns
// the returned devices.
func FindPrinters(ctx *gousb.Context) ([]*gousb.Device, error) {
	devices, err := ctx.OpenDevices(IsPrinterDesc)
	if err != nil && len(devices) == 0 {
		return nil, fmt.Errorf("failed to enumerate usb devices: %w", err)
	}
	return devices, nil
}

// GetDeviceByVIDPID opens a device by VID and PID
func GetDeviceByVIDPID(ctx *gousb.Context, vid, pid uint16) (*gousb.Device, error) {
	device, err := ctx.OpenDeviceWithVIDPID(gousb.ID(vid), gousb.ID(pid))
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, ErrDeviceNotFound
	}
	return device, nil
}

// GetDeviceBySerial opens the printer with the given serial number
func GetDeviceBySerial(ctx *gousb.Context, serial string) (*gousb.Device, error) {
	devices, err := FindPrinters(ctx)
	if err != nil {
		return nil, err
	}

	var found *gousb.Device
	for _, dev := range devices {
		if found == nil {
			if s, err := dev.SerialNumber(); err == nil && s == serial {
				found = dev
				continue
			}
		}
		dev.Close()
	}

	if found == nil {
		return nil, fmt.Errorf("%w: serial number %q", ErrDeviceNotFound, serial)
	}
	return found, nil
}

func (a *USBAdapter) findDevice() (*gousb.Device, error) {
	switch {
	case a.opts.VendorID != 0 || a.opts.ProductID != 0:
		return GetDeviceByVIDPID(a.ctx, a.opts.VendorID, a.opts.ProductID)
	case a.opts.Serial != "":
		return GetDeviceBySerial(a.ctx, a.opts.Serial)
	}

	devices, err := FindPrinters(a.ctx)
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, ErrDeviceNotFound
	}
	for _, dev := range devices[1:] {
		dev.Close()
	}
	return devices[0], nil
}

// Open finds the printer, claims its printer-class interface and locates the
// bulk OUT endpoint.
func (a *USBAdapter) Open(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.isOpen {
		return ErrAlreadyOpen
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	usbCtx, err := newContext()
	if err != nil {
		return err
	}
	a.ctx = usbCtx

	if err := a.open(); err != nil {
		a.release()
		return err
	}

	a.isOpen = true
	a.logger.Debug("USB printer opened",
		zap.Stringer("selector", a.opts),
		zap.String("device", a.device.String()),
	)
	return nil
}

func (a *USBAdapter) open() error {
	device, err := a.findDevice()
	if err != nil {
		return err
	}
	a.device = device

	// Set auto-detach kernel driver on Linux
	if runtime.GOOS == "linux" {
		if err := a.device.SetAutoDetach(true); err != nil {
			a.logger.Warn("Failed to enable kernel driver auto-detach", zap.Error(err))
		}
	}

	cfgNum, err := a.device.ActiveConfigNum()
	if err != nil {
		return fmt.Errorf("failed to get active config: %w", err)
	}

	cfg, err := a.device.Config(cfgNum)
	if err != nil {
		return fmt.Errorf("failed to get config: %w", err)
	}
	a.config = cfg

	ifaceNum, altNum := -1, 0
	for _, iface := range cfg.Desc.Interfaces {
		for _, alt := range iface.AltSettings {
			if alt.Class == gousb.ClassPrinter {
				ifaceNum, altNum = iface.Number, alt.Alternate
				break
			}
		}
		if ifaceNum >= 0 {
			break
		}
	}
	if ifaceNum < 0 {
		return errors.New("no printer interface found")
	}

	iface, err := cfg.Interface(ifaceNum, altNum)
	if err != nil {
		return fmt.Errorf("failed to claim interface: %w", err)
	}
	a.iface = iface

	for _, epDesc := range iface.Setting.Endpoints {
		if epDesc.Direction != gousb.EndpointDirectionOut {
			continue
		}
		ep, err := iface.OutEndpoint(epDesc.Number)
		if err == nil {
			a.outEndpoint = ep
			break
		}
	}
	if a.outEndpoint == nil {
		return errors.New("cannot find output endpoint from printer")
	}

	return nil
}

// release closes whatever has been acquired so far, innermost first
func (a *USBAdapter) release() error {
	var errs []error

	a.outEndpoint = nil
	if a.iface != nil {
		a.iface.Close()
		a.iface = nil
	}
	if a.config != nil {
		if err := a.config.Close(); err != nil {
			errs = append(errs, err)
		}
		a.config = nil
	}
	if a.device != nil {
		if err := a.device.Close(); err != nil {
			errs = append(errs, err)
		}
		a.device = nil
	}
	if a.ctx != nil {
		if err := a.ctx.Close(); err != nil {
			errs = append(errs, err)
		}
		a.ctx = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %w", errors.Join(errs...))
	}
	return nil
}

// Write sends data to the printer's bulk OUT endpoint
func (a *USBAdapter) Write(ctx context.Context, data []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.isOpen {
		return 0, ErrNotOpen
	}

	n, err := a.outEndpoint.WriteContext(ctx, data)
	if err != nil {
		return n, fmt.Errorf("write failed: %w", err)
	}
	return n, nil
}

// Close releases the interface, the device and the libusb context
func (a *USBAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.isOpen = false
	return a.release()
}

// IsOpen returns whether the device is open
func (a *USBAdapter) IsOpen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.isOpen
}
