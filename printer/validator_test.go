package printer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateInvalidConnectionType(t *testing.T) {
	v := NewValidator(Defaults{})

	for _, ct := range []string{"", "USB", "WiFi", "Bluetooth", "serial", "network", " usb", "usb "} {
		t.Run(ct, func(t *testing.T) {
			_, err := v.Validate(ct, "192.168.0.99", "9100")
			assert.ErrorIs(t, err, ErrInvalidConnectionType)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestValidateInvalidPort(t *testing.T) {
	v := NewValidator(Defaults{})

	for _, port := range []string{"", "-1", "65536", "100000", "abc", "91 00", "0x2384", "9100.5", "99999999999999999999"} {
		t.Run(port, func(t *testing.T) {
			_, err := v.Validate(ConnectionWiFi, "192.168.0.99", port)
			assert.ErrorIs(t, err, ErrInvalidPort)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestValidateNetwork(t *testing.T) {
	v := NewValidator(Defaults{})

	target, err := v.Validate(ConnectionWiFi, "192.168.0.99", "9100")
	require.NoError(t, err)
	assert.Equal(t, TransportNetwork, target.Transport())
	assert.Equal(t, "192.168.0.99", target.Address())
	assert.Equal(t, 9100, target.Port())
	assert.Equal(t, "network:192.168.0.99:9100", target.Key())
}

func TestValidatePortBounds(t *testing.T) {
	v := NewValidator(Defaults{})

	for raw, want := range map[string]int{"0": 0, "65535": 65535, " 9100 ": 9100, "+80": 80} {
		t.Run(raw, func(t *testing.T) {
			target, err := v.Validate(ConnectionWiFi, "printer.local", raw)
			require.NoError(t, err)
			assert.Equal(t, want, target.Port())
		})
	}
}

func TestValidateNetworkMissingAddress(t *testing.T) {
	v := NewValidator(Defaults{})

	_, err := v.Validate(ConnectionWiFi, "", "9100")
	assert.ErrorIs(t, err, ErrMissingAddress)

	_, err = v.Validate(ConnectionWiFi, "   ", "9100")
	assert.ErrorIs(t, err, ErrMissingAddress)
}

func TestValidateNetworkDefaults(t *testing.T) {
	v := NewValidator(Defaults{Address: "192.168.0.99", Port: 9100})

	target, err := v.Validate(ConnectionWiFi, "", "")
	require.NoError(t, err)
	assert.Equal(t, "192.168.0.99", target.Address())
	assert.Equal(t, 9100, target.Port())

	// Explicit values win over defaults
	target, err = v.Validate(ConnectionWiFi, "10.0.0.5", "9101")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", target.Address())
	assert.Equal(t, 9101, target.Port())

	// A default port never masks a malformed one
	_, err = v.Validate(ConnectionWiFi, "10.0.0.5", "abc")
	assert.ErrorIs(t, err, ErrInvalidPort)
}

func TestValidateUSBIgnoresAddressAndPort(t *testing.T) {
	v := NewValidator(Defaults{})

	for _, tc := range []struct{ address, port string }{
		{"", ""},
		{"192.168.0.99", "9100"},
		{"garbage", "not-a-port"},
		{"", "-5"},
		{"", "70000"},
	} {
		target, err := v.Validate(ConnectionUSB, tc.address, tc.port)
		require.NoError(t, err)
		assert.Equal(t, NewUSBTarget(), target)
		assert.Equal(t, TransportUSB, target.Transport())
		assert.Empty(t, target.Address())
		assert.Zero(t, target.Port())
	}
}

func TestValidateBluetooth(t *testing.T) {
	v := NewValidator(Defaults{Address: "192.168.0.99", Port: 9100})

	target, err := v.Validate(ConnectionBluetooth, "00:11:22:33:44:55", "not-a-port")
	require.NoError(t, err)
	assert.Equal(t, TransportBluetooth, target.Transport())
	assert.Equal(t, "00:11:22:33:44:55", target.Address())
	assert.Zero(t, target.Port())
	assert.Equal(t, "bluetooth:00:11:22:33:44:55", target.Key())

	// The network address default never applies to Bluetooth
	_, err = v.Validate(ConnectionBluetooth, "", "")
	assert.ErrorIs(t, err, ErrMissingAddress)
}

func TestNewNetworkTarget(t *testing.T) {
	_, err := NewNetworkTarget("", 9100)
	assert.ErrorIs(t, err, ErrMissingAddress)

	_, err = NewNetworkTarget("host", -1)
	assert.ErrorIs(t, err, ErrInvalidPort)

	_, err = NewNetworkTarget("host", 65536)
	assert.ErrorIs(t, err, ErrInvalidPort)

	target, err := NewNetworkTarget("fe80::1", 9100)
	require.NoError(t, err)
	assert.Equal(t, "network:[fe80::1]:9100", target.Key())
}

func TestTransportString(t *testing.T) {
	assert.Equal(t, "usb", TransportUSB.String())
	assert.Equal(t, "network", TransportNetwork.String())
	assert.Equal(t, "bluetooth", TransportBluetooth.String())
	assert.Equal(t, "Transport(42)", Transport(42).String())
}
