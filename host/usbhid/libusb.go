package usbhid

import (
	"fmt"

	"github.com/gotmc/libusb"
)

// USBDevice is a Device opened through libusb.
type USBDevice struct {
	*Device

	ctx *libusb.Context
	dh  *libusb.DeviceHandle
}

// libusbPipe issues class requests on endpoint zero.
type libusbPipe struct {
	dh      *libusb.DeviceHandle
	timeout int
}

func (p *libusbPipe) In(request uint8, value, index uint16, data []byte) (int, error) {
	requestType := libusb.BitmapRequestType(
		libusb.DeviceToHost, libusb.Class, libusb.InterfaceRecipient)
	return p.dh.ControlTransfer(requestType, request, value, index, data, len(data), p.timeout)
}

func (p *libusbPipe) Out(request uint8, value, index uint16, data []byte) (int, error) {
	requestType := libusb.BitmapRequestType(
		libusb.HostToDevice, libusb.Class, libusb.InterfaceRecipient)
	return p.dh.ControlTransfer(requestType, request, value, index, data, len(data), p.timeout)
}

// Open finds the first device with the given IDs and claims iface.
func Open(vendorID, productID, iface uint16, timeoutMillis int) (*USBDevice, error) {
	ctx, err := libusb.NewContext()
	if err != nil {
		return nil, fmt.Errorf("libusb context: %w", err)
	}
	_, dh, err := ctx.OpenDeviceWithVendorProduct(vendorID, productID)
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("open %04x:%04x: %w", vendorID, productID, err)
	}
	if err := dh.ClaimInterface(int(iface)); err != nil {
		dh.Close()
		ctx.Close()
		return nil, fmt.Errorf("claim interface %d (is the kernel HID driver bound?): %w", iface, err)
	}
	return &USBDevice{
		Device: NewDevice(&libusbPipe{dh: dh, timeout: timeoutMillis}, iface),
		ctx:    ctx,
		dh:     dh,
	}, nil
}

// Close releases the interface and the libusb context.
func (d *USBDevice) Close() error {
	err := d.dh.ReleaseInterface(int(d.iface))
	d.dh.Close()
	d.ctx.Close()
	if err != nil {
		return fmt.Errorf("release interface: %w", err)
	}
	return nil
}
