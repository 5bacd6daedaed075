//go:build rp2040

package main

import (
	"machine"
	"machine/usb"
	"machine/usb/descriptor"
	"sync/atomic"

	"gopad/core"
)

// hidDescriptor is the CDC+HID composite with the gamepad report
// descriptor in place of TinyGo's keyboard/mouse one. CDC stays for debug
// output over machine.Serial.
var hidDescriptor = descriptor.Descriptor{
	Device: descriptor.DeviceCDC.Bytes(),
	Configuration: descriptor.Append([][]byte{
		descriptor.ConfigurationCDCHID.Bytes(),
		descriptor.InterfaceAssociationCDC.Bytes(),
		descriptor.InterfaceCDCControl.Bytes(),
		descriptor.ClassSpecificCDCHeader.Bytes(),
		descriptor.ClassSpecificCDCACM.Bytes(),
		descriptor.ClassSpecificCDCUnion.Bytes(),
		descriptor.ClassSpecificCDCCallManagement.Bytes(),
		descriptor.EndpointEP1IN.Bytes(),
		descriptor.InterfaceCDCData.Bytes(),
		descriptor.EndpointEP2OUT.Bytes(),
		descriptor.EndpointEP3IN.Bytes(),
		descriptor.InterfaceHID.Bytes(),
		func() []byte {
			classHID := descriptor.ClassHID.Bytes()
			classHID[7] = byte(len(core.ReportDescriptor))
			classHID[8] = byte(len(core.ReportDescriptor) >> 8)
			return classHID
		}(),
		descriptor.EndpointEP4IN.Bytes(),
		descriptor.EndpointEP5OUT.Bytes(),
	}),
	HID: map[uint16][]byte{
		usb.HID_INTERFACE: core.ReportDescriptor[:],
	},
}

// usbEngine adapts TinyGo's USB device stack to core.USBDriver.
//
// The stack handles bus resets inside the interrupt and never reports
// them, so the end of enumeration stands in for "reset finished": Poll
// fires resetReady once each time the endpoints come up.
type usbEngine struct {
	setup      core.SetupHandler
	resetReady func()

	// Set from the endpoint interrupt.
	busy atomic.Bool

	configured bool

	// target is what the crystal-locked clock always measures.
	target int
}

func newUSBEngine(cpuHz uint32) *usbEngine {
	return &usbEngine{target: core.TargetFrameLength(cpuHz)}
}

func (u *usbEngine) Init(setup core.SetupHandler, resetReady func()) error {
	u.setup = setup
	u.resetReady = resetReady
	machine.ConfigureUSBEndpoint(hidDescriptor,
		[]usb.EndpointConfig{
			{
				Index:     usb.HID_ENDPOINT_IN,
				IsIn:      true,
				Type:      usb.ENDPOINT_TYPE_INTERRUPT,
				TxHandler: u.txHandler,
			},
		},
		[]usb.SetupConfig{
			{
				Index:   usb.HID_INTERFACE,
				Handler: u.handleSetup,
			},
		})
	return nil
}

// Connect and Disconnect are no-ops: the RP2040 controller owns its
// pull-up, and TinyGo enables it when the stack starts.
func (u *usbEngine) Connect()    {}
func (u *usbEngine) Disconnect() {}

func (u *usbEngine) Poll() {
	up := machine.USBDev.InitEndpointComplete
	if up && !u.configured && u.resetReady != nil {
		u.busy.Store(false)
		u.resetReady()
	}
	u.configured = up
}

func (u *usbEngine) InterruptReady() bool {
	return u.configured && !u.busy.Load()
}

func (u *usbEngine) SetInterrupt(data []byte) {
	if !u.configured {
		return
	}
	u.busy.Store(true)
	machine.SendUSBInPacket(usb.HID_ENDPOINT_IN, data)
}

// MeasureFrameLength returns the target: the core runs from the crystal
// and cannot drift against the host's frames.
func (u *usbEngine) MeasureFrameLength() int {
	return u.target
}

func (u *usbEngine) txHandler() {
	u.busy.Store(false)
}

// handleSetup answers HID class requests on the control pipe. Standard
// requests, including the report descriptor fetch, stay with TinyGo.
func (u *usbEngine) handleSetup(setup usb.Setup) bool {
	pkt := core.SetupPacket{
		RequestType: setup.BmRequestType,
		Request:     setup.BRequest,
		Value:       uint16(setup.WValueH)<<8 | uint16(setup.WValueL),
		Index:       setup.WIndex,
		Length:      setup.WLength,
	}
	if pkt.RequestType&core.RequestTypeMask != core.RequestTypeClass {
		return false
	}

	data := u.setup(pkt)
	if data == nil {
		if pkt.RequestType&core.RequestDirIn != 0 {
			// device-to-host with nothing to send: let the stack stall
			return false
		}
		machine.SendZlp()
		return true
	}
	if len(data) > int(pkt.Length) {
		data = data[:pkt.Length]
	}
	machine.SendUSBInPacket(0, data)
	return true
}
