package core

// USB identity (shared V-USB gamepad IDs)
const (
	USBVendorID  = 0x16C0
	USBProductID = 0x27DC
)

// ReportDescriptor describes a gamepad with two 8-bit axes and eight
// buttons. The input report carries four axis bytes (REPORT_COUNT 4), so
// a host sees each 16-bit sample as a pair of axis bytes.
var ReportDescriptor = [...]byte{
	0x05, 0x01, // USAGE_PAGE (Generic Desktop)
	0x09, 0x05, // USAGE (Game Pad)
	0xa1, 0x01, // COLLECTION (Application)
	0x09, 0x01, //   USAGE (Pointer)
	0xa1, 0x00, //   COLLECTION (Physical)
	0x09, 0x30, //     USAGE (X)
	0x09, 0x31, //     USAGE (Y)
	0x15, 0x00, //     LOGICAL_MINIMUM (0)
	0x26, 0xff, 0x00, // LOGICAL_MAXIMUM (255)
	0x75, 0x08, //     REPORT_SIZE (8)
	0x95, 0x04, //     REPORT_COUNT (4)
	0x81, 0x02, //     INPUT (Data,Var,Abs)
	0xc0,       //   END_COLLECTION
	0x05, 0x09, //   USAGE_PAGE (Button)
	0x19, 0x01, //   USAGE_MINIMUM (Button 1)
	0x29, 0x08, //   USAGE_MAXIMUM (Button 8)
	0x15, 0x00, //   LOGICAL_MINIMUM (0)
	0x25, 0x01, //   LOGICAL_MAXIMUM (1)
	0x75, 0x01, //   REPORT_SIZE (1)
	0x95, 0x08, //   REPORT_COUNT (8)
	0x81, 0x02, //   INPUT (Data,Var,Abs)
	0xc0, // END_COLLECTION
}
