// Package u2fdevice discovers and opens physical U2F/CTAPHID devices,
// adapting github.com/flynn/u2f/u2fhid's combined send-and-receive
// transport to webauthncli.Device's two-call tx/rx contract. CTAPHID
// report framing and reassembly happen inside u2fhid.Device.Message;
// this package doesn't reimplement that layer.
package u2fdevice

import (
	"github.com/flynn/u2f/u2fhid"
	"github.com/gravitational/trace"

	"github.com/keyward/u2fhidcore/webauthncli"
)

// u2fDevices and u2fOpen are package-level indirection so tests can
// substitute fakes without real HID hardware attached.
var (
	u2fDevices = u2fhid.Devices
	u2fOpen    = u2fhid.Open
)

// Devices enumerates currently-attached U2F HID devices and opens each
// one, adapted to webauthncli.Device.
func Devices() ([]webauthncli.Device, error) {
	infos, err := u2fDevices()
	if err != nil {
		return nil, trace.Wrap(err, "enumerating U2F HID devices")
	}

	devs := make([]webauthncli.Device, 0, len(infos))
	for _, info := range infos {
		dev, err := u2fOpen(info)
		if err != nil {
			// A single uncooperative device (commonly a permissions
			// error on some platforms) shouldn't prevent using the
			// others the user has plugged in.
			continue
		}
		devs = append(devs, &hidDevice{dev: dev})
	}
	return devs, nil
}

// hidDevice adapts a *u2fhid.Device (whose Message method already
// performs CTAPHID framing, transmission, and reassembly as one call)
// to the two-call Transmit/Receive contract the poll loop expects.
// Transmit only stashes the APDU; the actual round trip happens lazily
// in Receive, since the underlying transport doesn't expose the two
// halves separately.
type hidDevice struct {
	dev     *u2fhid.Device
	pending []byte
}

func (h *hidDevice) Transmit(cmd byte, apdu []byte) error {
	h.pending = append([]byte(nil), apdu...)
	return nil
}

func (h *hidDevice) Receive(cmd byte, buf []byte, timeoutMS int) (int, error) {
	// timeoutMS is advisory only here: u2fhid.Device.Message already
	// blocks for however long the CTAPHID transaction takes, with its
	// own internal framing timeout.
	reply, err := h.dev.Message(h.pending)
	if err != nil {
		return -1, trace.Wrap(err)
	}
	n := copy(buf, reply)
	return n, nil
}
