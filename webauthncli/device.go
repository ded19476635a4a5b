package webauthncli

import (
	"context"
	"time"

	"github.com/gravitational/trace"
)

// cmdMsg is the CTAPHID command byte framing a U2F raw message. CTAPHID
// channel initialization (command 0x06) is handled by the transport
// adapter that opens a Device, not by this package.
const cmdMsg = 0x03

// U2F status words, the last two bytes of every APDU response.
const (
	swNoError                = 0x9000
	swConditionsNotSatisfied = 0x6985
	swWrongData              = 0x6a80
)

// U2F raw message instruction and parameter bytes (FIDO U2F raw
// message formats spec).
const (
	insRegister     = 0x01
	insAuthenticate = 0x02

	p1CheckOnly = 0x03
	p1Sign      = 0x07
)

// Device is the CTAPHID-framed transport this package drives: two
// independent calls with two independent failure modes, rather than a
// single request/response round trip, so a poll loop can be built on
// top without the transport hiding retry semantics.
//
// A Device is not shareable: callers must serialize all operations
// against a given handle (see package doc for the concurrency model).
type Device interface {
	// Transmit sends apdu framed under CTAPHID command cmd. It returns
	// an error only on a genuine send failure; it does not wait for a
	// reply.
	Transmit(cmd byte, apdu []byte) error
	// Receive reads a reply framed under CTAPHID command cmd into buf,
	// waiting up to timeoutMS milliseconds, and returns the number of
	// bytes received. A negative return value (via the returned error)
	// signals a receive failure.
	Receive(cmd byte, buf []byte, timeoutMS int) (int, error)
}

// DevicePollInterval is the interval used when a caller-supplied
// timeout of -1 asks this package to poll "forever" at a fixed pace.
// It is a variable so that it can be overridden, e.g. to avoid real
// sleeps in tests.
var DevicePollInterval = 100 * time.Millisecond

func pollSleep(timeoutMS int) time.Duration {
	if timeoutMS == -1 {
		return DevicePollInterval
	}
	return time.Duration(timeoutMS) * time.Millisecond
}

// pollLoop transmits apdu and waits for a non-"conditions not
// satisfied" reply, sleeping between attempts to give the user time to
// touch the authenticator. It returns the full reply, trailing status
// word included.
func pollLoop(ctx context.Context, dev Device, apdu []byte, timeoutMS int) ([]byte, error) {
	reply := make([]byte, 2048)
	for {
		if err := dev.Transmit(cmdMsg, apdu); err != nil {
			return nil, wrapKind(KindTransport, trace.Wrap(err, "transmit"))
		}
		n, err := dev.Receive(cmdMsg, reply, timeoutMS)
		if err != nil || n < 2 {
			if err == nil {
				err = trace.Errorf("short read: %d bytes", n)
			}
			return nil, wrapKind(KindTransport, trace.Wrap(err, "receive"))
		}
		if statusWord(reply[:n]) != swConditionsNotSatisfied {
			return append([]byte(nil), reply[:n]...), nil
		}

		select {
		case <-time.After(pollSleep(timeoutMS)):
		case <-ctx.Done():
			return nil, wrapKind(KindTransport, trace.Wrap(ctx.Err()))
		}
	}
}

func statusWord(reply []byte) int {
	if len(reply) < 2 {
		return -1
	}
	return int(reply[len(reply)-2])<<8 | int(reply[len(reply)-1])
}
