package webauthncli

import (
	"context"
	"crypto/sha256"

	"github.com/gravitational/trace"

	"github.com/keyward/u2fhidcore/internal/apdu"
)

// keyLookup sends a CHECK-ONLY AUTHENTICATE to ask whether dev already
// knows the (rpID, keyHandle) pair. Unlike the other APDU exchanges in
// this package, it is not driven through the poll loop: it expects
// exactly one of the two well-defined status words and returns
// immediately either way, so ctx is accepted only for signature
// symmetry with its siblings and carries no cancellation here.
func keyLookup(ctx context.Context, dev Device, rpID string, keyHandle []byte, timeoutMS int) (found bool, err error) {
	if len(keyHandle) > 0xff || rpID == "" {
		return false, wrapKind(KindInvalidArgument, trace.BadParameter(
			"key handle length %d, rp id %q", len(keyHandle), rpID))
	}

	rpIDHash := sha256.Sum256([]byte(rpID))

	var challenge [sha256Len]byte
	for i := range challenge {
		challenge[i] = 0xff
	}

	builder := apdu.New(insAuthenticate, p1CheckOnly, 2*sha256Len+1+len(keyHandle))
	if err := writeAuthPayload(builder, challenge[:], rpIDHash[:], keyHandle); err != nil {
		return false, err
	}

	if err := dev.Transmit(cmdMsg, builder.Bytes()); err != nil {
		return false, wrapKind(KindTransport, trace.Wrap(err, "transmit"))
	}
	reply := make([]byte, 8)
	n, err := dev.Receive(cmdMsg, reply, timeoutMS)
	if err != nil || n != 2 {
		if err == nil {
			err = trace.Errorf("expected 2-byte status word, got %d bytes", n)
		}
		return false, wrapKind(KindTransport, trace.Wrap(err, "receive"))
	}

	switch statusWord(reply[:n]) {
	case swConditionsNotSatisfied:
		return true, nil // key exists; user presence is what's missing
	case swWrongData:
		return false, nil // key does not exist
	default:
		return false, wrapKind(KindProtocol, trace.BadParameter(
			"unexpected status word 0x%04x from key lookup", statusWord(reply[:n])))
	}
}

func writeAuthPayload(builder *apdu.Builder, challenge, rpIDHash, keyHandle []byte) error {
	if err := builder.Write(challenge); err != nil {
		return wrapKind(KindInternal, trace.Wrap(err))
	}
	if err := builder.Write(rpIDHash); err != nil {
		return wrapKind(KindInternal, trace.Wrap(err))
	}
	if err := builder.Write([]byte{byte(len(keyHandle))}); err != nil {
		return wrapKind(KindInternal, trace.Wrap(err))
	}
	if err := builder.Write(keyHandle); err != nil {
		return wrapKind(KindInternal, trace.Wrap(err))
	}
	return nil
}

