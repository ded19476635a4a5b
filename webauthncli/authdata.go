package webauthncli

import (
	"crypto/sha256"

	"github.com/fxamacker/cbor/v2"
	"github.com/gravitational/trace"

	"github.com/keyward/u2fhidcore/webauthntypes"
)

const (
	// flagUserPresent and flagAttestedCredentialData are the WebAuthn
	// authenticator-data flag bits this package sets itself; U2F
	// devices have no notion of either beyond "the user touched it".
	flagUserPresent           = 1 << 0
	flagAttestedCredentialData = 1 << 6

	// registrationFlags is the fixed flags byte synthesized for every
	// registration: user-present and attested-credential-data-included.
	registrationFlags = flagUserPresent | flagAttestedCredentialData

	authDataHeaderLen = 37 // 32 (rpIdHash) + 1 (flags) + 4 (counter)
	aaguidLen         = 16
)

// authDataHeader is the 37-byte common prefix of every synthesized
// authenticator-data blob.
type authDataHeader struct {
	rpIDHash [32]byte
	flags    byte
	counter  [4]byte
}

func newAuthDataHeader(rpID string, flags byte, counter [4]byte) authDataHeader {
	return authDataHeader{
		rpIDHash: sha256.Sum256([]byte(rpID)),
		flags:    flags,
		counter:  counter,
	}
}

func (h authDataHeader) bytes() []byte {
	out := make([]byte, 0, authDataHeaderLen)
	out = append(out, h.rpIDHash[:]...)
	out = append(out, h.flags)
	out = append(out, h.counter[:]...) // verbatim, big-endian as received from the device
	return out
}

// authdataFake builds the assertion-variant authenticator data: just
// the header, wrapped as a CBOR byte string. Synthesizes a plausible
// authData blob without a real CTAP2 authenticator behind it, the way
// libfido2's u2f.c does (authdata_fake).
func authdataFake(header authDataHeader) ([]byte, error) {
	out, err := cbor.Marshal(header.bytes())
	if err != nil {
		return nil, wrapKind(KindInternal, trace.Wrap(err))
	}
	return out, nil
}

// encodeCredAuthdata builds the registration-variant authenticator
// data: header, zeroed AAGUID, big-endian credential-id length,
// credential id, and the COSE-encoded public key, wrapped as a CBOR
// byte string.
//
// The credential-id length is written as two explicit big-endian bytes
// ([(L>>8)&0xFF, L&0xFF]) rather than through any host-order integer
// cast, so the result is big-endian on every platform.
func encodeCredAuthdata(header authDataHeader, keyHandle []byte, pubKeyCOSE []byte) ([]byte, error) {
	if len(keyHandle) > 0xff {
		return nil, wrapKind(KindInvalidArgument, trace.BadParameter(
			"key handle length %d exceeds one byte", len(keyHandle)))
	}

	buf := make([]byte, 0, authDataHeaderLen+aaguidLen+2+len(keyHandle)+len(pubKeyCOSE))
	buf = append(buf, header.bytes()...)
	buf = append(buf, make([]byte, aaguidLen)...) // AAGUID: always zero, U2F has none

	idLen := uint16(len(keyHandle))
	buf = append(buf, byte(idLen>>8), byte(idLen&0xff))

	buf = append(buf, keyHandle...)
	buf = append(buf, pubKeyCOSE...)

	out, err := cbor.Marshal(buf)
	if err != nil {
		return nil, wrapKind(KindInternal, trace.Wrap(err))
	}
	return out, nil
}

// coseKeyFromU2FPoint calls into webauthntypes.ES256PublicKeyCBOR,
// kept as a named indirection so this file's logic (what bytes go
// where) stays separate from the encoder's (how a COSE map is
// serialized).
func coseKeyFromU2FPoint(ecPoint []byte) ([]byte, error) {
	key, err := webauthntypes.ES256PublicKeyCBOR(ecPoint)
	if err != nil {
		return nil, wrapKind(KindProtocol, err)
	}
	return key, nil
}
