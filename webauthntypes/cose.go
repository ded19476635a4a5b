// Package webauthntypes holds the WebAuthn-shaped request and result
// types consumed and produced by webauthncli. These are deliberately
// thin: the full relying-party data model (attestation verification,
// storage, session bookkeeping) lives outside this module's scope.
package webauthntypes

import (
	"fmt"

	"github.com/duo-labs/webauthn/protocol/webauthncose"
	"github.com/fxamacker/cbor/v2"
	"github.com/gravitational/trace"
)

// coseEC2Key is the COSE_Key encoding of an EC2 public key, tagged for
// deterministic, canonical field ordering under fxamacker/cbor.
type coseEC2Key struct {
	KeyType   int64  `cbor:"1,keyasint"`
	Algorithm int64  `cbor:"3,keyasint"`
	Curve     int64  `cbor:"-1,keyasint"`
	X         []byte `cbor:"-2,keyasint"`
	Y         []byte `cbor:"-3,keyasint"`
}

const (
	coseKeyTypeEC2        = 2
	coseCurveP256         = 1
	ec2UncompressedPrefix = 0x04
	ec2PointLen           = 65
	coseES256Len          = 77
)

// ES256PublicKeyCBOR encodes an uncompressed SEC1 EC point (the format a
// U2F register response carries its public key in) as a COSE_Key CBOR
// map describing an ES256 key. It rejects anything other than a 65-byte
// point starting with 0x04, and asserts the serialized form is exactly
// 77 bytes, matching libfido2's es256_pk_encode/cbor_blob_from_ec_point.
func ES256PublicKeyCBOR(ecPoint []byte) ([]byte, error) {
	if len(ecPoint) != ec2PointLen || ecPoint[0] != ec2UncompressedPrefix {
		return nil, trace.BadParameter(
			"invalid EC point: want %d bytes starting with 0x04, got %d bytes starting with 0x%02x",
			ec2PointLen, len(ecPoint), firstByte(ecPoint))
	}

	key := coseEC2Key{
		KeyType:   coseKeyTypeEC2,
		Algorithm: int64(webauthncose.AlgES256),
		Curve:     coseCurveP256,
		X:         ecPoint[1:33],
		Y:         ecPoint[33:65],
	}

	out, err := cbor.Marshal(&key)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	if len(out) != coseES256Len {
		return nil, trace.Wrap(fmt.Errorf("encoded COSE ES256 key is %d bytes, want %d", len(out), coseES256Len))
	}
	return out, nil
}

func firstByte(b []byte) byte {
	if len(b) == 0 {
		return 0
	}
	return b[0]
}
