package webauthncli

import (
	"crypto/x509"
	"encoding/asn1"

	"github.com/gravitational/trace"
)

const (
	ec2PointLen          = 65
	registerReservedByte = 0x05
)

// authReply is the parsed form of a U2F AUTHENTICATE response.
type authReply struct {
	flags     byte
	counter   [4]byte
	signature []byte
}

// parseAuthReply strips and checks the trailing status word, then
// reads the flags byte, the 4-byte counter (kept verbatim, never
// reinterpreted through a host-order integer), and the remainder as
// the ECDSA signature.
func parseAuthReply(reply []byte) (*authReply, error) {
	body, err := stripStatusWord(reply)
	if err != nil {
		return nil, err
	}

	r := bufReader(body)
	var flags [1]byte
	var counter [4]byte
	if err := r.read(flags[:]); err != nil {
		return nil, wrapKind(KindProtocol, err)
	}
	if err := r.read(counter[:]); err != nil {
		return nil, wrapKind(KindProtocol, err)
	}

	return &authReply{
		flags:     flags[0],
		counter:   counter,
		signature: append([]byte(nil), r.rest()...),
	}, nil
}

// registerReply is the parsed form of a U2F REGISTER response.
type registerReply struct {
	pubKey          [ec2PointLen]byte
	keyHandle       []byte
	attestationCert []byte
	signature       []byte
}

// parseRegisterReply parses the fixed-prefix, variable-length U2F
// REGISTER response. The attestation certificate's length isn't
// transmitted; it's discovered by DER-parsing an X.509 certificate
// starting at the current offset and trusting the parser to report how
// many bytes it consumed.
func parseRegisterReply(reply []byte) (*registerReply, error) {
	body, err := stripStatusWord(reply)
	if err != nil {
		return nil, err
	}

	r := bufReader(body)

	var reserved [1]byte
	if err := r.read(reserved[:]); err != nil {
		return nil, wrapKind(KindProtocol, err)
	}
	if reserved[0] != registerReservedByte {
		return nil, wrapKind(KindProtocol, trace.BadParameter(
			"invalid reserved byte: 0x%02x", reserved[0]))
	}

	var pubKey [ec2PointLen]byte
	if err := r.read(pubKey[:]); err != nil {
		return nil, wrapKind(KindProtocol, err)
	}

	var khLen [1]byte
	if err := r.read(khLen[:]); err != nil {
		return nil, wrapKind(KindProtocol, err)
	}
	keyHandle := make([]byte, khLen[0])
	if err := r.read(keyHandle); err != nil {
		return nil, wrapKind(KindProtocol, err)
	}

	cert, consumed, err := parseCertPrefix(r.rest())
	if err != nil {
		return nil, wrapKind(KindProtocol, err)
	}
	if err := r.advance(consumed); err != nil {
		return nil, wrapKind(KindProtocol, err)
	}

	return &registerReply{
		pubKey:          pubKey,
		keyHandle:       keyHandle,
		attestationCert: cert,
		signature:       append([]byte(nil), r.rest()...),
	}, nil
}

// parseCertPrefix DER-parses an X.509 certificate from the start of
// buf and reports how many bytes it consumed, without requiring the
// caller to already know the certificate's length. asn1.Unmarshal into
// a RawValue is the idiomatic way to learn a DER value's length without
// fully decoding it; x509.ParseCertificate then validates the result is
// well-formed.
func parseCertPrefix(buf []byte) (cert []byte, consumed int, err error) {
	rest, err := asn1.Unmarshal(buf, &asn1.RawValue{})
	if err != nil {
		return nil, 0, trace.Wrap(err, "DER-parsing attestation certificate")
	}
	consumed = len(buf) - len(rest)
	if consumed <= 0 || consumed >= len(buf) {
		return nil, 0, trace.BadParameter(
			"attestation certificate length %d out of range for %d remaining bytes", consumed, len(buf))
	}
	certBytes := buf[:consumed]
	if _, err := x509.ParseCertificate(certBytes); err != nil {
		return nil, 0, trace.Wrap(err, "parsing attestation certificate")
	}
	return append([]byte(nil), certBytes...), consumed, nil
}

func stripStatusWord(reply []byte) ([]byte, error) {
	if len(reply) < 2 || statusWord(reply) != swNoError {
		return nil, wrapKind(KindProtocol, trace.BadParameter("unexpected status word in reply of length %d", len(reply)))
	}
	return reply[:len(reply)-2], nil
}

// bufReaderT is a bounds-checked cursor over a byte slice: every read
// fails cleanly on underflow instead of panicking.
type bufReaderT struct {
	buf []byte
}

func bufReader(buf []byte) *bufReaderT { return &bufReaderT{buf: buf} }

func (r *bufReaderT) read(dst []byte) error {
	if len(r.buf) < len(dst) {
		return trace.BadParameter("buffer underflow: need %d bytes, have %d", len(dst), len(r.buf))
	}
	copy(dst, r.buf[:len(dst)])
	r.buf = r.buf[len(dst):]
	return nil
}

func (r *bufReaderT) advance(n int) error {
	if len(r.buf) < n {
		return trace.BadParameter("buffer underflow: need %d bytes, have %d", n, len(r.buf))
	}
	r.buf = r.buf[n:]
	return nil
}

func (r *bufReaderT) rest() []byte { return r.buf }
