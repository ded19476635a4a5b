package webauthncli

import (
	"context"
	"crypto/sha256"

	"github.com/gravitational/trace"
	log "github.com/sirupsen/logrus"

	"github.com/keyward/u2fhidcore/internal/apdu"
	"github.com/keyward/u2fhidcore/webauthntypes"
)

// AlgES256 is the only COSE algorithm identifier U2F can satisfy.
const AlgES256 = -7

const sha256Len = 32

// Register drives a U2F REGISTER exchange against dev, populating out
// on success. It sequences the exclude-list probe (key_lookup for each
// excluded id, with a dummy touch-forcing REGISTER on a hit), then the
// real REGISTER APDU, through the poll loop and response parser.
//
// timeoutMS is the per-poll-attempt timeout in milliseconds, or -1 to
// poll forever at DevicePollInterval.
func Register(ctx context.Context, dev Device, req *webauthntypes.CredentialCreationRequest, out *webauthntypes.Credential, timeoutMS int) error {
	if err := validateRegisterRequest(req); err != nil {
		return err
	}

	for _, excluded := range req.ExcludeList {
		found, err := keyLookup(ctx, dev, req.RPID, excluded, timeoutMS)
		if err != nil {
			return err
		}
		if found {
			if err := sendDummyRegister(ctx, dev, timeoutMS); err != nil {
				return err
			}
			return ErrCredentialExcluded
		}
	}

	rpIDHash := sha256.Sum256([]byte(req.RPID))

	builder := apdu.New(insRegister, 0x00, 2*sha256Len)
	if err := builder.Write(req.ClientDataHash); err != nil {
		return wrapKind(KindInternal, trace.Wrap(err))
	}
	if err := builder.Write(rpIDHash[:]); err != nil {
		return wrapKind(KindInternal, trace.Wrap(err))
	}

	reply, err := pollLoop(ctx, dev, builder.Bytes(), timeoutMS)
	if err != nil {
		return err
	}

	return populateCredential(req.RPID, reply, out)
}

func validateRegisterRequest(req *webauthntypes.CredentialCreationRequest) error {
	switch {
	case req.RPID == "":
		return wrapKind(KindInvalidArgument, trace.BadParameter("relying party id required"))
	case len(req.ClientDataHash) != sha256Len:
		return wrapKind(KindInvalidArgument, trace.BadParameter(
			"client data hash must be %d bytes, got %d", sha256Len, len(req.ClientDataHash)))
	case req.Algorithm != AlgES256:
		return wrapKind(KindInvalidArgument, trace.BadParameter(
			"U2F only supports ES256 (%d), got algorithm %d", AlgES256, req.Algorithm))
	}
	if req.ResidentKey {
		return wrapKind(KindUnsupportedOption, trace.BadParameter("resident keys are not supported by U2F"))
	}
	if req.UserVerification {
		return wrapKind(KindUnsupportedOption, trace.BadParameter("user verification is not supported by U2F"))
	}
	return nil
}

// populateCredential parses a REGISTER reply and fills out out.
func populateCredential(rpID string, reply []byte, out *webauthntypes.Credential) error {
	parsed, err := parseRegisterReply(reply)
	if err != nil {
		return err
	}

	pubKeyCOSE, err := coseKeyFromU2FPoint(parsed.pubKey[:])
	if err != nil {
		return err
	}

	header := newAuthDataHeader(rpID, registrationFlags, [4]byte{}) // sigcount zeroed for a fresh registration
	authData, err := encodeCredAuthdata(header, parsed.keyHandle, pubKeyCOSE)
	if err != nil {
		return err
	}

	out.SetFormat("fido-u2f")
	out.SetID(parsed.keyHandle)
	out.SetAuthData(authData)
	out.SetX509(parsed.attestationCert)
	out.SetSignature(parsed.signature)
	return nil
}

// sendDummyRegister issues a REGISTER with an all-0xFF challenge and
// application id, solely to block until the user touches the key, so
// that an exclude-list hit still gives the caller the same UX as a
// successful registration. The resulting attestation is discarded.
func sendDummyRegister(ctx context.Context, dev Device, timeoutMS int) error {
	var dummy [sha256Len]byte
	for i := range dummy {
		dummy[i] = 0xff
	}

	builder := apdu.New(insRegister, 0x00, 2*sha256Len)
	if err := builder.Write(dummy[:]); err != nil {
		return wrapKind(KindInternal, trace.Wrap(err))
	}
	if err := builder.Write(dummy[:]); err != nil {
		return wrapKind(KindInternal, trace.Wrap(err))
	}

	_, err := pollLoop(ctx, dev, builder.Bytes(), timeoutMS)
	if err != nil {
		log.WithField("component", "webauthncli").Warn("dummy register failed while forcing user touch")
	}
	return err
}
