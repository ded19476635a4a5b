package webauthncli

import (
	"context"
	"crypto/sha256"
	"errors"

	"github.com/gravitational/trace"

	"github.com/keyward/u2fhidcore/internal/apdu"
	"github.com/keyward/u2fhidcore/webauthntypes"
)

// Authenticate drives U2F AUTHENTICATE exchanges against dev for each
// credential in req.AllowList, populating out with one statement per
// credential that successfully signs. Allow-list entries the device
// doesn't recognize are skipped silently; any other failure aborts the
// whole call.
func Authenticate(ctx context.Context, dev Device, req *webauthntypes.AssertionRequest, out *webauthntypes.Assertion, timeoutMS int) error {
	if req.AllowList == nil {
		return wrapKind(KindInvalidArgument, trace.BadParameter("allow list required"))
	}
	if req.UserVerification {
		return wrapKind(KindUnsupportedOption, trace.BadParameter("user verification is not supported by U2F"))
	}

	out.SetCount(len(req.AllowList))

	nauthOK := 0
	for _, keyHandle := range req.AllowList {
		err := authenticateSingle(ctx, dev, req, keyHandle, out.Statement(nauthOK), timeoutMS)
		switch {
		case err == nil:
			nauthOK++
		case errors.Is(err, errKeyNotPresent):
			// Not recognized; try the next allow-list entry.
		default:
			return err
		}
	}
	out.Commit(nauthOK)
	return nil
}

func authenticateSingle(ctx context.Context, dev Device, req *webauthntypes.AssertionRequest, keyHandle []byte, stmt *webauthntypes.Statement, timeoutMS int) error {
	found, err := keyLookup(ctx, dev, req.RPID, keyHandle, timeoutMS)
	if err != nil {
		return err
	}
	if !found {
		return errKeyNotPresent
	}
	if !req.UserPresence {
		return ErrUserPresenceRequired
	}

	sig, authData, err := doAuth(ctx, dev, req.RPID, req.ClientDataHash, keyHandle, timeoutMS)
	if err != nil {
		return err
	}

	stmt.SetID(keyHandle)
	stmt.SetAuthData(authData)
	stmt.SetSignature(sig)
	return nil
}

// doAuth sends a SIGN AUTHENTICATE APDU through the poll loop and
// parses the reply into a signature and synthesized authenticator data.
func doAuth(ctx context.Context, dev Device, rpID string, clientDataHash, keyHandle []byte, timeoutMS int) (signature, authData []byte, err error) {
	if len(clientDataHash) != sha256Len || len(keyHandle) > 0xff || rpID == "" {
		return nil, nil, wrapKind(KindInvalidArgument, trace.BadParameter(
			"client data hash len=%d, key handle len=%d, rp id=%q", len(clientDataHash), len(keyHandle), rpID))
	}

	rpIDHash := sha256.Sum256([]byte(rpID))

	builder := apdu.New(insAuthenticate, p1Sign, 2*sha256Len+1+len(keyHandle))
	if err := writeAuthPayload(builder, clientDataHash, rpIDHash[:], keyHandle); err != nil {
		return nil, nil, err
	}

	reply, err := pollLoop(ctx, dev, builder.Bytes(), timeoutMS)
	if err != nil {
		return nil, nil, err
	}

	parsed, err := parseAuthReply(reply)
	if err != nil {
		return nil, nil, err
	}

	header := newAuthDataHeader(rpID, parsed.flags, parsed.counter)
	fakeAuthData, err := authdataFake(header)
	if err != nil {
		return nil, nil, err
	}

	return parsed.signature, fakeAuthData, nil
}
