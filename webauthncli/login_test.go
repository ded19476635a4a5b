package webauthncli_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/keyward/u2fhidcore/webauthncli"
	"github.com/keyward/u2fhidcore/webauthntypes"
)

func buildAuthReply(flags byte, counter [4]byte, sig []byte) []byte {
	out := append([]byte{flags}, counter[:]...)
	out = append(out, sig...)
	out = append(out, statusWord(0x9000)...)
	return out
}

func TestAuthenticate_InvalidArgument(t *testing.T) {
	dev := &fakeDevice{}
	var assertion webauthntypes.Assertion
	req := &webauthntypes.AssertionRequest{RPID: "example.com", ClientDataHash: fixedBytes(32, 1)}
	err := webauthncli.Authenticate(context.Background(), dev, req, &assertion, 1)
	require.Error(t, err)
	require.Equal(t, webauthncli.KindInvalidArgument, webauthncli.KindOf(err))
	require.Zero(t, dev.calls)
}

func TestAuthenticate_UnsupportedOption(t *testing.T) {
	dev := &fakeDevice{}
	var assertion webauthntypes.Assertion
	req := &webauthntypes.AssertionRequest{
		RPID: "example.com", ClientDataHash: fixedBytes(32, 1),
		AllowList: [][]byte{fixedBytes(16, 2)}, UserVerification: true,
	}
	err := webauthncli.Authenticate(context.Background(), dev, req, &assertion, 1)
	require.Error(t, err)
	require.Equal(t, webauthncli.KindUnsupportedOption, webauthncli.KindOf(err))
	require.Zero(t, dev.calls)
}

// TestAuthenticate_MixedAllowList exercises an allow list where only
// the second of three credential ids is recognized by the device: the
// first and third CHECK-ONLY lookups report "not present", the second
// reports "present", and the caller asked for user presence, so a full
// SIGN exchange follows for the one matching id.
func TestAuthenticate_MixedAllowList(t *testing.T) {
	counter := [4]byte{0, 0, 0, 7}
	sig := fixedBytes(70, 0x55)

	dev := &fakeDevice{
		replies: [][]byte{
			statusWord(0x6a80), // lookup id[0]: not present
			statusWord(0x6985), // lookup id[1]: present
			buildAuthReply(0x01, counter, sig),
			statusWord(0x6a80), // lookup id[2]: not present
		},
	}

	req := &webauthntypes.AssertionRequest{
		RPID:           "example.com",
		ClientDataHash: fixedBytes(32, 0xcd),
		AllowList:      [][]byte{fixedBytes(16, 1), fixedBytes(16, 2), fixedBytes(16, 3)},
		UserPresence:   true,
	}

	var assertion webauthntypes.Assertion
	err := webauthncli.Authenticate(context.Background(), dev, req, &assertion, 1)
	require.NoError(t, err)
	require.Equal(t, 1, assertion.Count())

	stmt := assertion.Statements()[0]
	require.Equal(t, req.AllowList[1], stmt.ID())
	require.Equal(t, sig, stmt.Signature())
	require.NotEmpty(t, stmt.AuthData())
}

func TestAuthenticate_UserPresenceRequired(t *testing.T) {
	dev := &fakeDevice{
		replies: [][]byte{
			statusWord(0x6985), // lookup: present
		},
	}
	req := &webauthntypes.AssertionRequest{
		RPID:           "example.com",
		ClientDataHash: fixedBytes(32, 0xcd),
		AllowList:      [][]byte{fixedBytes(16, 1)},
		UserPresence:   false,
	}

	var assertion webauthntypes.Assertion
	err := webauthncli.Authenticate(context.Background(), dev, req, &assertion, 1)
	require.ErrorIs(t, err, webauthncli.ErrUserPresenceRequired)
}

func TestAuthenticate_NoneRecognized(t *testing.T) {
	dev := &fakeDevice{
		replies: [][]byte{
			statusWord(0x6a80),
			statusWord(0x6a80),
		},
	}
	req := &webauthntypes.AssertionRequest{
		RPID:           "example.com",
		ClientDataHash: fixedBytes(32, 0xcd),
		AllowList:      [][]byte{fixedBytes(16, 1), fixedBytes(16, 2)},
		UserPresence:   true,
	}

	var assertion webauthntypes.Assertion
	err := webauthncli.Authenticate(context.Background(), dev, req, &assertion, 1)
	require.NoError(t, err)
	require.Equal(t, 0, assertion.Count())
}
