package webauthntypes_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"

	"github.com/keyward/u2fhidcore/webauthntypes"
)

func TestES256PublicKeyCBOR(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	point := elliptic.Marshal(elliptic.P256(), priv.PublicKey.X, priv.PublicKey.Y)

	out, err := webauthntypes.ES256PublicKeyCBOR(point)
	require.NoError(t, err)
	require.Len(t, out, 77)

	var decoded struct {
		KeyType   int64  `cbor:"1,keyasint"`
		Algorithm int64  `cbor:"3,keyasint"`
		Curve     int64  `cbor:"-1,keyasint"`
		X         []byte `cbor:"-2,keyasint"`
		Y         []byte `cbor:"-3,keyasint"`
	}
	require.NoError(t, cbor.Unmarshal(out, &decoded))
	require.Equal(t, int64(2), decoded.KeyType)   // kty: EC2
	require.Equal(t, int64(-7), decoded.Algorithm) // alg: ES256
	require.Equal(t, int64(1), decoded.Curve)      // crv: P-256
	require.Equal(t, point[1:33], decoded.X)
	require.Equal(t, point[33:65], decoded.Y)
}

func TestES256PublicKeyCBOR_InvalidPoint(t *testing.T) {
	tests := []struct {
		name  string
		point []byte
	}{
		{"wrong length", make([]byte, 64)},
		{"wrong prefix", func() []byte {
			p := make([]byte, 65)
			p[0] = 0x02
			return p
		}()},
		{"empty", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := webauthntypes.ES256PublicKeyCBOR(tt.point)
			require.Error(t, err)
		})
	}
}
