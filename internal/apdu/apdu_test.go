package apdu_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/keyward/u2fhidcore/internal/apdu"
)

func TestBuilder_Bytes(t *testing.T) {
	b := apdu.New(0x01, 0x00, 4)
	require.NoError(t, b.Write([]byte{0xaa, 0xbb}))
	require.NoError(t, b.Write([]byte{0xcc, 0xdd}))

	want := []byte{
		0x00, 0x01, 0x00, 0x00, // CLA INS P1 P2
		0x00, 0x00, 0x04, // extended length marker + 2-byte length
		0xaa, 0xbb, 0xcc, 0xdd, // payload
		0x00, 0x00, // Le wildcard
	}
	require.Equal(t, want, b.Bytes())
	require.Equal(t, 4, b.Len())
}

func TestBuilder_Overflow(t *testing.T) {
	b := apdu.New(0x02, 0x03, 2)
	require.NoError(t, b.Write([]byte{0x01, 0x02}))
	err := b.Write([]byte{0x03})
	require.Error(t, err)
}

func TestBuilder_EmptyPayload(t *testing.T) {
	b := apdu.New(0x01, 0x00, 0)
	want := []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	require.Equal(t, want, b.Bytes())
}
