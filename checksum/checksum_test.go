package checksum_test

import (
	"bytes"
	"testing"

	"github.com/nanowc/wcedit/checksum"
	"github.com/stretchr/testify/require"
)

func TestOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		want string
	}{
		{name: "empty", data: []byte{}, want: "d41d8cd98f00b204e9800998ecf8427e"},
		{name: "hello", data: []byte("hello"), want: "5d41402abc4b2a76b9719d911017c592"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := checksum.Of(tt.data)
			require.Equal(t, tt.want, got.String())
		})
	}
}

func TestFromHex_RoundTrip(t *testing.T) {
	t.Parallel()

	c := checksum.Of([]byte("round trip"))
	parsed, err := checksum.FromHex(c.String())
	require.NoError(t, err)
	require.True(t, c.Is(parsed))
}

func TestFromHex_Empty(t *testing.T) {
	t.Parallel()

	c, err := checksum.FromHex("")
	require.NoError(t, err)
	require.True(t, c.IsZero())
}

func TestFromHex_WrongLength(t *testing.T) {
	t.Parallel()

	_, err := checksum.FromHex("abcd")
	require.Error(t, err)
}

func TestFromHex_InvalidHex(t *testing.T) {
	t.Parallel()

	_, err := checksum.FromHex("not-hex-at-all-zzzzzzzzzzzzzzzzz")
	require.Error(t, err)
}

func TestCopyAndSum(t *testing.T) {
	t.Parallel()

	src := bytes.NewReader([]byte("pristine text base contents"))
	var dst bytes.Buffer

	sum, n, err := checksum.CopyAndSum(&dst, src)
	require.NoError(t, err)
	require.Equal(t, int64(len("pristine text base contents")), n)
	require.Equal(t, "pristine text base contents", dst.String())
	require.Equal(t, checksum.Of([]byte("pristine text base contents")), sum)
}

func TestHasher_Sum(t *testing.T) {
	t.Parallel()

	h := checksum.NewHasher()
	_, err := h.Write([]byte("part one "))
	require.NoError(t, err)
	_, err = h.Write([]byte("part two"))
	require.NoError(t, err)

	require.Equal(t, checksum.Of([]byte("part one part two")), h.Sum())
}

func TestZero(t *testing.T) {
	t.Parallel()

	var c checksum.Checksum
	require.True(t, c.IsZero())
	require.False(t, checksum.Of([]byte("x")).IsZero())
}
