package encode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppendULEB128(t *testing.T) {
	cases := []struct {
		in   uint32
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{300, []byte{0xac, 0x02}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, appendULEB128(nil, c.in))
	}
}

func TestAppendSLEB128(t *testing.T) {
	cases := []struct {
		in   int32
		want []byte
	}{
		{0, []byte{0x00}},
		{-1, []byte{0x7f}},
		{63, []byte{0x3f}},
		{64, []byte{0xc0, 0x00}},
		{-64, []byte{0x40}},
		{-65, []byte{0xbf, 0x7f}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, appendSLEB128(nil, c.in))
	}
}

func TestAppendSLEB128_64(t *testing.T) {
	assert.Equal(t, []byte{0x00}, appendSLEB128_64(nil, 0))
	assert.Equal(t, []byte{0x7f}, appendSLEB128_64(nil, -1))
}
