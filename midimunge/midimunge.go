// Package midimunge packs 8-bit data into the 7-bit bytes a SysEx payload
// allows, and back. The device groups data into chunks of up to seven bytes;
// each chunk is preceded by a header byte whose bit i carries the high bit of
// the chunk's byte i, and the chunk bytes themselves are sent masked to 7 bits.
//
// Only the legacy (non-paged) custom-mode payloads use this encoding; the
// current firmware sends fixed-field structures in the clear.
package midimunge

import (
	"errors"
	"fmt"
)

const chunkSize = 7

var (
	ErrByteOutOfRange = errors.New("midimunge: byte out of range")
	ErrTruncatedData  = errors.New("midimunge: header byte with no following data")
)

// EncodedSize returns the exact number of 7-bit bytes Encode produces for n
// input bytes: one header per started chunk plus the data bytes.
func EncodedSize(n int) int {
	full := n / chunkSize
	rem := n % chunkSize
	size := full * (chunkSize + 1)
	if rem > 0 {
		size += rem + 1
	}
	return size
}

// MaxDecodedSize returns an upper bound on the number of bytes Decode can
// produce from n encoded bytes. The bound is exact when every chunk is full.
func MaxDecodedSize(n int) int {
	full := n / (chunkSize + 1)
	rem := n % (chunkSize + 1)
	size := full * chunkSize
	if rem > 0 {
		size += rem - 1
	}
	return size
}

// Encode packs data into SysEx-safe 7-bit bytes.
func Encode(data []byte) ([]byte, error) {
	out := make([]byte, 0, EncodedSize(len(data)))
	for start := 0; start < len(data); start += chunkSize {
		end := start + chunkSize
		if end > len(data) {
			end = len(data)
		}
		chunk := data[start:end]

		var header byte
		for i, b := range chunk {
			if b&0x80 != 0 {
				header |= 1 << uint(i)
			}
		}
		out = append(out, header)
		for _, b := range chunk {
			out = append(out, b&0x7F)
		}
	}
	return out, nil
}

// Decode unpacks 7-bit encoded bytes back into 8-bit data. Every input byte
// must be 0-127; a header byte that is not followed by at least one data byte
// marks a truncated encoding.
func Decode(encoded []byte) ([]byte, error) {
	for i, b := range encoded {
		if b > 0x7F {
			return nil, fmt.Errorf("%w: 0x%02X at offset %d", ErrByteOutOfRange, b, i)
		}
	}

	out := make([]byte, 0, MaxDecodedSize(len(encoded)))
	pos := 0
	for pos < len(encoded) {
		header := encoded[pos]
		pos++
		if pos >= len(encoded) {
			return nil, fmt.Errorf("%w: offset %d", ErrTruncatedData, pos-1)
		}

		n := len(encoded) - pos
		if n > chunkSize {
			n = chunkSize
		}
		for i := 0; i < n; i++ {
			b := encoded[pos+i]
			if header&(1<<uint(i)) != 0 {
				b |= 0x80
			}
			out = append(out, b)
		}
		pos += n
	}
	return out, nil
}
