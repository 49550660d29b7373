package speech

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResample(t *testing.T) {
	tests := []struct {
		name     string
		input    []int16
		from, to int
		wantLen  int
	}{
		{"same rate", []int16{1, 2, 3, 4}, 16000, 16000, 4},
		{"downsample", make([]int16, 480), 24000, 16000, 320},
		{"upsample", make([]int16, 160), 16000, 48000, 480},
		{"empty", nil, 24000, 16000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, Resample(tt.input, tt.from, tt.to), tt.wantLen)
		})
	}
}

func TestResampleInterpolates(t *testing.T) {
	out := Resample([]int16{0, 100}, 1, 2)
	require.Len(t, out, 4)
	assert.Equal(t, int16(0), out[0])
	assert.Equal(t, int16(50), out[1])
	assert.Equal(t, int16(100), out[2])
}

func TestBytesRoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768}
	assert.Equal(t, samples, BytesToSamples(SamplesToBytes(samples)))
	assert.Len(t, ResampleBytes(SamplesToBytes(make([]int16, 240)), 24000, 16000), 320)
}

func TestDuration(t *testing.T) {
	assert.Equal(t, time.Second, Duration(make([]byte, 32000), 16000))
	assert.Zero(t, Duration(make([]byte, 10), 0))
}

func TestEncodeWAV(t *testing.T) {
	pcm := make([]byte, 100)
	wav := EncodeWAV(pcm, 16000)

	require.Len(t, wav, 144)
	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, uint32(136), binary.LittleEndian.Uint32(wav[4:8]))
	assert.Equal(t, uint32(16000), binary.LittleEndian.Uint32(wav[24:28]))
	assert.Equal(t, "data", string(wav[36:40]))
	assert.Equal(t, uint32(100), binary.LittleEndian.Uint32(wav[40:44]))
}
