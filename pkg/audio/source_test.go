package audio

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildArgs_Defaults(t *testing.T) {
	args := strings.Join(buildArgs("https://stream/x", 100, 0), " ")

	assert.Contains(t, args, "-i https://stream/x")
	assert.Contains(t, args, "-f s16le")
	assert.Contains(t, args, "-ar 48000")
	assert.Contains(t, args, "-ac 2")
	assert.NotContains(t, args, "-ss", "no seek flag without an offset")
	assert.NotContains(t, args, "volume=", "no volume filter at 100%")
}

func TestBuildArgs_VolumeFilter(t *testing.T) {
	args := strings.Join(buildArgs("https://stream/x", 150, 0), " ")
	assert.Contains(t, args, "volume=1.50")

	args = strings.Join(buildArgs("https://stream/x", 10, 0), " ")
	assert.Contains(t, args, "volume=0.10")
}

func TestBuildArgs_SeekBeforeInput(t *testing.T) {
	args := buildArgs("https://stream/x", 100, 90*time.Second)

	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-ss 90.000")

	ssIdx, inputIdx := -1, -1
	for i, a := range args {
		switch a {
		case "-ss":
			ssIdx = i
		case "-i":
			inputIdx = i
		}
	}
	assert.Greater(t, inputIdx, ssIdx, "seek must precede the input flag")
}

func TestBytesToInt16_LittleEndian(t *testing.T) {
	samples := bytesToInt16([]byte{0x01, 0x00, 0xFF, 0xFF, 0x00, 0x80})
	assert.Equal(t, []int16{1, -1, -32768}, samples)
}
