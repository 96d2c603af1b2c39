package console

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "$43250.50", FormatPrice(43250.5))
	assert.Equal(t, "$2.3456", FormatPrice(2.3456))
	assert.Equal(t, "$0.00001234", FormatPrice(0.00001234))
}

func TestFormatVolume(t *testing.T) {
	assert.Equal(t, "1.50B", FormatVolume(1.5e9))
	assert.Equal(t, "12.30M", FormatVolume(12.3e6))
	assert.Equal(t, "9.90K", FormatVolume(9900))
	assert.Equal(t, "512.00", FormatVolume(512))
}

func TestFormatPercentKeepsSign(t *testing.T) {
	assert.Contains(t, FormatPercent(3.21), "+3.21%")
	assert.Contains(t, FormatPercent(-1.07), "-1.07%")
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, WriteJSON(path, map[string]int{"a": 1}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]int
	require.NoError(t, sonic.Unmarshal(data, &decoded))
	assert.Equal(t, 1, decoded["a"])
}
