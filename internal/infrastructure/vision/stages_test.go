//go:build gocv
// +build gocv

package vision

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"leaf-health-bot/internal/domain/entity"
)

// noiseGray одноканальный кадр со случайными яркостями.
func noiseGray(t *testing.T, rows, cols int) gocv.Mat {
	t.Helper()
	rnd := rand.New(rand.NewSource(3))
	data := make([]byte, rows*cols)
	rnd.Read(data)
	m, err := gocv.NewMatFromBytes(rows, cols, gocv.MatTypeCV8UC1, data)
	require.NoError(t, err)
	return m
}

func TestIsolateForeground_GrabCutErrorIsSegmentationFailure(t *testing.T) {
	src := noiseGray(t, 60, 60)
	defer src.Close()

	_, _, err := isolateForeground(src)
	require.ErrorIs(t, err, entity.ErrSegmentationFailure)
	require.Contains(t, err.Error(), "grabcut")
}

func TestEqualize_SingleChannelFails(t *testing.T) {
	src := noiseGray(t, 32, 32)
	defer src.Close()

	_, err := equalize(src)
	require.Error(t, err)
	require.Contains(t, err.Error(), "to lab")
}

func TestThresholdColors_SingleChannelFails(t *testing.T) {
	src := noiseGray(t, 32, 32)
	defer src.Close()

	_, err := thresholdColors(src)
	require.Error(t, err)
	require.Contains(t, err.Error(), "to hsv")
}

func TestDetectEdges_FloatInputFails(t *testing.T) {
	src := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0.5, 0, 0, 0), 32, 32, gocv.MatTypeCV32F)
	defer src.Close()

	_, err := detectEdges(src)
	require.Error(t, err)
	require.Contains(t, err.Error(), "canny")
}

func TestBuildHeatmap_MismatchedMaskTypesFail(t *testing.T) {
	original := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(100, 100, 100, 0), 40, 40, gocv.MatTypeCV8UC3)
	defer original.Close()
	yellow := filledMask(40, 40, 0)
	defer yellow.Close()
	brown := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 40, 40, gocv.MatTypeCV8UC3)
	defer brown.Close()

	_, _, err := buildHeatmap(original, yellow, brown)
	require.Error(t, err)
	require.Contains(t, err.Error(), "combine masks")
}
