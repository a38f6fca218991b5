package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var square = Loop{{0, 0}, {10, 0}, {10, 10}, {0, 10}}

func TestSignedAreaAndCentroid(t *testing.T) {
	assert.InDelta(t, 100, SignedArea(square), 1e-12)

	rev := Loop{square[3], square[2], square[1], square[0]}
	assert.InDelta(t, -100, SignedArea(rev), 1e-12)

	c := Centroid(square)
	assert.InDelta(t, 5, c.X, 1e-12)
	assert.InDelta(t, 5, c.Y, 1e-12)
}

func TestClipRect(t *testing.T) {
	tri := []Vec2{{-5, 5}, {5, -5}, {5, 15}}
	got := ClipRect(tri, 10, 10)
	for _, p := range got {
		assert.GreaterOrEqual(t, p.X, 0.0)
		assert.LessOrEqual(t, p.X, 10.0)
		assert.GreaterOrEqual(t, p.Y, 0.0)
		assert.LessOrEqual(t, p.Y, 10.0)
	}
	assert.Positive(t, SignedArea(got))

	assert.Empty(t, ClipRect([]Vec2{{20, 20}, {30, 20}, {30, 30}}, 10, 10))
}

func TestChaikinStaysInsideConvexHull(t *testing.T) {
	smoothed := Chaikin(square, 4)
	assert.Len(t, smoothed, len(square)*16)
	for _, p := range smoothed {
		assert.GreaterOrEqual(t, p.X, 0.0)
		assert.LessOrEqual(t, p.X, 10.0)
		assert.GreaterOrEqual(t, p.Y, 0.0)
		assert.LessOrEqual(t, p.Y, 10.0)
	}
	assert.Less(t, SignedArea(smoothed), SignedArea(square))
	assert.Positive(t, SignedArea(smoothed))
}

func TestChaikinShortLoopUnchanged(t *testing.T) {
	line := Loop{{0, 0}, {1, 1}}
	assert.Equal(t, line, Chaikin(line, 3))
}
