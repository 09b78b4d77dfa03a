package physics

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKernel() *Kernel {
	return NewKernel(800, 600, 6, 5, 12, 1.05)
}

func TestAdvanceIntegratesPosition(t *testing.T) {
	k := newTestKernel()
	b := &Ball{X: 100, Y: 100, Vx: 3, Vy: -2, Radius: 8}
	k.Advance(b)
	assert.Equal(t, 103.0, b.X)
	assert.Equal(t, 98.0, b.Y)
}

func TestWallCollideReflectsAtTopAndBottom(t *testing.T) {
	k := newTestKernel()

	top := &Ball{X: 400, Y: 8, Vx: 1, Vy: -3, Radius: 8}
	k.WallCollide(top)
	assert.Equal(t, 8.0, top.Y)
	assert.Equal(t, 3.0, top.Vy)

	bottom := &Ball{X: 400, Y: 592, Vx: 1, Vy: 3, Radius: 8}
	k.WallCollide(bottom)
	assert.Equal(t, 592.0, bottom.Y)
	assert.Equal(t, -3.0, bottom.Vy)
}

func TestWallCollideExactlyOnBoundaryReflectsOnce(t *testing.T) {
	k := newTestKernel()
	b := &Ball{X: 400, Y: 8, Vx: 0, Vy: -4, Radius: 8}
	k.WallCollide(b)
	assert.Equal(t, 4.0, b.Vy)
	// A second call this same tick must not flip it back again.
	k.WallCollide(b)
	assert.Equal(t, 4.0, b.Vy)
}

func TestPaddleCollideAtCenterProducesZeroVy(t *testing.T) {
	k := newTestKernel()
	p := &Paddle{X: 15, Y: 250, Width: 15, Height: 100, Side: Left}
	b := &Ball{X: 30, Y: 300, Vx: -5, Vy: 0, Radius: 8, Speed: 5}

	hit := k.PaddleCollide(b, p)
	require.True(t, hit)
	assert.InDelta(t, 0, b.Vy, 1e-9)
	assert.Greater(t, b.Vx, 0.0)
}

func TestPaddleCollideAtTopEdgeSteersNegative(t *testing.T) {
	k := newTestKernel()
	p := &Paddle{X: 15, Y: 250, Width: 15, Height: 100, Side: Left}
	b := &Ball{X: 30, Y: 250, Vx: -5, Vy: 0, Radius: 8, Speed: 5}

	k.PaddleCollide(b, p)
	assert.InDelta(t, -5.0, b.Vy, 1e-9)
}

func TestPaddleCollideAtBottomEdgeSteersPositive(t *testing.T) {
	k := newTestKernel()
	p := &Paddle{X: 15, Y: 250, Width: 15, Height: 100, Side: Left}
	b := &Ball{X: 30, Y: 350, Vx: -5, Vy: 0, Radius: 8, Speed: 5}

	k.PaddleCollide(b, p)
	assert.InDelta(t, 5.0, b.Vy, 1e-9)
}

func TestPaddleCollideRampsSpeedUpToMax(t *testing.T) {
	k := newTestKernel()
	p := &Paddle{X: 15, Y: 250, Width: 15, Height: 100, Side: Left}
	b := &Ball{X: 30, Y: 300, Vx: -11.8, Vy: 0, Radius: 8, Speed: 11.8}

	k.PaddleCollide(b, p)
	assert.LessOrEqual(t, math.Hypot(b.Vx, b.Vy), k.MaxSpeed+1e-9)
	assert.LessOrEqual(t, b.Speed, k.MaxSpeed)
}

func TestDetectScoreLeftAndRight(t *testing.T) {
	k := newTestKernel()

	right := &Ball{X: -10, Y: 300, Radius: 8}
	assert.Equal(t, RightScored, k.DetectScore(right))

	left := &Ball{X: 810, Y: 300, Radius: 8}
	assert.Equal(t, LeftScored, k.DetectScore(left))

	mid := &Ball{X: 400, Y: 300, Radius: 8}
	assert.Equal(t, NoScore, k.DetectScore(mid))
}

func TestResetBallWithFixedSeedIsDeterministic(t *testing.T) {
	k := newTestKernel()
	k.Rand = rand.New(rand.NewSource(42))
	a := &Ball{Radius: 8}
	k.ResetBall(a, Right)

	k.Rand = rand.New(rand.NewSource(42))
	b := &Ball{Radius: 8}
	k.ResetBall(b, Right)

	assert.Equal(t, a.Vx, b.Vx)
	assert.Equal(t, a.Vy, b.Vy)
}

func TestResetBallAngleStaysWithinThirtyDegrees(t *testing.T) {
	k := newTestKernel()
	k.Rand = rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		b := &Ball{Radius: 8}
		k.ResetBall(b, Left)
		assert.InDelta(t, k.InitialSpeed, math.Hypot(b.Vx, b.Vy), 1e-9)
		angle := math.Abs(math.Atan2(b.Vy, math.Abs(b.Vx)))
		assert.LessOrEqual(t, angle, 30*math.Pi/180+1e-9)
	}
}

func TestResetBallServesTowardLoser(t *testing.T) {
	k := newTestKernel()

	b := &Ball{Radius: 8}
	k.ResetBall(b, Right)
	assert.Equal(t, k.Width/2, b.X)
	assert.Equal(t, k.Height/2, b.Y)
	assert.Greater(t, b.Vx, 0.0)
	assert.Equal(t, k.InitialSpeed, b.Speed)

	k.ResetBall(b, Left)
	assert.Less(t, b.Vx, 0.0)
}

func TestMovePaddleClampsToField(t *testing.T) {
	k := newTestKernel()

	p := &Paddle{Y: 2, Height: 100}
	k.MovePaddle(p, Up)
	assert.Equal(t, 0.0, p.Y)

	p.Y = k.Height - p.Height - 2
	k.MovePaddle(p, Down)
	assert.Equal(t, k.Height-p.Height, p.Y)

	p.Y = 300
	k.MovePaddle(p, None)
	assert.Equal(t, 300.0, p.Y)
}
