package physics_test

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/tiltball/internal/physics"
)

var _ = Describe("Body", func() {
	var (
		params physics.Params
		vp     physics.Viewport
		body   *physics.Body
	)

	BeforeEach(func() {
		params = physics.DefaultParams()
		vp = physics.Viewport{Width: 480, Height: 320}
		body = physics.NewBody(vp, physics.DefaultRadius)
	})

	Describe("Accelerate", func() {
		It("accumulates samples before the next update", func() {
			physics.Accelerate(body, physics.Sample{X: 1, Y: 1}, params)
			physics.Accelerate(body, physics.Sample{X: 3, Y: -1}, params)
			Expect(body.Velocity).To(Equal(mgl64.Vec2{2, 0}))
		})

		It("does not move the body on its own", func() {
			start := body.Position
			physics.Accelerate(body, physics.Sample{X: 100, Y: 100}, params)
			Expect(body.Position).To(Equal(start))
		})
	})

	Describe("Update", func() {
		It("keeps the body inside the viewport under random tilt", func() {
			rng := rand.New(rand.NewSource(42))
			for i := 0; i < 5000; i++ {
				physics.Accelerate(body, physics.Sample{X: rng.NormFloat64() * 8, Y: rng.NormFloat64() * 8}, params)
				physics.Update(body, vp, params)

				Expect(body.Position.X()).To(BeNumerically(">=", body.Radius))
				Expect(body.Position.X()).To(BeNumerically("<=", float64(vp.Width)-body.Radius))
				Expect(body.Position.Y()).To(BeNumerically(">=", body.Radius))
				Expect(body.Position.Y()).To(BeNumerically("<=", float64(vp.Height)-body.Radius))
			}
		})

		It("reflects off the right wall and clamps", func() {
			body.Position = mgl64.Vec2{float64(vp.Width) - body.Radius, 160}
			body.Velocity = mgl64.Vec2{6, 0}

			ev := physics.Update(body, vp, params)

			Expect(ev.Bounced).To(Equal(physics.EdgeRight))
			Expect(body.Velocity.X()).To(BeNumerically("<", 0))
			Expect(body.Position.X()).To(Equal(float64(vp.Width) - body.Radius))
		})

		It("never flips a body resting on a wall", func() {
			body.Position = mgl64.Vec2{body.Radius, 160}
			for i := 0; i < 200; i++ {
				Expect(physics.Update(body, vp, params).Bounced).To(BeZero())
			}
			Expect(body.Velocity).To(Equal(mgl64.Vec2{}))
		})

		DescribeTable("spin sign by edge",
			func(pos, vel mgl64.Vec2, wantPositive bool) {
				body.Position = pos
				body.Velocity = vel
				physics.Update(body, vp, params)
				if wantPositive {
					Expect(body.Spin).To(BeNumerically(">", 0))
				} else {
					Expect(body.Spin).To(BeNumerically("<", 0))
				}
			},
			Entry("left, moving down", mgl64.Vec2{15, 160}, mgl64.Vec2{-4, 8}, true),
			Entry("right, moving down", mgl64.Vec2{465, 160}, mgl64.Vec2{4, 8}, false),
			Entry("top, moving right", mgl64.Vec2{240, 15}, mgl64.Vec2{8, -4}, false),
			Entry("bottom, moving right", mgl64.Vec2{240, 305}, mgl64.Vec2{8, 4}, true),
		)

		It("settles velocity and spin to zero", func() {
			body.Velocity = mgl64.Vec2{3, 3}
			body.Spin = 2
			for i := 0; i < 3000; i++ {
				physics.Update(body, vp, params)
			}
			Expect(body.Speed()).To(BeZero())
			Expect(body.Spin).To(BeZero())
		})
	})
})
