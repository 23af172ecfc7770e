package controller

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

type fakeLock struct {
	locks   int
	unlocks int
}

func (f *fakeLock) Lock()   { f.locks++ }
func (f *fakeLock) Unlock() { f.unlocks++ }

func newTestController(cfg Config, opts ...Option) (*Controller, *fakeClock, *fakeLock) {
	clk := &fakeClock{now: time.Unix(1000, 0)}
	lock := &fakeLock{}
	all := append([]Option{WithClock(clk), WithPointerLock(lock)}, opts...)
	return New(cfg, all...), clk, lock
}

func lockedController(t *testing.T, cfg Config, opts ...Option) (*Controller, *fakeClock, *fakeLock) {
	t.Helper()
	c, clk, lock := newTestController(cfg, opts...)
	c.RequestLock()
	c.OnPointerLockChange(true)
	if c.State() != Locked {
		t.Fatalf("expected locked session, got %s", c.State())
	}
	return c, clk, lock
}

func approxVec(a, b mgl64.Vec3) bool {
	return a.ApproxEqualThreshold(b, 1e-9)
}

func TestKeyReplayNetState(t *testing.T) {
	type event struct {
		code string
		down bool
	}
	cases := []struct {
		name   string
		events []event
		want   InputState
	}{
		{"empty", nil, InputState{}},
		{"double_down_idempotent", []event{{"KeyW", true}, {"KeyW", true}}, InputState{Forward: true}},
		{"unmatched_up", []event{{"KeyS", false}}, InputState{}},
		{"down_then_up", []event{{"KeyA", true}, {"KeyA", false}}, InputState{}},
		{"arrows_alias", []event{{"ArrowUp", true}, {"ArrowRight", true}, {"KeyW", false}}, InputState{Right: true}},
		{"letter_normalised", []event{{"w", true}, {"D", true}}, InputState{Forward: true, Right: true}},
		{"unknown_ignored", []event{{"KeyZ", true}, {"Space", true}, {"", true}}, InputState{}},
		{"all_held", []event{{"KeyW", true}, {"KeyS", true}, {"KeyA", true}, {"KeyD", true}}, InputState{true, true, true, true}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _, _ := lockedController(t, DefaultConfig())
			for _, ev := range tc.events {
				if ev.down {
					c.OnKeyDown(ev.code)
				} else {
					c.OnKeyUp(ev.code)
				}
			}
			if got := c.Input(); got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestEnteringSuspendedStateClearsInput(t *testing.T) {
	cases := []struct {
		name  string
		setup func(c *Controller)
		enter func(c *Controller)
		want  SessionState
	}{
		{"menu_from_locked", func(c *Controller) { c.OnPointerLockChange(true) }, (*Controller).OnEscape, MenuOpen},
		{"menu_from_unlocked", func(c *Controller) {}, (*Controller).OnEscape, MenuOpen},
		{"dialogue_from_locked", func(c *Controller) { c.OnPointerLockChange(true) }, func(c *Controller) { c.SetDialogueOpen(true) }, DialogueOpen},
		{"dialogue_from_unlocked", func(c *Controller) {}, func(c *Controller) { c.SetDialogueOpen(true) }, DialogueOpen},
		{"dialogue_from_menu", func(c *Controller) { c.OnEscape() }, func(c *Controller) { c.SetDialogueOpen(true) }, DialogueOpen},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _, _ := newTestController(DefaultConfig())
			tc.setup(c)
			c.OnKeyDown("KeyW")
			c.OnKeyDown("KeyD")
			tc.enter(c)

			if c.State() != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, c.State())
			}
			if c.Input().Any() {
				t.Fatalf("expected cleared input, got %+v", c.Input())
			}

			c.OnKeyDown("KeyS")
			if c.Input().Any() {
				t.Fatalf("key down while suspended must not mutate input, got %+v", c.Input())
			}
		})
	}
}

func TestTickSuspendedLeavesTransformUntouched(t *testing.T) {
	for _, state := range []SessionState{MenuOpen, DialogueOpen} {
		t.Run(state.String(), func(t *testing.T) {
			c, clk, _ := lockedController(t, DefaultConfig())
			c.OnKeyDown("KeyW")
			c.OnMouseMove(40, -25)

			if state == MenuOpen {
				c.OnEscape()
			} else {
				c.SetDialogueOpen(true)
			}

			cam := Transform{Position: mgl64.Vec3{1.5, 1.7, -3}, Yaw: 0.25, Pitch: -0.1}
			before := cam
			for i := 0; i < 10; i++ {
				clk.Advance(16 * time.Millisecond)
				c.Tick(&cam)
			}
			if cam != before {
				t.Fatalf("transform changed while %s: before %+v after %+v", state, before, cam)
			}
		})
	}
}

func TestPitchStaysWithinLimit(t *testing.T) {
	cases := []struct {
		name   string
		policy LookPolicy
		limit  float64
		scale  float64
	}{
		{"grocery_dominant_quarter_pi", LookDominantAxis, math.Pi / 4, 0.5},
		{"airport_both_half_pi", LookBothAxes, math.Pi / 2, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.LookPolicy = tc.policy
			cfg.PitchLimit = tc.limit
			cfg.PitchScale = tc.scale
			cfg.Sensitivity = 0.01
			c, _, _ := lockedController(t, cfg)

			rng := rand.New(rand.NewSource(7))
			for i := 0; i < 2000; i++ {
				dx := rng.Float64()*400 - 200
				dy := rng.Float64()*400 - 200
				c.OnMouseMove(dx, dy)
				if _, pitch := c.Look(); pitch < -tc.limit || pitch > tc.limit {
					t.Fatalf("pitch %v escaped [-%v, %v] after event %d", pitch, tc.limit, tc.limit, i)
				}
			}

			c.OnMouseMove(0, -1e9)
			if _, pitch := c.Look(); pitch != tc.limit {
				t.Fatalf("expected pitch clamped to %v, got %v", tc.limit, pitch)
			}
		})
	}
}

func TestMouseLookPolicies(t *testing.T) {
	cases := []struct {
		name      string
		policy    LookPolicy
		dx, dy    float64
		wantYaw   float64
		wantPitch float64
	}{
		{"dominant_horizontal", LookDominantAxis, 10, 5, -0.1, 0},
		{"dominant_vertical", LookDominantAxis, 2, -8, 0, 0.04},
		{"dominant_equal_ignored", LookDominantAxis, 3, 3, 0, 0},
		{"both_axes", LookBothAxes, 10, 5, -0.1, -0.025},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.LookPolicy = tc.policy
			cfg.Sensitivity = 0.01
			cfg.PitchScale = 0.5
			c, _, _ := lockedController(t, cfg)

			c.OnMouseMove(tc.dx, tc.dy)
			yaw, pitch := c.Look()
			if math.Abs(yaw-tc.wantYaw) > 1e-12 || math.Abs(pitch-tc.wantPitch) > 1e-12 {
				t.Fatalf("expected yaw=%v pitch=%v, got yaw=%v pitch=%v", tc.wantYaw, tc.wantPitch, yaw, pitch)
			}
		})
	}
}

func TestMouseIgnoresNonFiniteDeltas(t *testing.T) {
	cases := []struct {
		name   string
		policy LookPolicy
		dx, dy float64
	}{
		{"nan_pitch", LookBothAxes, 0, math.NaN()},
		{"nan_yaw", LookBothAxes, math.NaN(), 0},
		{"inf_yaw", LookBothAxes, math.Inf(1), 0},
		{"neg_inf_pitch", LookBothAxes, 0, math.Inf(-1)},
		{"dominant_inf_yaw", LookDominantAxis, math.Inf(1), 0},
		{"dominant_nan_both", LookDominantAxis, math.NaN(), math.NaN()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.LookPolicy = tc.policy
			cfg.Sensitivity = 0.01
			c, clk, _ := lockedController(t, cfg)

			c.OnMouseMove(10, 0)
			c.OnMouseMove(0, 10)
			wantYaw, wantPitch := c.Look()

			c.OnMouseMove(tc.dx, tc.dy)
			if yaw, pitch := c.Look(); yaw != wantYaw || pitch != wantPitch {
				t.Fatalf("expected yaw=%v pitch=%v, got yaw=%v pitch=%v", wantYaw, wantPitch, yaw, pitch)
			}

			c.OnKeyDown("KeyW")
			cam := Transform{}
			clk.Advance(16 * time.Millisecond)
			c.Tick(&cam)
			for _, v := range []float64{cam.Yaw, cam.Pitch, cam.Position.X(), cam.Position.Y(), cam.Position.Z()} {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Fatalf("non-finite camera after tick: %+v", cam)
				}
			}
		})
	}
}

func TestMouseIgnoredUnlessLocked(t *testing.T) {
	c, _, _ := newTestController(DefaultConfig())
	c.OnMouseMove(100, 100)
	if yaw, pitch := c.Look(); yaw != 0 || pitch != 0 {
		t.Fatalf("mouse look applied while unlocked: yaw=%v pitch=%v", yaw, pitch)
	}
}

func TestAlwaysBlockedNeverMoves(t *testing.T) {
	queries := 0
	blocked := func(mgl64.Vec3) bool {
		queries++
		return true
	}
	c, clk, _ := lockedController(t, DefaultConfig(), WithCollision(blocked))
	c.OnKeyDown("KeyW")
	c.OnKeyDown("KeyA")

	cam := Transform{Position: mgl64.Vec3{0, 1.7, 0}}
	start := cam.Position
	for i := 0; i < 50; i++ {
		clk.Advance(16 * time.Millisecond)
		c.Tick(&cam)
	}
	if cam.Position != start {
		t.Fatalf("expected position %v, got %v", start, cam.Position)
	}
	if queries != 50 {
		t.Fatalf("expected 50 collision queries, got %d", queries)
	}
}

func TestNoMovementSkipsCollisionQuery(t *testing.T) {
	queries := 0
	c, clk, _ := lockedController(t, DefaultConfig(), WithCollision(func(mgl64.Vec3) bool {
		queries++
		return false
	}))
	c.OnKeyDown("KeyW")
	c.OnKeyDown("KeyS")

	cam := Transform{}
	clk.Advance(16 * time.Millisecond)
	c.Tick(&cam)
	if queries != 0 {
		t.Fatalf("opposing keys cancel out, expected no query, got %d", queries)
	}
}

func TestTickWithoutCollisionAlwaysCommits(t *testing.T) {
	c, clk, _ := lockedController(t, DefaultConfig())
	c.OnKeyDown("KeyD")

	cam := Transform{}
	clk.Advance(200 * time.Millisecond)
	c.Tick(&cam)

	// 200ms is clamped to the 100ms default.
	want := mgl64.Vec3{0.5, 0, 0}
	if !approxVec(cam.Position, want) {
		t.Fatalf("expected %v, got %v", want, cam.Position)
	}
}

func TestFixedStepping(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Stepping = StepFixed
	cfg.Speed = 0.05
	cfg.NormalizeDiagonal = false
	c, _, _ := lockedController(t, cfg)
	c.OnKeyDown("KeyW")
	c.OnKeyDown("KeyD")

	cam := Transform{}
	for i := 0; i < 4; i++ {
		c.Tick(&cam)
	}
	want := mgl64.Vec3{0.2, 0, -0.2}
	if !approxVec(cam.Position, want) {
		t.Fatalf("expected %v, got %v", want, cam.Position)
	}
}

func TestTickAppliesLookAndWalksAlongYaw(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sensitivity = 0.001
	c, clk, _ := lockedController(t, cfg)

	// Quarter turn to the left: forward becomes -X.
	c.OnMouseMove(-math.Pi/2/cfg.Sensitivity, 0)
	c.OnKeyDown("ArrowUp")

	cam := Transform{}
	clk.Advance(50 * time.Millisecond)
	c.Tick(&cam)

	if math.Abs(cam.Yaw-math.Pi/2) > 1e-9 {
		t.Fatalf("expected yaw pi/2, got %v", cam.Yaw)
	}
	want := mgl64.Vec3{-0.25, 0, 0}
	if !approxVec(cam.Position, want) {
		t.Fatalf("expected %v, got %v", want, cam.Position)
	}
}

func TestResumeDoesNotJump(t *testing.T) {
	c, clk, _ := lockedController(t, DefaultConfig())
	cam := Transform{}

	c.OnEscape()
	clk.Advance(10 * time.Second)
	c.Tick(&cam)

	c.Resume()
	c.OnPointerLockChange(true)
	c.OnKeyDown("KeyW")
	clk.Advance(20 * time.Millisecond)
	c.Tick(&cam)

	want := mgl64.Vec3{0, 0, -0.1}
	if !approxVec(cam.Position, want) {
		t.Fatalf("expected %v, got %v", want, cam.Position)
	}
}

func TestPointerLockRequests(t *testing.T) {
	t.Run("repeated_requests_do_not_accumulate", func(t *testing.T) {
		c, _, lock := newTestController(DefaultConfig())
		for i := 0; i < 3; i++ {
			c.RequestLock()
		}
		if lock.locks != 3 {
			t.Fatalf("expected 3 host requests, got %d", lock.locks)
		}
		if c.State() != Unlocked {
			t.Fatalf("expected unlocked until host confirms, got %s", c.State())
		}
		c.OnPointerLockChange(false)
		if c.State() != Unlocked {
			t.Fatalf("rejected lock must leave session unlocked, got %s", c.State())
		}
	})

	t.Run("suspended_request_is_noop", func(t *testing.T) {
		c, _, lock := newTestController(DefaultConfig())
		c.OnEscape()
		c.RequestLock()
		c.SetDialogueOpen(true)
		c.RequestLock()
		if lock.locks != 0 {
			t.Fatalf("expected no host lock requests, got %d", lock.locks)
		}
	})

	t.Run("lock_lost_while_locked", func(t *testing.T) {
		c, _, _ := lockedController(t, DefaultConfig())
		c.OnKeyDown("KeyW")
		c.OnPointerLockChange(false)
		if c.State() != Unlocked || c.Input().Any() {
			t.Fatalf("expected unlocked with cleared input, got %s %+v", c.State(), c.Input())
		}
	})

	t.Run("lock_change_keeps_menu", func(t *testing.T) {
		c, _, _ := lockedController(t, DefaultConfig())
		c.OnEscape()
		c.OnPointerLockChange(false)
		if c.State() != MenuOpen {
			t.Fatalf("expected menu to stay open, got %s", c.State())
		}
	})

	t.Run("nil_pointer_lock", func(t *testing.T) {
		c := New(DefaultConfig())
		c.RequestLock()
		c.OnEscape()
		c.Resume()
		if c.State() != Unlocked {
			t.Fatalf("expected unlocked, got %s", c.State())
		}
	})
}

func TestEscapeTogglesMenu(t *testing.T) {
	c, _, lock := lockedController(t, DefaultConfig())

	c.OnEscape()
	if c.State() != MenuOpen || lock.unlocks != 1 {
		t.Fatalf("expected menu with released lock, got %s unlocks=%d", c.State(), lock.unlocks)
	}

	c.OnEscape()
	if c.State() != Unlocked || lock.locks != 2 {
		t.Fatalf("expected unlocked with lock requested, got %s locks=%d", c.State(), lock.locks)
	}

	c.OnPointerLockChange(true)
	if c.State() != Locked {
		t.Fatalf("expected locked, got %s", c.State())
	}
}

func TestDialogueLifecycle(t *testing.T) {
	c, _, lock := lockedController(t, DefaultConfig())

	c.SetDialogueOpen(true)
	if c.State() != DialogueOpen || lock.unlocks != 1 {
		t.Fatalf("expected dialogue with released lock, got %s unlocks=%d", c.State(), lock.unlocks)
	}

	c.OnEscape()
	if c.State() != DialogueOpen {
		t.Fatalf("escape must not leave a dialogue, got %s", c.State())
	}

	c.OnPointerLockChange(false)
	if c.State() != DialogueOpen {
		t.Fatalf("lock change must not leave a dialogue, got %s", c.State())
	}

	c.SetDialogueOpen(false)
	if c.State() != Unlocked || lock.locks != 2 {
		t.Fatalf("expected unlocked and relock requested, got %s locks=%d", c.State(), lock.locks)
	}

	c.SetDialogueOpen(false)
	if lock.locks != 2 {
		t.Fatalf("closing twice must not request lock again, got %d", lock.locks)
	}
}

func TestSyncClampsPitch(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PitchLimit = math.Pi / 4
	c := New(cfg)
	c.Sync(Transform{Yaw: 1.2, Pitch: 3})
	yaw, pitch := c.Look()
	if yaw != 1.2 || pitch != math.Pi/4 {
		t.Fatalf("expected yaw=1.2 pitch=pi/4, got %v %v", yaw, pitch)
	}
}

func TestWalkScenario(t *testing.T) {
	c, clk, lock := newTestController(DefaultConfig())
	if c.State() != Unlocked {
		t.Fatalf("expected initial unlocked, got %s", c.State())
	}

	c.RequestLock()
	c.OnPointerLockChange(true)
	if c.State() != Locked {
		t.Fatalf("expected locked, got %s", c.State())
	}

	cam := Transform{Position: mgl64.Vec3{0, 1.7, 20}}
	c.OnKeyDown("w")
	dt := 16 * time.Millisecond
	clk.Advance(dt)
	c.Tick(&cam)

	forward := HorizontalForward(0)
	want := mgl64.Vec3{0, 1.7, 20}.Add(forward.Mul(defaultSpeed * dt.Seconds()))
	if !approxVec(cam.Position, want) {
		t.Fatalf("expected %v, got %v", want, cam.Position)
	}

	c.OnEscape()
	if c.State() != MenuOpen || c.Input().Any() || lock.unlocks != 1 {
		t.Fatalf("expected menu with cleared input, got %s %+v", c.State(), c.Input())
	}

	frozen := cam
	for i := 0; i < 5; i++ {
		clk.Advance(dt)
		c.Tick(&cam)
	}
	if cam != frozen {
		t.Fatalf("tick moved camera while menu open")
	}

	c.Resume()
	c.OnPointerLockChange(true)
	if c.State() != Locked {
		t.Fatalf("expected locked after resume, got %s", c.State())
	}
}
