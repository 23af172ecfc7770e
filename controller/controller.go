package controller

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/locationgame/common"
	"go.uber.org/zap"
)

// LookPolicy decides how a mouse event is split between yaw and pitch.
type LookPolicy string

const (
	// LookDominantAxis applies only the larger-magnitude axis of each event.
	LookDominantAxis LookPolicy = "dominant_axis"
	// LookBothAxes applies both axes of every event.
	LookBothAxes LookPolicy = "both_axes"
)

// Stepping decides how far one Tick walks.
type Stepping string

const (
	// StepDeltaTime scales Speed (units per second) by real elapsed time.
	StepDeltaTime Stepping = "delta_time"
	// StepFixed moves Speed units every tick.
	StepFixed Stepping = "fixed"
)

const (
	defaultSpeed       = 5.0
	defaultSensitivity = 0.002
	defaultMaxDelta    = 100 * time.Millisecond
)

// Config tunes movement and mouse look.
type Config struct {
	Speed             float64
	Sensitivity       float64
	PitchScale        float64
	PitchLimit        float64
	LookPolicy        LookPolicy
	Stepping          Stepping
	MaxDelta          time.Duration
	NormalizeDiagonal bool
	KeyMap            KeyMap
}

// DefaultConfig is the reference behaviour: frame-rate independent walking,
// both look axes per event and a ±90° pitch range.
func DefaultConfig() Config {
	return Config{
		Speed:             defaultSpeed,
		Sensitivity:       defaultSensitivity,
		PitchScale:        1,
		PitchLimit:        math.Pi / 2,
		LookPolicy:        LookBothAxes,
		Stepping:          StepDeltaTime,
		MaxDelta:          defaultMaxDelta,
		NormalizeDiagonal: true,
		KeyMap:            DefaultKeyMap(),
	}
}

func (c Config) withDefaults() Config {
	if c.Speed <= 0 {
		c.Speed = defaultSpeed
	}
	if c.Sensitivity <= 0 {
		c.Sensitivity = defaultSensitivity
	}
	if c.PitchScale <= 0 {
		c.PitchScale = 1
	}
	if c.PitchLimit <= 0 {
		c.PitchLimit = math.Pi / 2
	}
	if c.LookPolicy != LookDominantAxis {
		c.LookPolicy = LookBothAxes
	}
	if c.Stepping != StepFixed {
		c.Stepping = StepDeltaTime
	}
	if c.MaxDelta <= 0 {
		c.MaxDelta = defaultMaxDelta
	}
	if c.KeyMap == nil {
		c.KeyMap = DefaultKeyMap()
	}
	return c
}

// PointerLock is the host's cursor capture. Lock may be refused; the host
// reports the outcome through OnPointerLockChange.
type PointerLock interface {
	Lock()
	Unlock()
}

// CollisionQuery reports whether the camera may not stand at candidate.
type CollisionQuery func(candidate mgl64.Vec3) bool

// Option configures a Controller at construction.
type Option func(*Controller)

func WithPointerLock(l PointerLock) Option {
	return func(c *Controller) { c.lock = l }
}

func WithCollision(q CollisionQuery) Option {
	return func(c *Controller) { c.blocked = q }
}

func WithClock(clk Clock) Option {
	return func(c *Controller) {
		if clk != nil {
			c.clock = clk
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// Controller turns key, mouse and pointer-lock events into camera movement
// for one scene. It is driven from a single goroutine: events first, then
// one Tick per frame.
type Controller struct {
	cfg   Config
	state SessionState
	input InputState

	yaw   float64
	pitch float64

	lock    PointerLock
	blocked CollisionQuery
	clock   Clock
	last    time.Time

	log *zap.Logger
}

// New returns an Unlocked controller; zero Config fields take their defaults.
func New(cfg Config, opts ...Option) *Controller {
	c := &Controller{
		cfg:   cfg.withDefaults(),
		state: Unlocked,
		clock: systemClock{},
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.last = c.clock.Now()
	return c
}

func (c *Controller) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.cfg
}

func (c *Controller) State() SessionState {
	if c == nil {
		return Unlocked
	}
	return c.state
}

func (c *Controller) Input() InputState {
	if c == nil {
		return InputState{}
	}
	return c.input
}

// Look returns the orientation that the next Tick applies.
func (c *Controller) Look() (yaw, pitch float64) {
	if c == nil {
		return 0, 0
	}
	return c.yaw, c.pitch
}

// Forward is the unit view direction, used as the interaction ray.
func (c *Controller) Forward() mgl64.Vec3 {
	if c == nil {
		return mgl64.Vec3{0, 0, -1}
	}
	return LookDirection(c.yaw, c.pitch)
}

// Sync seeds the look orientation from the host transform.
func (c *Controller) Sync(t Transform) {
	if c == nil {
		return
	}
	c.yaw = t.Yaw
	c.pitch = common.Clamp(t.Pitch, -c.cfg.PitchLimit, c.cfg.PitchLimit)
}

func (c *Controller) OnKeyDown(code string) {
	c.onKey(code, true)
}

func (c *Controller) OnKeyUp(code string) {
	c.onKey(code, false)
}

func (c *Controller) onKey(code string, held bool) {
	if c == nil || c.state.Suspended() {
		return
	}
	a, ok := c.cfg.KeyMap.Lookup(code)
	if !ok {
		return
	}
	c.input.set(a, held)
}

func (c *Controller) OnMouseMove(dx, dy float64) {
	if c == nil || c.state != Locked {
		return
	}
	if !finite(dx) || !finite(dy) {
		return
	}

	applyYaw, applyPitch := true, true
	if c.cfg.LookPolicy == LookDominantAxis {
		ax, ay := math.Abs(dx), math.Abs(dy)
		applyYaw = ax > ay
		applyPitch = ay > ax
	}

	if applyYaw {
		c.yaw -= dx * c.cfg.Sensitivity
	}
	if applyPitch {
		pitch := c.pitch - dy*c.cfg.Sensitivity*c.cfg.PitchScale
		c.pitch = common.Clamp(pitch, -c.cfg.PitchLimit, c.cfg.PitchLimit)
	}
}

// RequestLock asks the host to capture the pointer. The session only
// becomes Locked once the host confirms via OnPointerLockChange.
func (c *Controller) RequestLock() {
	if c == nil || c.state.Suspended() || c.lock == nil {
		return
	}
	c.lock.Lock()
}

func (c *Controller) OnPointerLockChange(locked bool) {
	if c == nil {
		return
	}
	c.input.Clear()
	if c.state.Suspended() {
		return
	}
	if locked {
		c.setState(Locked)
	} else {
		c.setState(Unlocked)
	}
}

func (c *Controller) OnEscape() {
	if c == nil {
		return
	}
	switch c.state {
	case DialogueOpen:
		return
	case MenuOpen:
		c.Resume()
	default:
		c.setState(MenuOpen)
		if c.lock != nil {
			c.lock.Unlock()
		}
	}
}

// Resume closes the menu and requests the pointer again.
func (c *Controller) Resume() {
	if c == nil || c.state != MenuOpen {
		return
	}
	c.setState(Unlocked)
	c.RequestLock()
}

// SetDialogueOpen is the host's signal that a conversation started or ended.
func (c *Controller) SetDialogueOpen(open bool) {
	if c == nil {
		return
	}
	if open {
		if c.state == DialogueOpen {
			return
		}
		c.setState(DialogueOpen)
		if c.lock != nil {
			c.lock.Unlock()
		}
		return
	}
	if c.state != DialogueOpen {
		return
	}
	c.setState(Unlocked)
	c.RequestLock()
}

func (c *Controller) setState(next SessionState) {
	c.input.Clear()
	if c.state == next {
		return
	}
	prev := c.state
	c.state = next
	c.log.Debug("session changed", zap.Stringer("from", prev), zap.Stringer("to", next))
}

// Tick moves t one frame. It leaves t untouched while the menu or a
// dialogue is open.
func (c *Controller) Tick(t *Transform) {
	if c == nil || t == nil {
		return
	}
	dt := c.elapsed()
	if c.state.Suspended() {
		return
	}

	t.Yaw = c.yaw
	t.Pitch = c.pitch

	dir := c.direction()
	if dir.Len() == 0 {
		return
	}

	step := c.cfg.Speed
	if c.cfg.Stepping == StepDeltaTime {
		step *= dt.Seconds()
	}
	if step == 0 {
		return
	}

	candidate := t.Position.Add(dir.Mul(step))
	if c.blocked != nil && c.blocked(candidate) {
		return
	}
	t.Position = candidate
}

func (c *Controller) elapsed() time.Duration {
	now := c.clock.Now()
	var dt time.Duration
	if !c.last.IsZero() {
		dt = now.Sub(c.last)
	}
	c.last = now
	if dt < 0 {
		return 0
	}
	if dt > c.cfg.MaxDelta {
		return c.cfg.MaxDelta
	}
	return dt
}

func (c *Controller) direction() mgl64.Vec3 {
	forward := HorizontalForward(c.yaw)
	right := HorizontalRight(c.yaw)

	var dir mgl64.Vec3
	if c.input.Forward {
		dir = dir.Add(forward)
	}
	if c.input.Backward {
		dir = dir.Sub(forward)
	}
	if c.input.Right {
		dir = dir.Add(right)
	}
	if c.input.Left {
		dir = dir.Sub(right)
	}
	if c.cfg.NormalizeDiagonal && dir.Len() > 0 {
		dir = dir.Normalize()
	}
	return dir
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
