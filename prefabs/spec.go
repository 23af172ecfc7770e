package prefabs

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/locationgame/collision"
	"github.com/milk9111/locationgame/controller"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownScene = errors.New("prefabs: unknown scene")
	ErrInvalidSpec  = errors.New("prefabs: invalid spec")
)

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// SceneSpec describes one walkable scene.
type SceneSpec struct {
	Name       string         `yaml:"name"`
	Title      string         `yaml:"title"`
	Controller ControllerSpec `yaml:"controller"`
	Spawn      SpawnSpec      `yaml:"spawn"`
	Collision  CollisionSpec  `yaml:"collision"`
	Props      []BoxSpec      `yaml:"props"`
	Sections   []SectionSpec  `yaml:"sections"`
	Shelves    []ShelfSpec    `yaml:"shelves"`
	Pickups    []PickupSpec   `yaml:"pickups"`
	NPCs       []NPCSpec      `yaml:"npcs"`
	AutoPickup bool           `yaml:"auto_pickup"`
	Shopping   []string       `yaml:"shopping"`
}

type ControllerSpec struct {
	Speed             float64           `yaml:"speed"`
	Sensitivity       float64           `yaml:"sensitivity"`
	PitchScale        float64           `yaml:"pitch_scale"`
	PitchLimitDeg     float64           `yaml:"pitch_limit_deg"`
	LookPolicy        string            `yaml:"look_policy"`
	Stepping          string            `yaml:"stepping"`
	MaxDeltaMS        int               `yaml:"max_delta_ms"`
	NormalizeDiagonal *bool             `yaml:"normalize_diagonal"`
	KeyMap            map[string]string `yaml:"key_map"`
}

type Vec3Spec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

func (v Vec3Spec) Vec3() mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

type SpawnSpec struct {
	Position Vec3Spec `yaml:"position"`
	YawDeg   float64  `yaml:"yaw_deg"`
	PitchDeg float64  `yaml:"pitch_deg"`
}

type CollisionSpec struct {
	Enabled bool       `yaml:"enabled"`
	Radius  *float64   `yaml:"radius"`
	Bounds  BoundsSpec `yaml:"bounds"`
	Boxes   []BoxSpec  `yaml:"boxes"`
}

type BoundsSpec struct {
	MinX *float64 `yaml:"min_x"`
	MaxX *float64 `yaml:"max_x"`
	MinZ *float64 `yaml:"min_z"`
	MaxZ *float64 `yaml:"max_z"`
}

type BoxSpec struct {
	Name  string    `yaml:"name"`
	MinX  float64   `yaml:"min_x"`
	MaxX  float64   `yaml:"max_x"`
	MinZ  float64   `yaml:"min_z"`
	MaxZ  float64   `yaml:"max_z"`
	Color YAMLColor `yaml:"color"`
}

func (b BoxSpec) Box() collision.Box {
	return collision.Box{Name: b.Name, MinX: b.MinX, MaxX: b.MaxX, MinZ: b.MinZ, MaxZ: b.MaxZ}
}

// SectionSpec is a product family stocked on shelves.
type SectionSpec struct {
	Name          string    `yaml:"name"`
	Item          string    `yaml:"item"`
	Color         YAMLColor `yaml:"color"`
	ProductHeight float64   `yaml:"product_height"`
}

// ShelfSpec is a shelf unit centred at X,Z holding Levels rows of
// PerLevel products of one section.
type ShelfSpec struct {
	Section  string  `yaml:"section"`
	X        float64 `yaml:"x"`
	Z        float64 `yaml:"z"`
	Levels   int     `yaml:"levels"`
	PerLevel int     `yaml:"per_level"`
	Spacing  float64 `yaml:"spacing"`
	Base     float64 `yaml:"base"`
	LevelGap float64 `yaml:"level_gap"`
}

type PickupSpec struct {
	Name     string    `yaml:"name"`
	Center   Vec3Spec  `yaml:"center"`
	Size     Vec3Spec  `yaml:"size"`
	Distance float64   `yaml:"distance"`
	Color    YAMLColor `yaml:"color"`
}

type NPCSpec struct {
	Name     string    `yaml:"name"`
	Center   Vec3Spec  `yaml:"center"`
	Size     Vec3Spec  `yaml:"size"`
	Distance float64   `yaml:"distance"`
	Greeting string    `yaml:"greeting"`
	Script   string    `yaml:"script"`
	Enabled  *bool     `yaml:"enabled"`
	Color    YAMLColor `yaml:"color"`
}

func (n NPCSpec) IsEnabled() bool {
	return n.Enabled == nil || *n.Enabled
}

const (
	productWidth    = 0.3
	defaultLevels   = 4
	defaultPerLevel = 5
	defaultSpacing  = 0.4
	defaultBase     = 0.5
	defaultLevelGap = 0.8
	productLift     = 0.2
)

// LoadScene loads and validates <name>.yaml.
func LoadScene(name string) (SceneSpec, error) {
	name = strings.TrimSuffix(strings.TrimSpace(name), ".yaml")
	if !HasScene(name) {
		return SceneSpec{}, fmt.Errorf("%w: %q", ErrUnknownScene, name)
	}
	spec, err := LoadSpec[SceneSpec](name + ".yaml")
	if err != nil {
		return SceneSpec{}, err
	}
	if spec.Name == "" {
		spec.Name = name
	}
	if err := spec.Validate(); err != nil {
		return SceneSpec{}, fmt.Errorf("prefabs: %s: %w", name, err)
	}
	return spec, nil
}

func invalid(field, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidSpec, field, fmt.Sprintf(format, args...))
}

func (s SceneSpec) Validate() error {
	c := s.Controller
	switch {
	case c.Speed < 0:
		return invalid("controller.speed", "must be positive, got %v", c.Speed)
	case c.Sensitivity < 0:
		return invalid("controller.sensitivity", "must be positive, got %v", c.Sensitivity)
	case c.PitchScale < 0:
		return invalid("controller.pitch_scale", "must be positive, got %v", c.PitchScale)
	case c.PitchLimitDeg < 0 || c.PitchLimitDeg > 90:
		return invalid("controller.pitch_limit_deg", "must be within [0, 90], got %v", c.PitchLimitDeg)
	case c.MaxDeltaMS < 0:
		return invalid("controller.max_delta_ms", "must not be negative, got %d", c.MaxDeltaMS)
	}
	switch controller.LookPolicy(c.LookPolicy) {
	case "", controller.LookDominantAxis, controller.LookBothAxes:
	default:
		return invalid("controller.look_policy", "unknown policy %q", c.LookPolicy)
	}
	switch controller.Stepping(c.Stepping) {
	case "", controller.StepDeltaTime, controller.StepFixed:
	default:
		return invalid("controller.stepping", "unknown stepping %q", c.Stepping)
	}
	for code, action := range c.KeyMap {
		if _, ok := controller.ParseAction(action); !ok && !isUnbind(action) {
			return invalid("controller.key_map", "%s: unknown action %q", code, action)
		}
	}

	if r := s.Collision.Radius; r != nil && *r < 0 {
		return invalid("collision.radius", "must not be negative, got %v", *r)
	}
	for i, b := range append(append([]BoxSpec(nil), s.Collision.Boxes...), s.Props...) {
		if b.MinX > b.MaxX || b.MinZ > b.MaxZ {
			return invalid("box", "%d (%s) is inverted", i, b.Name)
		}
	}

	sections := make(map[string]struct{}, len(s.Sections))
	for _, sec := range s.Sections {
		if sec.Name == "" {
			return invalid("sections", "section without a name")
		}
		sections[sec.Name] = struct{}{}
	}
	for i, sh := range s.Shelves {
		if _, ok := sections[sh.Section]; !ok {
			return invalid("shelves", "%d: unknown section %q", i, sh.Section)
		}
	}
	for i, p := range s.Pickups {
		if p.Name == "" {
			return invalid("pickups", "%d has no name", i)
		}
	}
	for i, n := range s.NPCs {
		if n.Name == "" {
			return invalid("npcs", "%d has no name", i)
		}
	}
	return nil
}

// ControllerConfig converts the controller block, leaving zero fields to the
// controller's defaults.
func (s SceneSpec) ControllerConfig() controller.Config {
	c := s.Controller
	cfg := controller.DefaultConfig()
	if c.Speed > 0 {
		cfg.Speed = c.Speed
	}
	if c.Sensitivity > 0 {
		cfg.Sensitivity = c.Sensitivity
	}
	if c.PitchScale > 0 {
		cfg.PitchScale = c.PitchScale
	}
	if c.PitchLimitDeg > 0 {
		cfg.PitchLimit = mgl64.DegToRad(c.PitchLimitDeg)
	}
	if c.LookPolicy != "" {
		cfg.LookPolicy = controller.LookPolicy(c.LookPolicy)
	}
	if c.Stepping != "" {
		cfg.Stepping = controller.Stepping(c.Stepping)
	}
	if c.MaxDeltaMS > 0 {
		cfg.MaxDelta = time.Duration(c.MaxDeltaMS) * time.Millisecond
	}
	if c.NormalizeDiagonal != nil {
		cfg.NormalizeDiagonal = *c.NormalizeDiagonal
	}
	for code, name := range c.KeyMap {
		if action, ok := controller.ParseAction(name); ok || isUnbind(name) {
			cfg.KeyMap.Bind(code, action)
		}
	}
	return cfg
}

func (s SceneSpec) SpawnTransform() controller.Transform {
	return controller.Transform{
		Position: s.Spawn.Position.Vec3(),
		Yaw:      mgl64.DegToRad(s.Spawn.YawDeg),
		Pitch:    mgl64.DegToRad(s.Spawn.PitchDeg),
	}
}

// CollisionWorld builds the obstacle index, or nil when the scene walks
// freely.
func (s SceneSpec) CollisionWorld() *collision.World {
	if !s.Collision.Enabled {
		return nil
	}
	radius := collision.DefaultRadius
	if s.Collision.Radius != nil {
		radius = *s.Collision.Radius
	}
	b := s.Collision.Bounds
	w := collision.NewWorld(radius, collision.Bounds{MinX: b.MinX, MaxX: b.MaxX, MinZ: b.MinZ, MaxZ: b.MaxZ})
	for _, box := range s.Collision.Boxes {
		w.Add(box.Box())
	}
	return w
}

// Products expands every shelf into individual pickups, bottom row first,
// left to right.
func (s SceneSpec) Products() []PickupSpec {
	sections := make(map[string]SectionSpec, len(s.Sections))
	for _, sec := range s.Sections {
		sections[sec.Name] = sec
	}

	var out []PickupSpec
	for _, sh := range s.Shelves {
		sec, ok := sections[sh.Section]
		if !ok {
			continue
		}
		levels := orInt(sh.Levels, defaultLevels)
		perLevel := orInt(sh.PerLevel, defaultPerLevel)
		spacing := orFloat(sh.Spacing, defaultSpacing)
		base := orFloat(sh.Base, defaultBase)
		gap := orFloat(sh.LevelGap, defaultLevelGap)
		height := orFloat(sec.ProductHeight, 0.3)
		item := sec.Item
		if item == "" {
			item = sec.Name
		}

		first := -spacing * float64(perLevel-1) / 2
		for lvl := 0; lvl < levels; lvl++ {
			y := base + float64(lvl)*gap + productLift
			for i := 0; i < perLevel; i++ {
				out = append(out, PickupSpec{
					Name:   item,
					Center: Vec3Spec{X: sh.X + first + float64(i)*spacing, Y: y, Z: sh.Z},
					Size:   Vec3Spec{X: productWidth, Y: height, Z: productWidth},
					Color:  sec.Color,
				})
			}
		}
	}
	return out
}

// isUnbind reports the "none" action, which removes a default binding.
func isUnbind(action string) bool {
	return strings.EqualFold(strings.TrimSpace(action), "none")
}

func orInt(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func orFloat(v, def float64) float64 {
	if v > 0 && !math.IsInf(v, 0) {
		return v
	}
	return def
}

// YAMLColor reads "#rrggbb" or "#rrggbbaa".
type YAMLColor struct {
	color.RGBA
}

func (c *YAMLColor) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a string")
	}

	s := strings.TrimPrefix(value.Value, "#")

	if len(s) != 6 && len(s) != 8 {
		return fmt.Errorf("invalid color format: %s", value.Value)
	}

	parse := func(start int) (uint8, error) {
		v, err := strconv.ParseUint(s[start:start+2], 16, 8)
		return uint8(v), err
	}

	r, err := parse(0)
	if err != nil {
		return err
	}
	g, err := parse(2)
	if err != nil {
		return err
	}
	b, err := parse(4)
	if err != nil {
		return err
	}

	a := uint8(255)
	if len(s) == 8 {
		a, err = parse(6)
		if err != nil {
			return err
		}
	}

	c.RGBA = color.RGBA{R: r, G: g, B: b, A: a}
	return nil
}

// Or returns c, or def when the color was never set.
func (c YAMLColor) Or(def color.RGBA) color.RGBA {
	if c.A == 0 {
		return def
	}
	return c.RGBA
}
