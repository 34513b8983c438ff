package prefabs

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrInvalidBattlefield = errors.New("prefabs: invalid battlefield")

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

// BattlefieldSpec describes a map: its extent, static obstacles, the
// squads placed on it and an optional scenario script.
type BattlefieldSpec struct {
	Name      string         `yaml:"name"`
	Width     float64        `yaml:"width"`
	Height    float64        `yaml:"height"`
	CellSize  float64        `yaml:"cell_size"`
	Physics   PhysicsSpec    `yaml:"physics"`
	Obstacles []ObstacleSpec `yaml:"obstacles"`
	Squads    []SquadSpec    `yaml:"squads"`
	Scenario  string         `yaml:"scenario"`
}

type PhysicsSpec struct {
	Iterations int     `yaml:"iterations"`
	Damping    float64 `yaml:"damping"`
}

// ObstacleSpec is a box (x, y is the top-left corner) or a circle (x, y is
// the centre).
type ObstacleSpec struct {
	Shape  string  `yaml:"shape"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	Radius float64 `yaml:"radius"`
}

type SquadSpec struct {
	Name    string     `yaml:"name"`
	Unit    string     `yaml:"unit"`
	Color   *YAMLColor `yaml:"color"`
	Count   int        `yaml:"count"`
	X       float64    `yaml:"x"`
	Y       float64    `yaml:"y"`
	Spacing float64    `yaml:"spacing"`
	Columns int        `yaml:"columns"`
}

func LoadBattlefieldSpec(filename string) (BattlefieldSpec, error) {
	spec, err := LoadSpec[BattlefieldSpec](filename)
	if err != nil {
		return spec, err
	}
	if err := spec.Validate(); err != nil {
		return spec, fmt.Errorf("prefabs: %s: %w", filename, err)
	}
	return spec, nil
}

func (s BattlefieldSpec) Validate() error {
	if !(s.Width > 0) || !(s.Height > 0) {
		return fmt.Errorf("%w: size %vx%v", ErrInvalidBattlefield, s.Width, s.Height)
	}
	if !(s.CellSize > 0) {
		return fmt.Errorf("%w: cell_size %v", ErrInvalidBattlefield, s.CellSize)
	}
	for i, o := range s.Obstacles {
		switch o.Shape {
		case "", "box":
			if !(o.Width > 0) || !(o.Height > 0) {
				return fmt.Errorf("%w: obstacle %d: box needs width and height", ErrInvalidBattlefield, i)
			}
		case "circle":
			if !(o.Radius > 0) {
				return fmt.Errorf("%w: obstacle %d: circle needs radius", ErrInvalidBattlefield, i)
			}
		default:
			return fmt.Errorf("%w: obstacle %d: unknown shape %q", ErrInvalidBattlefield, i, o.Shape)
		}
	}
	seen := make(map[string]bool, len(s.Squads))
	for _, sq := range s.Squads {
		if sq.Name == "" || sq.Unit == "" {
			return fmt.Errorf("%w: squad needs name and unit", ErrInvalidBattlefield)
		}
		if seen[sq.Name] {
			return fmt.Errorf("%w: duplicate squad %q", ErrInvalidBattlefield, sq.Name)
		}
		seen[sq.Name] = true
	}
	return nil
}

type YAMLColor struct {
	color.Color
}

// RGBA8 returns the colour as color.RGBA, white when unset.
func (c *YAMLColor) RGBA8() color.RGBA {
	if c == nil || c.Color == nil {
		return color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
	return color.RGBAModel.Convert(c.Color).(color.RGBA)
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

	c.Color = color.NRGBA{R: r, G: g, B: b, A: a}
	return nil
}
