package scenario

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/danmuck/mfrlink/internal/protocol/command"
	"github.com/danmuck/mfrlink/internal/sim"
	"gopkg.in/yaml.v3"
)

var ErrInvalidScenario = errors.New("scenario: invalid")

// Scenario is the simulator's initial world.
type Scenario struct {
	Name            string
	Tick            time.Duration
	MissileSpeed    float64
	InterceptRadius float64
	MaxTicks        uint32

	Radars    []Radar
	LCs       []LC
	Launchers []Launcher
	Targets   []Target
}

type Radar struct {
	ID           uint32
	Mode         command.RadarMode
	AzimuthDeg   float32
	ElevationDeg float32
}

type LC struct {
	ID    uint32
	State command.LCState
}

type Launcher struct {
	ID         uint32
	LC         uint32
	X, Y       float64
	AzimuthDeg float32
	Missiles   uint8
	Mode       command.LSMode
}

type Target struct {
	ID     uint32
	Kind   sim.TargetKind
	Pos    sim.Vec3
	Vel    sim.Vel3
	Threat command.ThreatLevel
}

type fileScenario struct {
	Name            string  `yaml:"name"`
	Tick            string  `yaml:"tick"`
	MissileSpeed    float64 `yaml:"missileSpeed"`
	InterceptRadius float64 `yaml:"interceptRadius"`
	MaxTicks        uint32  `yaml:"maxTicks"`

	Radars []struct {
		ID        uint32  `yaml:"id"`
		Mode      string  `yaml:"mode"`
		Azimuth   float32 `yaml:"azimuth"`
		Elevation float32 `yaml:"elevation"`
	} `yaml:"radars"`
	LCs []struct {
		ID    uint32 `yaml:"id"`
		State string `yaml:"state"`
	} `yaml:"lcs"`
	Launchers []struct {
		ID       uint32     `yaml:"id"`
		LC       uint32     `yaml:"lc"`
		Position [2]float64 `yaml:"position"`
		Azimuth  float32    `yaml:"azimuth"`
		Missiles uint8      `yaml:"missiles"`
		Mode     string     `yaml:"mode"`
	} `yaml:"launchers"`
	Targets []struct {
		ID       uint32     `yaml:"id"`
		Kind     string     `yaml:"kind"`
		Position [3]float64 `yaml:"position"`
		Velocity [3]float32 `yaml:"velocity"`
		Threat   string     `yaml:"threat"`
	} `yaml:"targets"`
}

// Default returns the built-in scenario used when no file is configured.
func Default() Scenario {
	return Scenario{
		Name:            "default",
		Tick:            100 * time.Millisecond,
		MissileSpeed:    900,
		InterceptRadius: 50,
		Radars:          []Radar{{ID: 1, Mode: command.RadarSearch}},
		LCs:             []LC{{ID: 1, State: command.LCReady}},
		Launchers: []Launcher{
			{ID: 11, LC: 1, X: 0, Y: 0, Missiles: 4, Mode: command.LSReady},
			{ID: 12, LC: 1, X: 500, Y: 0, Missiles: 4, Mode: command.LSReady},
		},
		Targets: []Target{
			{ID: 1001, Kind: sim.TargetAircraft, Pos: sim.Vec3{20000, 5000, 8000}, Vel: sim.Vel3{-250, 0, 0}, Threat: command.ThreatMedium},
			{ID: 1002, Kind: sim.TargetCruiseMissile, Pos: sim.Vec3{30000, -4000, 300}, Vel: sim.Vel3{-280, 30, 0}, Threat: command.ThreatHigh},
		},
	}
}

// LoadFile reads a YAML scenario from path.
func LoadFile(path string) (Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("scenario load failed (%s): %w", path, err)
	}
	defer f.Close()
	sc, err := Load(f)
	if err != nil {
		return Scenario{}, fmt.Errorf("scenario %s: %w", path, err)
	}
	return sc, nil
}

// Load decodes a YAML scenario. Unknown keys are rejected. Unset tick,
// missileSpeed and interceptRadius fall back to Default's values.
func Load(r io.Reader) (Scenario, error) {
	var raw fileScenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return Scenario{}, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	return convert(raw)
}

func convert(raw fileScenario) (Scenario, error) {
	def := Default()
	sc := Scenario{
		Name:            strings.TrimSpace(raw.Name),
		Tick:            def.Tick,
		MissileSpeed:    def.MissileSpeed,
		InterceptRadius: def.InterceptRadius,
		MaxTicks:        raw.MaxTicks,
	}
	if sc.Name == "" {
		sc.Name = "unnamed"
	}
	if s := strings.TrimSpace(raw.Tick); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return Scenario{}, fmt.Errorf("%w: tick: %v", ErrInvalidScenario, err)
		}
		sc.Tick = d
	}
	if raw.MissileSpeed != 0 {
		sc.MissileSpeed = raw.MissileSpeed
	}
	if raw.InterceptRadius != 0 {
		sc.InterceptRadius = raw.InterceptRadius
	}

	for _, r := range raw.Radars {
		mode, err := parseOr(r.Mode, command.RadarSearch, command.ParseRadarMode)
		if err != nil {
			return Scenario{}, fmt.Errorf("%w: radar %d: %v", ErrInvalidScenario, r.ID, err)
		}
		sc.Radars = append(sc.Radars, Radar{ID: r.ID, Mode: mode, AzimuthDeg: r.Azimuth, ElevationDeg: r.Elevation})
	}
	for _, l := range raw.LCs {
		state, err := parseOr(l.State, command.LCReady, parseLCState)
		if err != nil {
			return Scenario{}, fmt.Errorf("%w: lc %d: %v", ErrInvalidScenario, l.ID, err)
		}
		sc.LCs = append(sc.LCs, LC{ID: l.ID, State: state})
	}
	for _, l := range raw.Launchers {
		mode, err := parseOr(l.Mode, command.LSReady, command.ParseLSMode)
		if err != nil {
			return Scenario{}, fmt.Errorf("%w: launcher %d: %v", ErrInvalidScenario, l.ID, err)
		}
		sc.Launchers = append(sc.Launchers, Launcher{
			ID: l.ID, LC: l.LC, X: l.Position[0], Y: l.Position[1],
			AzimuthDeg: l.Azimuth, Missiles: l.Missiles, Mode: mode,
		})
	}
	for _, tg := range raw.Targets {
		kind, err := parseOr(tg.Kind, sim.TargetUnknown, sim.ParseTargetKind)
		if err != nil {
			return Scenario{}, fmt.Errorf("%w: target %d: %v", ErrInvalidScenario, tg.ID, err)
		}
		threat, err := parseOr(tg.Threat, command.ThreatLow, parseThreat)
		if err != nil {
			return Scenario{}, fmt.Errorf("%w: target %d: %v", ErrInvalidScenario, tg.ID, err)
		}
		sc.Targets = append(sc.Targets, Target{
			ID: tg.ID, Kind: kind, Pos: sim.Vec3(tg.Position), Vel: sim.Vel3(tg.Velocity), Threat: threat,
		})
	}

	if err := Validate(sc); err != nil {
		return Scenario{}, err
	}
	return sc, nil
}

// Validate checks ids are unique per entity kind and launchers reference a
// known launcher controller.
func Validate(sc Scenario) error {
	if sc.Tick <= 0 {
		return fmt.Errorf("%w: tick must be positive", ErrInvalidScenario)
	}
	if sc.MissileSpeed <= 0 || sc.InterceptRadius <= 0 {
		return fmt.Errorf("%w: missileSpeed and interceptRadius must be positive", ErrInvalidScenario)
	}
	if err := unique("radar", sc.Radars, func(r Radar) uint32 { return r.ID }); err != nil {
		return err
	}
	if err := unique("lc", sc.LCs, func(l LC) uint32 { return l.ID }); err != nil {
		return err
	}
	if err := unique("launcher", sc.Launchers, func(l Launcher) uint32 { return l.ID }); err != nil {
		return err
	}
	if err := unique("target", sc.Targets, func(tg Target) uint32 { return tg.ID }); err != nil {
		return err
	}
	lcs := make(map[uint32]bool, len(sc.LCs))
	for _, l := range sc.LCs {
		lcs[l.ID] = true
	}
	for _, l := range sc.Launchers {
		if !lcs[l.LC] {
			return fmt.Errorf("%w: launcher %d references unknown lc %d", ErrInvalidScenario, l.ID, l.LC)
		}
	}
	return nil
}

func unique[T any](kind string, items []T, id func(T) uint32) error {
	seen := make(map[uint32]bool, len(items))
	for _, it := range items {
		v := id(it)
		if seen[v] {
			return fmt.Errorf("%w: duplicate %s id %d", ErrInvalidScenario, kind, v)
		}
		seen[v] = true
	}
	return nil
}

func parseOr[T any](raw string, def T, parse func(string) (T, error)) (T, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return def, nil
	}
	return parse(raw)
}

func parseLCState(s string) (command.LCState, error) {
	for v := command.LCIdle; v <= command.LCFault; v++ {
		if v.String() == s {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown lc state %q", s)
}

func parseThreat(s string) (command.ThreatLevel, error) {
	for v := command.ThreatNone; v <= command.ThreatHigh; v++ {
		if v.String() == s {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown threat level %q", s)
}
