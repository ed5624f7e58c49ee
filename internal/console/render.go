package console

import (
	"fmt"
	"io"
	"strconv"

	"github.com/danmuck/mfrlink/internal/protocol/command"
	"github.com/pterm/pterm"
)

// Render prints resp as one or more tables.
func Render(w io.Writer, resp command.Response) error {
	switch r := resp.(type) {
	case *command.StatusResponse:
		return renderStatus(w, r)
	case *command.RadarModeChangeAck:
		return table(w, "Radar mode change", pterm.TableData{
			{"radar", "mode", "result"},
			{u32(r.RadarID), r.Mode.String(), r.Result.String()},
		})
	case *command.LSModeChangeAck:
		return table(w, "Launcher mode change", pterm.TableData{
			{"ls", "mode", "result"},
			{u32(r.LSID), r.Mode.String(), r.Result.String()},
		})
	case *command.MissileLaunchAck:
		return table(w, "Missile launch", pterm.TableData{
			{"ls", "missile", "target", "result"},
			{u32(r.LSID), u32(r.MissileID), u32(r.TargetID), r.Result.String()},
		})
	case *command.LSMoveAck:
		return table(w, "Launcher move", pterm.TableData{
			{"ls", "x", "y", "result"},
			{u32(r.LSID), f64(r.X), f64(r.Y), r.Result.String()},
		})
	default:
		return fmt.Errorf("console: no renderer for %s", resp.CommandType())
	}
}

func renderStatus(w io.Writer, s *command.StatusResponse) error {
	radars := pterm.TableData{{"radar", "mode", "azimuth", "elevation", "operational"}}
	for _, r := range s.Radars {
		radars = append(radars, []string{u32(r.RadarID), r.Mode.String(), f32(r.AzimuthDeg), f32(r.ElevationDeg), strconv.FormatBool(r.Operational)})
	}
	lcs := pterm.TableData{{"lc", "state", "launchers"}}
	for _, l := range s.LCs {
		lcs = append(lcs, []string{u32(l.LCID), l.State.String(), strconv.Itoa(int(l.ConnectedLS))})
	}
	lss := pterm.TableData{{"ls", "mode", "x", "y", "azimuth", "missiles"}}
	for _, l := range s.LSs {
		lss = append(lss, []string{u32(l.LSID), l.Mode.String(), f64(l.X), f64(l.Y), f32(l.AzimuthDeg), strconv.Itoa(int(l.MissilesLeft))})
	}
	targets := pterm.TableData{{"target", "x", "y", "z", "speed", "heading", "threat"}}
	for _, t := range s.Targets {
		targets = append(targets, []string{u32(t.TargetID), f64(t.X), f64(t.Y), f64(t.Z), f32(t.Speed), f32(t.HeadingDeg), t.Threat.String()})
	}
	missiles := pterm.TableData{{"missile", "target", "x", "y", "z", "state"}}
	for _, m := range s.Missiles {
		missiles = append(missiles, []string{u32(m.MissileID), u32(m.TargetID), f64(m.X), f64(m.Y), f64(m.Z), m.State.String()})
	}

	for _, sec := range []struct {
		title string
		data  pterm.TableData
	}{
		{"Radars", radars},
		{"Launcher controllers", lcs},
		{"Launcher stations", lss},
		{"Targets", targets},
		{"Missiles", missiles},
	} {
		if err := table(w, sec.title, sec.data); err != nil {
			return err
		}
	}
	return nil
}

func table(w io.Writer, title string, data pterm.TableData) error {
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n%s\n\n", pterm.Bold.Sprint(title), out)
	return err
}

func u32(v uint32) string { return strconv.FormatUint(uint64(v), 10) }

func f32(v float32) string { return strconv.FormatFloat(float64(v), 'f', 1, 32) }

func f64(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) }
