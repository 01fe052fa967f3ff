// Package diagnostics exports a point-in-time snapshot of a particle
// system to CSV for offline inspection. It is a pure side-channel: the
// solver never reads this output back.
//
// Grounded on pthm-soup/telemetry/output.go's CSV export pattern,
// built on the same github.com/gocarina/gocsv marshaler.
package diagnostics

import (
	"os"

	"github.com/gocarina/gocsv"

	"diesel.com/particlesph/particle"
)

// ParticleRow is one CSV row: a single particle's observable state at
// export time.
type ParticleRow struct {
	Index    int     `csv:"index"`
	GroupID  int     `csv:"group_id"`
	Flags    uint32  `csv:"flags"`
	Weight   float64 `csv:"weight"`
	PosX     float64 `csv:"pos_x"`
	PosY     float64 `csv:"pos_y"`
	VelX     float64 `csv:"vel_x"`
	VelY     float64 `csv:"vel_y"`
}

// Snapshot builds the CSV rows for every live particle in sys.
func Snapshot(sys *particle.System) []ParticleRow {
	pos := sys.Positions()
	vel := sys.Velocities()
	flags := sys.Flags()
	weights := sys.Weights()
	groups := sys.Groups()

	rows := make([]ParticleRow, sys.Count())
	for i := range rows {
		groupID := -1
		if g := groups[i]; g != nil {
			groupID = g.ID()
		}
		rows[i] = ParticleRow{
			Index:   i,
			GroupID: groupID,
			Flags:   uint32(flags[i]),
			Weight:  weights[i],
			PosX:    pos[i].X,
			PosY:    pos[i].Y,
			VelX:    vel[i].X,
			VelY:    vel[i].Y,
		}
	}
	return rows
}

// WriteCSV writes a Snapshot of sys to path.
func WriteCSV(path string, sys *particle.System) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rows := Snapshot(sys)
	return gocsv.MarshalFile(&rows, f)
}
