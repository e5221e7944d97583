// Package preset stores named snapshots of the console's parameters.
package preset

import (
	"errors"
	"math"

	jsoniter "github.com/json-iterator/go"

	"github.com/iburimskiy/matrix-rain/internal/rain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrCorrupt is returned when a store exists but cannot be decoded. The
	// store still loads as empty.
	ErrCorrupt = errors.New("preset: store is corrupt")
	// ErrNotFound is returned for an unknown preset name.
	ErrNotFound = errors.New("preset: not found")
	// ErrEmptyName is returned when saving without a name.
	ErrEmptyName = errors.New("preset: empty name")
)

// Record is one saved console state, keyed as in
// matrix_presets.json: z zoom, h hue, f ghost per layer, p pan x/y,
// v speed per layer, d density per layer.
type Record struct {
	Zoom    float64    `json:"z"`
	Hue     float64    `json:"h"`
	Ghost   [3]float64 `json:"f"`
	Pan     [2]float64 `json:"p"`
	Speed   [3]float64 `json:"v"`
	Density [3]float64 `json:"d"`
}

// Records maps preset names to records.
type Records map[string]Record

// FromParams captures p.
func FromParams(p rain.Params) Record {
	r := Record{Zoom: p.ZoomTarget, Hue: p.Hue, Pan: [2]float64{p.PanX, p.PanY}}
	for i, l := range p.Layers {
		r.Ghost[i] = l.Ghost
		r.Speed[i] = l.Speed
		r.Density[i] = float64(l.Density)
	}
	return r
}

// Params converts the record back. Densities are rounded; the engine clamps
// everything else.
func (r Record) Params() rain.Params {
	p := rain.Params{ZoomTarget: r.Zoom, Hue: r.Hue, PanX: r.Pan[0], PanY: r.Pan[1]}
	for i := range p.Layers {
		d := r.Density[i]
		if math.IsNaN(d) || d < 0 {
			d = 0
		}
		if d > math.MaxInt32 {
			d = math.MaxInt32
		}
		p.Layers[i] = rain.LayerParams{Ghost: r.Ghost[i], Speed: r.Speed[i], Density: int(math.Round(d))}
	}
	return p
}

func (rs Records) clone() Records {
	out := make(Records, len(rs)+1)
	for k, v := range rs {
		out[k] = v
	}
	return out
}

func decode(data []byte) (Records, error) {
	var rs Records
	if err := json.Unmarshal(data, &rs); err != nil {
		return Records{}, err
	}
	if rs == nil {
		rs = Records{}
	}
	return rs, nil
}
