package transform

import (
	"github.com/rs/zerolog"

	"github.com/KaramelBytes/epsilon-cli/internal/dataset"
)

// Options controls Apply.
type Options struct {
	// InPlace appends to the given dataset; otherwise a copy is extended.
	InPlace bool
	Logger  *zerolog.Logger
}

// Outcome lists what Apply did with the derived columns.
type Outcome struct {
	Added   []string
	Dropped []string
}

// Apply derives columns and appends them. A derived name that already
// exists is dropped and logged; the existing column is left untouched.
// On error nothing is appended.
func Apply(ds *dataset.Dataset, d Deriver, opt Options) (*dataset.Dataset, Outcome, error) {
	cols, err := d(ds)
	if err != nil {
		return nil, Outcome{}, err
	}
	target := ds
	if !opt.InPlace {
		target = ds.Clone()
	}
	added, dropped, err := target.Append(cols...)
	if err != nil {
		return nil, Outcome{}, err
	}
	if len(dropped) > 0 && opt.Logger != nil {
		opt.Logger.Warn().Strs("columns", dropped).Msg("derived columns already exist; not added")
	}
	return target, Outcome{Added: added, Dropped: dropped}, nil
}
