package dataset

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/epsilon-cli/internal/errdefs"
)

// Kind is the inferred storage type of a column.
type Kind int

const (
	Numeric Kind = iota
	Categorical
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	default:
		return "unknown"
	}
}

// Column is one named series aligned to the dataset index.
// Numeric columns mark missing cells with NaN, categorical ones with "".
type Column struct {
	Name string
	Kind Kind
	Num  []float64
	Cat  []string
}

// NewNumeric wraps values as a numeric column. The slice is not copied.
func NewNumeric(name string, values []float64) *Column {
	return &Column{Name: name, Kind: Numeric, Num: values}
}

// NewCategorical wraps values as a categorical column. The slice is not copied.
func NewCategorical(name string, values []string) *Column {
	return &Column{Name: name, Kind: Categorical, Cat: values}
}

// Len returns the number of cells.
func (c *Column) Len() int {
	if c.Kind == Numeric {
		return len(c.Num)
	}
	return len(c.Cat)
}

// IsMissing reports whether row i holds no value.
func (c *Column) IsMissing(i int) bool {
	if c.Kind == Numeric {
		return math.IsNaN(c.Num[i])
	}
	return c.Cat[i] == ""
}

// Clone returns a deep copy.
func (c *Column) Clone() *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	if c.Num != nil {
		out.Num = append([]float64(nil), c.Num...)
	}
	if c.Cat != nil {
		out.Cat = append([]string(nil), c.Cat...)
	}
	return out
}

// Filled returns a copy of a numeric column with missing cells replaced by v.
func (c *Column) Filled(v float64) []float64 {
	out := make([]float64, len(c.Num))
	for i, x := range c.Num {
		if math.IsNaN(x) {
			x = v
		}
		out[i] = x
	}
	return out
}

// HasVariation reports whether the present values differ: a non-zero
// standard deviation for numeric columns, more than one distinct value for
// categorical ones. A nil mask considers every row; fewer than two present
// values never count as variation.
func (c *Column) HasVariation(mask []bool) bool {
	keep := func(i int) bool { return mask == nil || (i < len(mask) && mask[i]) }
	if c.Kind == Numeric {
		vals := make([]float64, 0, len(c.Num))
		for i, x := range c.Num {
			if keep(i) && !math.IsNaN(x) {
				vals = append(vals, x)
			}
		}
		if len(vals) < 2 {
			return false
		}
		sd := stat.StdDev(vals, nil)
		return sd != 0 && !math.IsNaN(sd)
	}
	seen := make(map[string]struct{})
	for i, s := range c.Cat {
		if keep(i) && s != "" {
			seen[s] = struct{}{}
			if len(seen) > 1 {
				return true
			}
		}
	}
	return false
}

// Dataset is an ordered set of uniquely named columns sharing a strictly
// increasing time index. Columns may be appended after construction; the
// index never changes.
type Dataset struct {
	Name  string
	index []time.Time
	cols  []*Column
	pos   map[string]int
}

// New creates an empty dataset over index.
func New(index []time.Time) (*Dataset, error) {
	for i := 1; i < len(index); i++ {
		if !index[i].After(index[i-1]) {
			return nil, errdefs.InvalidState("index",
				"timestamps must be strictly increasing: row %d (%s) follows %s",
				i+1, index[i].Format("2006-01-02"), index[i-1].Format("2006-01-02"))
		}
	}
	return &Dataset{index: index, pos: make(map[string]int)}, nil
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.index) }

// Index returns the time index. Callers must not modify it.
func (d *Dataset) Index() []time.Time { return d.index }

// NumColumns returns the number of columns.
func (d *Dataset) NumColumns() int { return len(d.cols) }

// Names returns the column names in insertion order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.cols))
	for i, c := range d.cols {
		out[i] = c.Name
	}
	return out
}

// Has reports whether name is a column.
func (d *Dataset) Has(name string) bool {
	_, ok := d.pos[name]
	return ok
}

// Column looks up a column by name.
func (d *Dataset) Column(name string) (*Column, error) {
	i, ok := d.pos[name]
	if !ok {
		return nil, errdefs.UnknownColumn(name)
	}
	return d.cols[i], nil
}

// Numeric returns the values of a numeric column.
func (d *Dataset) Numeric(name string) ([]float64, error) {
	c, err := d.Column(name)
	if err != nil {
		return nil, err
	}
	if c.Kind != Numeric {
		return nil, errdefs.InvalidState(name, "column is categorical, not numeric")
	}
	return c.Num, nil
}

// AddColumn appends c, failing on a duplicate name or a length mismatch.
func (d *Dataset) AddColumn(c *Column) error {
	if c.Len() != len(d.index) {
		return errdefs.InvalidState(c.Name, "column has %d rows, dataset has %d", c.Len(), len(d.index))
	}
	if d.Has(c.Name) {
		return errdefs.InvalidState(c.Name, "duplicate column name")
	}
	d.pos[c.Name] = len(d.cols)
	d.cols = append(d.cols, c)
	return nil
}

// Append adds derived columns. A column whose name already exists (or
// repeats within cols) is dropped rather than appended; dropped names are
// returned so the caller can report them. Lengths are validated before
// anything is appended.
func (d *Dataset) Append(cols ...*Column) (added, dropped []string, err error) {
	for _, c := range cols {
		if c.Len() != len(d.index) {
			return nil, nil, errdefs.InvalidState(c.Name, "column has %d rows, dataset has %d", c.Len(), len(d.index))
		}
	}
	for _, c := range cols {
		if d.Has(c.Name) {
			dropped = append(dropped, c.Name)
			continue
		}
		d.pos[c.Name] = len(d.cols)
		d.cols = append(d.cols, c)
		added = append(added, c.Name)
	}
	return added, dropped, nil
}

// Clone returns a deep copy that can be mutated independently.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{
		Name:  d.Name,
		index: append([]time.Time(nil), d.index...),
		cols:  make([]*Column, len(d.cols)),
		pos:   make(map[string]int, len(d.pos)),
	}
	for i, c := range d.cols {
		out.cols[i] = c.Clone()
		out.pos[c.Name] = i
	}
	return out
}
