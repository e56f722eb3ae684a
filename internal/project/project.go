package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/epsilon-cli/internal/dataset"
	"github.com/KaramelBytes/epsilon-cli/internal/errdefs"
	"github.com/KaramelBytes/epsilon-cli/internal/stats"
	"github.com/KaramelBytes/epsilon-cli/internal/utils"
)

const (
	projectFileName = "project.json"
)

// Layout is the directory skeleton created for every project.
var Layout = []string{"config", "data", "processing", "models", "output"}

// Project represents an epsilon modelling project persisted on disk.
type Project struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Datasets    map[string]*Dataset `json:"datasets"`
	Config      *ProjectConfig      `json:"config"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`

	// Not serialized: on-disk location of the project.json
	rootDir string `json:"-"`
}

// ProjectConfig overrides global settings for one project. Empty fields
// inherit the global configuration.
type ProjectConfig struct {
	Estimator     string `json:"estimator"`
	Dependent     string `json:"dependent"`
	VariationMode string `json:"variation_mode"`
}

// NewProject constructs an in-memory project. Call Save() to persist.
func NewProject(name, description, rootDir string) *Project {
	return &Project{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Datasets:    make(map[string]*Dataset),
		Config:      &ProjectConfig{},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		rootDir:     rootDir,
	}
}

// Create scaffolds a new project in dir. dir must be missing or empty.
func Create(name, description, dir string) (*Project, error) {
	if _, err := os.Stat(filepath.Join(dir, projectFileName)); err == nil {
		return nil, errdefs.InvalidState("init", "project already exists at %s", dir)
	}
	empty, err := utils.IsEmptyDir(dir)
	if err != nil {
		return nil, fmt.Errorf("inspect project directory: %w", err)
	}
	if !empty {
		return nil, errdefs.InvalidState("init", "%s is not empty", dir)
	}
	p := NewProject(name, description, dir)
	if err := p.Save(); err != nil {
		return nil, err
	}
	return p, nil
}

// LoadProject loads a project.json from the provided directory.
func LoadProject(dir string) (*Project, error) {
	path := filepath.Join(dir, projectFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("project not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read project: %w", err)
	}
	var p Project
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parse project: %w", err)
	}
	if p.Config == nil {
		p.Config = &ProjectConfig{}
	}
	p.rootDir = dir
	return &p, nil
}

// FindProject loads the project enclosing start.
func FindProject(start string) (*Project, error) {
	dir, err := utils.FindUp(start, projectFileName)
	if err != nil {
		return nil, err
	}
	return LoadProject(dir)
}

// RootDir returns the on-disk project directory path.
func (p *Project) RootDir() string { return p.rootDir }

// Dir returns a directory of the project layout, e.g. Dir("output").
func (p *Project) Dir(name string) string { return filepath.Join(p.rootDir, name) }

// Save creates the directory layout and writes project.json atomically.
func (p *Project) Save() error {
	if p.rootDir == "" {
		return errors.New("project root directory not set")
	}
	if err := utils.EnsureDirs(p.rootDir, Layout...); err != nil {
		return fmt.Errorf("ensure dirs: %w", err)
	}
	p.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(p)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(p.rootDir, projectFileName), data)
}

// AddDataset loads path to validate it and records its schema. Relative
// paths are resolved against the working directory.
func (p *Project) AddDataset(path, description string, opt dataset.Options) (*Dataset, []string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve path: %w", err)
	}
	res, err := dataset.Load(abs, opt)
	if err != nil {
		return nil, nil, fmt.Errorf("load dataset: %w", err)
	}
	ds := res.Data
	d := &Dataset{
		ID:          uuid.NewString(),
		Path:        abs,
		Name:        filepath.Base(abs),
		Description: description,
		Sheet:       opt.SheetName,
		Rows:        ds.Len(),
		Columns:     ds.Names(),
		AddedAt:     time.Now(),
	}
	if idx := ds.Index(); len(idx) > 0 {
		d.First, d.Last = idx[0], idx[len(idx)-1]
	}
	if p.Datasets == nil {
		p.Datasets = make(map[string]*Dataset)
	}
	p.Datasets[d.ID] = d
	p.UpdatedAt = time.Now()
	return d, res.Warnings, nil
}

// Dataset finds a registered dataset by id, file name or path. An empty
// ref is accepted when the project holds exactly one dataset.
func (p *Project) Dataset(ref string) (*Dataset, error) {
	if ref == "" {
		if len(p.Datasets) == 1 {
			for _, d := range p.Datasets {
				return d, nil
			}
		}
		return nil, errdefs.InvalidState("dataset", "project has %d datasets; name one", len(p.Datasets))
	}
	if d, ok := p.Datasets[ref]; ok {
		return d, nil
	}
	for _, d := range p.SortedDatasets() {
		if d.Name == ref || d.Path == ref {
			return d, nil
		}
	}
	return nil, errdefs.InvalidState("dataset", "no dataset %q in project %s", ref, p.Name)
}

// SortedDatasets returns datasets ordered by time added, then name.
func (p *Project) SortedDatasets() []*Dataset {
	out := make([]*Dataset, 0, len(p.Datasets))
	for _, d := range p.Datasets {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].AddedAt.Before(out[j].AddedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// SetEstimator records the project's default estimator after checking
// that the engine knows it.
func (p *Project) SetEstimator(name string) error {
	est, err := stats.New(name, stats.Options{})
	if err != nil {
		return err
	}
	p.Config.Estimator = est.Name()
	p.UpdatedAt = time.Now()
	return nil
}
