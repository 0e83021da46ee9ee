// Package pysar reads PySAR HDF5 container products. The container layout
// itself is the hdf5 library's responsibility; this package only resolves
// the dataset group, lifts its attribute set into a string mapping and
// reads epoch datasets, windowed or whole.
package pysar

import (
	"fmt"
	"sort"

	"github.com/scigolib/hdf5"

	"github.com/insarlab/sario/internal"
	"github.com/insarlab/sario/sario/api"
	"github.com/insarlab/sario/sario/util"
)

var logger = internal.NewLogger()

// SetLogLevel sets the logging level to the given level, and returns the
// old level.
func SetLogLevel(level internal.LogLevel) internal.LogLevel {
	return logger.SetLogLevel(level)
}

// Dataset groups, in probe preference order.
var preferredGroups = []string{"interferograms", "coherence", "timeseries"}

// Groups storing one dataset per epoch inside per-epoch subgroups.
var multiEpochGroups = map[string]bool{
	"interferograms": true,
	"coherence":      true,
	"wrapped":        true,
}

// ReadAttributes resolves the container's dataset group and returns its
// attribute set as a flat string mapping, plus the group name that acts as
// the FILE_TYPE discriminator.
func ReadAttributes(path string) (*util.AttrMap, string, error) {
	f, err := hdf5.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("container open failed: %w", err)
	}
	defer f.Close()

	group, err := resolveGroup(f)
	if err != nil {
		return nil, "", err
	}
	fileType := group.Name()

	src := group
	if multiEpochGroups[fileType] {
		// Epoch subgroups all share the product attributes; read the
		// first one.
		names, subgroups := childGroups(group)
		if len(names) == 0 {
			return nil, "", fmt.Errorf("%w: %s group has no members",
				api.ErrUnrecognizedGroup, fileType)
		}
		src = subgroups[names[0]]
	}

	m, err := attrMap(src)
	if err != nil {
		return nil, "", err
	}

	if fileType == "timeseries" {
		defaultRefDate(m, childDatasetNames(group))
	}
	return m, fileType, nil
}

// defaultRefDate fills the reference date of a time series from its
// lexicographically smallest epoch when the container records none.
func defaultRefDate(m *util.AttrMap, epochs []string) {
	if _, has := m.Get("ref_date"); has {
		return
	}
	ref := ""
	for _, epoch := range epochs {
		if ref == "" || epoch < ref {
			ref = epoch
		}
	}
	if ref != "" {
		m.Set("ref_date", ref)
	}
}

// ReadDataset reads one dataset from the container, windowed if win is not
// nil. For multi-epoch groups the epoch names the dataset; single-dataset
// groups store their dataset under the group's own name.
func ReadDataset(path string, atr *api.Attributes, epoch string, win *api.Window) (*api.Raster, error) {
	w := api.FullWindow(atr.Width, atr.Length)
	if win != nil {
		if err := win.Validate(atr.Width, atr.Length); err != nil {
			return nil, err
		}
		w = *win
	}

	f, err := hdf5.Open(path)
	if err != nil {
		return nil, fmt.Errorf("container open failed: %w", err)
	}
	defer f.Close()

	group, err := findGroup(f, atr.FileType)
	if err != nil {
		return nil, err
	}

	ds, err := resolveDataset(group, atr.FileType, epoch)
	if err != nil {
		return nil, err
	}

	var raw any
	if win != nil {
		raw, err = ds.ReadSlice(
			[]uint64{uint64(w.Y0), uint64(w.X0)},
			[]uint64{uint64(w.Height()), uint64(w.Width())})
	} else {
		raw, err = ds.Read()
	}
	if err != nil {
		return nil, fmt.Errorf("dataset read failed: %w", err)
	}

	grid, err := toPlane(raw, w.Height(), w.Width())
	if err != nil {
		return nil, err
	}
	return &api.Raster{Grid: grid, Attrs: atr}, nil
}

// resolveGroup picks the container's dataset group.
func resolveGroup(f *hdf5.File) (*hdf5.Group, error) {
	names, groups := childGroups(f.Root())
	name, err := chooseGroupName(names)
	if err != nil {
		logger.Errorf("cannot pick a dataset group among %v", names)
		return nil, err
	}
	return groups[name], nil
}

// chooseGroupName picks a preferred group name if present, else the sole
// candidate.
func chooseGroupName(names []string) (string, error) {
	for _, want := range preferredGroups {
		for _, name := range names {
			if name == want {
				return want, nil
			}
		}
	}
	if len(names) == 1 {
		return names[0], nil
	}
	return "", fmt.Errorf("%w: candidates %v", api.ErrUnrecognizedGroup, names)
}

func findGroup(f *hdf5.File, name string) (*hdf5.Group, error) {
	_, groups := childGroups(f.Root())
	g, has := groups[name]
	if !has {
		return nil, fmt.Errorf("%w: group %q", api.ErrUnrecognizedGroup, name)
	}
	return g, nil
}

// resolveDataset locates the dataset to read within the group.
func resolveDataset(group *hdf5.Group, fileType, epoch string) (*hdf5.Dataset, error) {
	if multiEpochGroups[fileType] {
		names, subgroups := childGroups(group)
		name, err := resolveMemberName(fileType, epoch, names)
		if err != nil {
			logger.Infof("epochs in file: %v", names)
			return nil, err
		}
		if ds := childDataset(subgroups[name], epoch); ds != nil {
			return ds, nil
		}
		return nil, fmt.Errorf("%w: %q has no dataset", api.ErrEpochNotFound, epoch)
	}

	members := childDatasetNames(group)
	name, err := resolveMemberName(fileType, epoch, members)
	if err != nil {
		if fileType == "timeseries" {
			logger.Infof("epochs in file: %v", members)
		}
		return nil, err
	}
	if ds := childDataset(group, name); ds != nil {
		return ds, nil
	}
	return nil, fmt.Errorf("%w: no %q dataset", api.ErrUnrecognizedGroup, name)
}

// resolveMemberName picks the group member holding the requested data: the
// epoch-named member for time-series and multi-epoch groups, else the group's
// own name (single-dataset groups store the data under the group name).
func resolveMemberName(fileType, epoch string, members []string) (string, error) {
	want := fileType
	if fileType == "timeseries" || multiEpochGroups[fileType] {
		want = epoch
	}
	for _, name := range members {
		if name == want {
			return want, nil
		}
	}
	if want == epoch {
		return "", fmt.Errorf("%w: %q", api.ErrEpochNotFound, epoch)
	}
	return "", fmt.Errorf("%w: no %q dataset", api.ErrUnrecognizedGroup, fileType)
}

// childGroups returns the sorted names and the lookup map of a group's
// immediate subgroups.
func childGroups(g *hdf5.Group) ([]string, map[string]*hdf5.Group) {
	groups := map[string]*hdf5.Group{}
	var names []string
	for _, child := range g.Children() {
		if sub, ok := child.(*hdf5.Group); ok {
			groups[sub.Name()] = sub
			names = append(names, sub.Name())
		}
	}
	sort.Strings(names)
	return names, groups
}

func childDataset(g *hdf5.Group, name string) *hdf5.Dataset {
	for _, child := range g.Children() {
		if ds, ok := child.(*hdf5.Dataset); ok && ds.Name() == name {
			return ds
		}
	}
	return nil
}

func childDatasetNames(g *hdf5.Group) []string {
	var names []string
	for _, child := range g.Children() {
		if ds, ok := child.(*hdf5.Dataset); ok {
			names = append(names, ds.Name())
		}
	}
	sort.Strings(names)
	return names
}

// attrMap lifts a group's attribute set into a string mapping, in
// attribute order.
func attrMap(g *hdf5.Group) (*util.AttrMap, error) {
	attrs, err := g.Attributes()
	if err != nil {
		return nil, fmt.Errorf("attribute read failed: %w", err)
	}
	m := util.NewAttrMap()
	for _, attr := range attrs {
		val, err := attr.ReadValue()
		if err != nil {
			return nil, fmt.Errorf("attribute %q read failed: %w", attr.Name, err)
		}
		m.Set(attr.Name, attrString(val))
	}
	return m, nil
}

func attrString(val any) string {
	if s, ok := val.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", val)
}

// toPlane reshapes the library's flat slice into rows of float32.
func toPlane(raw any, height, width int) ([][]float32, error) {
	var flat []float32
	switch v := raw.(type) {
	case []float64:
		flat = make([]float32, len(v))
		for i, f := range v {
			flat[i] = float32(f)
		}
	case []float32:
		flat = v
	default:
		return nil, fmt.Errorf("%w: unexpected dataset value type %T",
			api.ErrUnsupportedFormat, raw)
	}
	if len(flat) < height*width {
		return nil, fmt.Errorf("%w: dataset holds %d values, extent needs %d",
			api.ErrTruncatedFile, len(flat), height*width)
	}
	rows := make([][]float32, height)
	for y := 0; y < height; y++ {
		rows[y] = flat[y*width : (y+1)*width]
	}
	return rows, nil
}
