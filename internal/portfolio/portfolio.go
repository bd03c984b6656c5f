// Package portfolio loads the property/unit configuration table supplied
// once per run. Every downstream metric depends on it, so a missing or
// unreadable table is the one fatal condition of a batch run.
package portfolio

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/model"
)

// Lookup is the immutable property_id -> configuration index for a run.
type Lookup struct {
	props []model.Property
	byID  map[string]*model.Property
}

// NewLookup indexes the given properties. Duplicate property IDs are an error.
func NewLookup(props []model.Property) (*Lookup, error) {
	l := &Lookup{
		props: props,
		byID:  make(map[string]*model.Property, len(props)),
	}
	for i := range l.props {
		p := &l.props[i]
		if p.PropertyID == "" {
			return nil, eris.Errorf("portfolio: property %q has no property_id", p.Name)
		}
		if _, dup := l.byID[p.PropertyID]; dup {
			return nil, eris.Errorf("portfolio: duplicate property_id %s", p.PropertyID)
		}
		if !p.HasUnitCount() {
			zap.L().Warn("portfolio: property has no unit count, per-door metrics will be unavailable",
				zap.String("property_id", p.PropertyID),
			)
		}
		for _, svc := range p.Services {
			if !svc.ContainerType.Valid() {
				return nil, eris.Errorf("portfolio: property %s has invalid container type %q", p.PropertyID, svc.ContainerType)
			}
		}
		l.byID[p.PropertyID] = p
	}
	return l, nil
}

// ByID returns the property for the given ID, or nil if not configured.
func (l *Lookup) ByID(id string) *model.Property {
	return l.byID[id]
}

// Properties returns all configured properties.
func (l *Lookup) Properties() []model.Property {
	return l.props
}

// Len returns the number of configured properties.
func (l *Lookup) Len() int {
	return len(l.props)
}

// Load reads the portfolio table at path, dispatching on file extension.
// YAML files hold the full property + service structure; XLSX files hold the
// property and service tables as sheets.
func Load(path, sheet string) (*Lookup, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return loadYAML(path)
	case ".xlsx":
		return loadXLSX(path, sheet)
	default:
		return nil, eris.Errorf("portfolio: unsupported file type %q", filepath.Ext(path))
	}
}

// portfolioFile is the YAML document shape.
type portfolioFile struct {
	Properties []model.Property `yaml:"properties"`
}

func loadYAML(path string) (*Lookup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "portfolio: read yaml")
	}

	var doc portfolioFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "portfolio: parse yaml")
	}
	if len(doc.Properties) == 0 {
		return nil, eris.Errorf("portfolio: %s defines no properties", path)
	}

	return NewLookup(doc.Properties)
}
