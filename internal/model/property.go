// Package model defines the canonical record types shared by the
// normalization, validation, calculation, and aggregation stages.
package model

// ContainerType identifies the physical waste container class for a service line.
type ContainerType string

const (
	ContainerFrontLoad ContainerType = "front_load"
	ContainerCompactor ContainerType = "compactor"
	ContainerCart      ContainerType = "cart"
	ContainerRollOff   ContainerType = "roll_off"
	ContainerBulk      ContainerType = "bulk"
)

// Valid reports whether the container type is one of the closed enum values.
func (c ContainerType) Valid() bool {
	switch c {
	case ContainerFrontLoad, ContainerCompactor, ContainerCart, ContainerRollOff, ContainerBulk:
		return true
	}
	return false
}

// Property is one apartment community in the portfolio. Created once from the
// portfolio configuration table and immutable for the lifetime of a run.
type Property struct {
	PropertyID   string `json:"property_id" yaml:"property_id"`
	Name         string `json:"name" yaml:"name"`
	UnitCount    int    `json:"unit_count" yaml:"unit_count"`
	Address      string `json:"address,omitempty" yaml:"address,omitempty"`
	Jurisdiction string `json:"jurisdiction,omitempty" yaml:"jurisdiction,omitempty"`

	Services []ServiceConfiguration `json:"services,omitempty" yaml:"services,omitempty"`
}

// HasUnitCount reports whether per-door metrics can be computed at all.
// A missing unit count short-circuits CPD/YPD to unavailable, never a guess.
func (p Property) HasUnitCount() bool {
	return p.UnitCount > 0
}

// ServiceConfiguration describes one hauler service line at a property.
// A property may carry several (trash + recycling, mixed container sizes).
type ServiceConfiguration struct {
	ContainerType  ContainerType `json:"container_type" yaml:"container_type"`
	ContainerSize  float64       `json:"container_size" yaml:"container_size"` // cubic yards
	ContainerCount int           `json:"container_count" yaml:"container_count"`
	PickupsPerWeek float64       `json:"pickups_per_week" yaml:"pickups_per_week"`
	OnCall         bool          `json:"on_call,omitempty" yaml:"on_call,omitempty"`
	Vendor         string        `json:"vendor,omitempty" yaml:"vendor,omitempty"`
}

// VolumeScheduled reports whether the fixed-schedule volume formula has all of
// its required inputs: size, count, and weekly frequency all present and positive.
func (s ServiceConfiguration) VolumeScheduled() bool {
	return !s.OnCall && s.ContainerSize > 0 && s.ContainerCount > 0 && s.PickupsPerWeek > 0
}
