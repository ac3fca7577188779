package voxel

import "fmt"

// BinaryValues names the two byte values a mask may contain.
type BinaryValues struct {
	On  byte
	Off byte
}

// DefaultBinaryValues is the 255/0 encoding used by image-backed masks.
var DefaultBinaryValues = BinaryValues{On: 255, Off: 0}

// Mask is a two-valued byte grid with optional physical voxel spacing.
type Mask struct {
	Grid       *Grid[uint8]
	Values     BinaryValues
	Resolution *Resolution
}

// NewMask allocates an all-off mask.
func NewMask(e Extent, values BinaryValues) *Mask {
	m := &Mask{Grid: NewGrid[uint8](e), Values: values}
	if values.Off != 0 {
		for i := range m.Grid.Data {
			m.Grid.Data[i] = values.Off
		}
	}
	return m
}

// Extent returns the size of the underlying grid.
func (m *Mask) Extent() Extent {
	return m.Grid.Extent
}

// IsOn reports whether voxel i holds the on value.
func (m *Mask) IsOn(i int) bool {
	return m.Grid.Data[i] == m.Values.On
}

// SetOn marks (x, y, z) as foreground.
func (m *Mask) SetOn(x, y, z int) {
	m.Grid.Set(x, y, z, m.Values.On)
}

// Validate checks that the mask has a usable extent and uses exactly its two
// canonical values.
func (m *Mask) Validate() error {
	if m == nil || m.Grid == nil {
		return fmt.Errorf("%w: mask is nil", ErrConfiguration)
	}
	if !m.Grid.Extent.Valid() {
		return fmt.Errorf("%w: mask extent %s must be at least 1 on every axis", ErrConfiguration, m.Grid.Extent)
	}
	if len(m.Grid.Data) != m.Grid.Extent.Volume() {
		return fmt.Errorf("%w: mask holds %d voxels, extent %s needs %d",
			ErrConfiguration, len(m.Grid.Data), m.Grid.Extent, m.Grid.Extent.Volume())
	}
	if m.Values.On == m.Values.Off {
		return fmt.Errorf("%w: on and off values are both %d", ErrConfiguration, m.Values.On)
	}
	for i, v := range m.Grid.Data {
		if v != m.Values.On && v != m.Values.Off {
			return fmt.Errorf("%w: voxel %d has value %d, expected %d (on) or %d (off)",
				ErrConfiguration, i, v, m.Values.On, m.Values.Off)
		}
	}
	return nil
}
