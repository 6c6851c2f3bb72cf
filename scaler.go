package poolopt

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

//////
// Const, vars, types.
//////

// scaleEpsilon is added to every denominator so that constant columns scale
// to zero instead of dividing by zero.
const scaleEpsilon = 1e-10

// Scaler is the fit/transform contract shared by the input transforms. The
// loop accepts any Scaler for its input standardization; StandardScaler and
// MinMaxScaler are the two provided implementations.
type Scaler interface {
	Fit(data [][]float64) error
	Transform(data [][]float64) ([][]float64, error)
	FitTransform(data [][]float64) ([][]float64, error)
}

// StandardScaler standardizes each column of a row-major matrix to zero mean
// and unit variance using the population (not Bessel-corrected) standard
// deviation.
//
// Contract:
//   - Fit computes per-column mean and population stddev and stores them
//   - Transform returns (data - mean) / (stddev + epsilon), elementwise
//   - FitTransform composes both in one call
//   - Inverse undoes Transform: Inverse(Transform(x)) ≈ x
//
// Fitting mutates only the scaler's own stored statistics. Transform and
// Inverse always copy; caller-owned data is never modified in place.
//
// Usage example:
//
//	scaler := NewStandardScaler()
//	scaled, err := scaler.FitTransform(features)
type StandardScaler struct {
	mean []float64
	std  []float64
}

// MinMaxScaler rescales each column of a row-major matrix to [0, 1] using
// (x - min) / (max - min + epsilon). It is the alternative input transform;
// it satisfies the same Fit/Transform/FitTransform/Inverse contract as
// StandardScaler.
type MinMaxScaler struct {
	min []float64
	max []float64
}

//////
// Methods.
//////

// Fit computes and stores the per-column mean and population standard
// deviation of data. Returns an error for an empty matrix or ragged rows.
func (s *StandardScaler) Fit(data [][]float64) error {
	if err := checkMatrix(data); err != nil {
		return err
	}

	dims := len(data[0])

	s.mean = make([]float64, dims)
	s.std = make([]float64, dims)

	for j := 0; j < dims; j++ {
		col := column(data, j)

		s.mean[j] = stat.Mean(col, nil)
		s.std[j] = stat.PopStdDev(col, nil)
	}

	return nil
}

// Transform standardizes data using the fitted statistics. The input is
// copied, never mutated.
func (s *StandardScaler) Transform(data [][]float64) ([][]float64, error) {
	if s.mean == nil {
		return nil, fmt.Errorf("standard scaler: transform before fit")
	}

	if err := checkWidth(data, len(s.mean)); err != nil {
		return nil, err
	}

	out := copyMatrix(data)

	for _, row := range out {
		for j := range row {
			row[j] = (row[j] - s.mean[j]) / (s.std[j] + scaleEpsilon)
		}
	}

	return out, nil
}

// FitTransform fits the scaler on data and returns the standardized copy.
func (s *StandardScaler) FitTransform(data [][]float64) ([][]float64, error) {
	if err := s.Fit(data); err != nil {
		return nil, err
	}

	return s.Transform(data)
}

// Inverse maps standardized data back to the original units.
func (s *StandardScaler) Inverse(data [][]float64) ([][]float64, error) {
	if s.mean == nil {
		return nil, fmt.Errorf("standard scaler: inverse before fit")
	}

	if err := checkWidth(data, len(s.mean)); err != nil {
		return nil, err
	}

	out := copyMatrix(data)

	for _, row := range out {
		for j := range row {
			row[j] = row[j]*(s.std[j]+scaleEpsilon) + s.mean[j]
		}
	}

	return out, nil
}

// FitTransformVec is the single-column convenience used for response
// scaling: it fits on the vector and returns its standardized copy.
func (s *StandardScaler) FitTransformVec(vals []float64) ([]float64, error) {
	scaled, err := s.FitTransform(toColumn(vals))
	if err != nil {
		return nil, err
	}

	return fromColumn(scaled), nil
}

// InverseVec maps a standardized single-column vector back to the original
// response units.
func (s *StandardScaler) InverseVec(vals []float64) ([]float64, error) {
	raw, err := s.Inverse(toColumn(vals))
	if err != nil {
		return nil, err
	}

	return fromColumn(raw), nil
}

// Scale returns the fitted per-column scale, stddev + epsilon. Used by the
// loop to map predictive standard deviations back to response units.
func (s *StandardScaler) Scale() []float64 {
	if s.std == nil {
		return nil
	}

	scale := make([]float64, len(s.std))
	for j, sd := range s.std {
		scale[j] = sd + scaleEpsilon
	}

	return scale
}

// Fit computes and stores the per-column minimum and maximum of data.
func (m *MinMaxScaler) Fit(data [][]float64) error {
	if err := checkMatrix(data); err != nil {
		return err
	}

	dims := len(data[0])

	m.min = make([]float64, dims)
	m.max = make([]float64, dims)

	for j := 0; j < dims; j++ {
		col := column(data, j)

		m.min[j] = floats.Min(col)
		m.max[j] = floats.Max(col)
	}

	return nil
}

// Transform rescales data into [0, 1] using the fitted range. The input is
// copied, never mutated.
func (m *MinMaxScaler) Transform(data [][]float64) ([][]float64, error) {
	if m.min == nil {
		return nil, fmt.Errorf("min-max scaler: transform before fit")
	}

	if err := checkWidth(data, len(m.min)); err != nil {
		return nil, err
	}

	out := copyMatrix(data)

	for _, row := range out {
		for j := range row {
			row[j] = (row[j] - m.min[j]) / (m.max[j] - m.min[j] + scaleEpsilon)
		}
	}

	return out, nil
}

// FitTransform fits the scaler on data and returns the rescaled copy.
func (m *MinMaxScaler) FitTransform(data [][]float64) ([][]float64, error) {
	if err := m.Fit(data); err != nil {
		return nil, err
	}

	return m.Transform(data)
}

// Inverse maps rescaled data back to the original units.
func (m *MinMaxScaler) Inverse(data [][]float64) ([][]float64, error) {
	if m.min == nil {
		return nil, fmt.Errorf("min-max scaler: inverse before fit")
	}

	if err := checkWidth(data, len(m.min)); err != nil {
		return nil, err
	}

	out := copyMatrix(data)

	for _, row := range out {
		for j := range row {
			row[j] = row[j]*(m.max[j]-m.min[j]+scaleEpsilon) + m.min[j]
		}
	}

	return out, nil
}

//////
// Factory.
//////

// NewStandardScaler creates an unfitted StandardScaler.
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{}
}

// NewMinMaxScaler creates an unfitted MinMaxScaler.
func NewMinMaxScaler() *MinMaxScaler {
	return &MinMaxScaler{}
}

//////
// Helper functions.
//////

func checkMatrix(data [][]float64) error {
	if len(data) == 0 || len(data[0]) == 0 {
		return fmt.Errorf("scaler: fit requires a non-empty matrix")
	}

	dims := len(data[0])

	for i, row := range data {
		if len(row) != dims {
			return fmt.Errorf("scaler: row %d has %d columns, want %d", i, len(row), dims)
		}
	}

	return nil
}

func checkWidth(data [][]float64, dims int) error {
	for i, row := range data {
		if len(row) != dims {
			return fmt.Errorf("scaler: row %d has %d columns, fitted for %d", i, len(row), dims)
		}
	}

	return nil
}

func toColumn(vals []float64) [][]float64 {
	col := make([][]float64, len(vals))

	for i, v := range vals {
		col[i] = []float64{v}
	}

	return col
}

func fromColumn(data [][]float64) []float64 {
	vals := make([]float64, len(data))

	for i, row := range data {
		vals[i] = row[0]
	}

	return vals
}
