package projection

import (
	"math"
	"testing"
)

func TestPrincipalComponents_RecoverLine(t *testing.T) {
	// Points along a single direction in 3D: the first component should carry
	// all the variance and the second essentially none.
	points := [][]float64{
		{0.0, 0.0, 0.0},
		{1.0, 2.0, 3.0},
		{2.0, 4.0, 6.0},
		{3.0, 6.0, 9.0},
	}

	coordinates, ok := PrincipalComponents(points, 2)
	if !ok {
		t.Fatal("expected PCA to succeed")
	}
	if len(coordinates) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(coordinates))
	}

	var firstVariance, secondVariance float64
	for _, row := range coordinates {
		firstVariance += row[0] * row[0]
		secondVariance += row[1] * row[1]
	}

	if firstVariance <= 1e-9 {
		t.Errorf("first component should capture the line's variance, got %g", firstVariance)
	}
	if secondVariance > 1e-9 {
		t.Errorf("second component should be near zero for collinear data, got %g", secondVariance)
	}
}

func TestPrincipalComponents_TooFewDimensions(t *testing.T) {
	points := [][]float64{{1.0}, {2.0}, {3.0}}
	if _, ok := PrincipalComponents(points, 2); ok {
		t.Error("expected failure when requesting more components than dimensions")
	}
}

func TestProjectTo2DPCA_LabelsAndFiniteness(t *testing.T) {
	vectors := [][]float32{
		{0.0, 0.0, 1.0},
		{0.1, 0.2, 0.9},
		{5.0, 5.1, 5.2},
		{5.1, 5.0, 5.3},
	}
	labels := []string{"a", "b", "c", "d"}

	result := ProjectTo2DPCA(vectors, labels)
	if len(result) != 4 {
		t.Fatalf("expected 4 points, got %d", len(result))
	}

	for i, p := range result {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			t.Errorf("point %d has non-finite coordinates (%f, %f)", i, p.X, p.Y)
		}
		if p.Text != labels[i] {
			t.Errorf("point %d has wrong label: expected %s, got %s", i, labels[i], p.Text)
		}
	}
}

func TestProjectTo2DPCA_InconsistentDimensionsFallsBack(t *testing.T) {
	vectors := [][]float32{
		{1.0, 2.0, 3.0},
		{4.0, 5.0},
	}

	result := ProjectTo2DPCA(vectors, []string{"a", "b"})
	if len(result) != 2 {
		t.Fatalf("expected 2 points from fallback, got %d", len(result))
	}
	if result[0].X != 1.0 || result[0].Y != 2.0 {
		t.Errorf("fallback should use raw coordinates, got (%f, %f)", result[0].X, result[0].Y)
	}
}

func TestProjectTo2DPCA_EmptyInput(t *testing.T) {
	if result := ProjectTo2DPCA(nil, nil); result != nil {
		t.Errorf("expected nil for empty input, got %v", result)
	}
}
