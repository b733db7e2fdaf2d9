// Package projection provides dimensionality reduction for high-dimensional embedding vectors.
//
// # Principal Component Analysis (PCA) Overview
//
// PCA is the linear comparison baseline next to t-SNE: it finds the directions
// along which the data varies most and projects onto them. It preserves global
// variance structure but, being linear, cannot unfold nonlinear manifolds the
// way t-SNE can — which is exactly what makes the side-by-side view useful.
//
// # Why Singular Value Decomposition
//
// PCA can be computed from eigenvectors of the covariance matrix, but SVD of
// the centered data matrix is numerically more stable and avoids forming
// X^T * X explicitly. For centered data X = U * Σ * V^T, the columns of V are
// the principal components ordered by captured variance, and X * V[:, :k] is
// the k-dimensional projection.
package projection

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Point2D represents a single data point projected into 2D space for visualization.
// It preserves the original text label for display in the UI.
type Point2D struct {
	X, Y float64
	Text string
}

// ProjectTo2DPCA reduces high-dimensional embedding vectors to 2D points using PCA.
func ProjectTo2DPCA(embeddingVectors [][]float32, textLabels []string) []Point2D {
	if len(embeddingVectors) == 0 {
		return nil
	}

	inputDimension := len(embeddingVectors[0])
	if inputDimension < 2 || !allVectorsHaveSameDimension(embeddingVectors, inputDimension) {
		return createFallbackProjection(embeddingVectors, textLabels)
	}

	coordinates, ok := PrincipalComponents(convertToFloat64(embeddingVectors), 2)
	if !ok {
		return createFallbackProjection(embeddingVectors, textLabels)
	}

	points := make([]Point2D, len(coordinates))
	for vectorIndex, row := range coordinates {
		points[vectorIndex] = Point2D{
			X:    row[0],
			Y:    row[1],
			Text: getTextLabelAtIndex(textLabels, vectorIndex),
		}
	}
	return points
}

// PrincipalComponents projects the points onto their leading numComponents
// principal components. It returns false when the decomposition cannot
// produce the requested number of components, for example when SVD fails to
// converge or the data has fewer dimensions than requested.
func PrincipalComponents(points [][]float64, numComponents int) ([][]float64, bool) {
	numberOfPoints := len(points)
	if numberOfPoints == 0 || numComponents < 1 {
		return nil, false
	}
	dimension := len(points[0])
	if dimension < numComponents {
		return nil, false
	}

	centered := centeredDataMatrix(points, numberOfPoints, dimension)

	// Thin SVD is enough: only the leading right singular vectors are needed.
	var svd mat.SVD
	if !svd.Factorize(centered, mat.SVDThin) {
		return nil, false
	}

	var rightSingularVectors mat.Dense
	svd.VTo(&rightSingularVectors)
	rows, cols := rightSingularVectors.Dims()
	if rows < dimension || cols < numComponents {
		return nil, false
	}

	components := rightSingularVectors.Slice(0, dimension, 0, numComponents)

	var projected mat.Dense
	projected.Mul(centered, components)

	coordinates := make([][]float64, numberOfPoints)
	for i := range coordinates {
		coordinates[i] = make([]float64, numComponents)
		for c := 0; c < numComponents; c++ {
			coordinates[i][c] = projected.At(i, c)
		}
	}
	return coordinates, true
}

// centeredDataMatrix builds a gonum matrix from the points with every column
// shifted to zero mean. Centering matters: without it the first principal
// component points toward the data's centroid instead of along the direction
// of maximum spread.
func centeredDataMatrix(points [][]float64, numberOfPoints, dimension int) *mat.Dense {
	data := mat.NewDense(numberOfPoints, dimension, nil)
	for rowIndex, point := range points {
		data.SetRow(rowIndex, point)
	}

	column := make([]float64, numberOfPoints)
	for columnIndex := 0; columnIndex < dimension; columnIndex++ {
		mat.Col(column, columnIndex, data)
		columnMean := stat.Mean(column, nil)
		for rowIndex := 0; rowIndex < numberOfPoints; rowIndex++ {
			data.Set(rowIndex, columnIndex, column[rowIndex]-columnMean)
		}
	}
	return data
}

// allVectorsHaveSameDimension checks that every vector has the expected dimensionality.
// Inconsistent dimensions would make the pairwise distance and matrix operations
// silently wrong, so mixed input falls back to the naive projection instead.
func allVectorsHaveSameDimension(vectors [][]float32, expectedDimension int) bool {
	for _, vector := range vectors {
		if len(vector) != expectedDimension {
			return false
		}
	}
	return true
}

// createFallbackProjection provides a naive projection when a real one cannot run:
// the first two raw coordinates of each vector become x and y. It guarantees the
// UI always has something to draw.
func createFallbackProjection(embeddingVectors [][]float32, textLabels []string) []Point2D {
	points := make([]Point2D, len(embeddingVectors))
	for vectorIndex, vector := range embeddingVectors {
		points[vectorIndex] = Point2D{
			X:    getVectorComponentOrZero(vector, 0),
			Y:    getVectorComponentOrZero(vector, 1),
			Text: getTextLabelAtIndex(textLabels, vectorIndex),
		}
	}
	return points
}

// getTextLabelAtIndex safely retrieves a text label, returning empty string if index is out of bounds.
func getTextLabelAtIndex(textLabels []string, index int) string {
	if index < len(textLabels) {
		return textLabels[index]
	}
	return ""
}

// getVectorComponentOrZero safely retrieves a component from a vector,
// returning 0.0 if the index is out of bounds.
func getVectorComponentOrZero(vector []float32, componentIndex int) float64 {
	if componentIndex < len(vector) {
		return float64(vector[componentIndex])
	}
	return 0.0
}
