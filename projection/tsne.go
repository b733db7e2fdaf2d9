// Package projection provides dimensionality reduction for high-dimensional embedding vectors.
//
// # t-SNE (t-Distributed Stochastic Neighbor Embedding) Overview
//
// t-SNE is a nonlinear dimensionality reduction technique that excels at preserving
// local neighborhood structure. It works by:
//
//  1. Converting pairwise distances in the original space into a joint probability
//     distribution P, using per-point Gaussian kernels whose bandwidths are tuned
//     so that every point has the same effective neighborhood size (perplexity)
//  2. Defining a second joint distribution Q over the low-dimensional embedding,
//     using a heavy-tailed Student-t kernel (1 degree of freedom)
//  3. Moving the embedded points by gradient descent on the KL divergence KL(P||Q)
//
// The Student-t kernel in the embedding space is the key trick: moderate distances
// in high dimensions cannot all be preserved in 2D (the "crowding problem"), and the
// heavy tail lets moderately distant pairs keep meaningful affinity without being
// crushed together.
//
// Reference: van der Maaten, L., & Hinton, G. (2008). Visualizing Data using t-SNE.
// Journal of Machine Learning Research 9, 2579-2605.
package projection

import (
	"math"
	"math/rand"
)

// Numeric constants of the t-SNE pipeline. These are algorithm-level choices,
// not user-facing hyperparameters, so they are fixed here rather than exposed
// through TSNEConfig.
const (
	// Bandwidth binary search bounds and budget.
	bandwidthSearchMin  = 1e-20
	bandwidthSearchMax  = 1e4
	bandwidthSearchIter = 1000
	perplexityTolerance = 1e-10

	// Additive smoothing applied to conditional kernel rows so that a row whose
	// Gaussian affinities all underflow to zero still normalizes cleanly.
	conditionalSmoothing = 1e-8

	// Floor applied to Q entries when evaluating the KL cost, so the log never
	// sees a zero. The gradient always uses the raw, unfloored Q.
	affinityFloor = 1e-12

	// Standard deviation of the Gaussian used to initialize the embedding.
	initialEmbeddingStdDev = 1e-4

	// Momentum schedule: earlyMomentum until momentumSwitchIteration, then
	// lateMomentum once the coarse structure has settled.
	momentumSwitchIteration = 250
	earlyMomentum           = 0.5
	lateMomentum            = 0.8

	// How often the Progress callback fires, in iterations.
	progressInterval = 10
)

// TSNEConfig holds hyperparameters for t-SNE dimensionality reduction.
type TSNEConfig struct {
	OutputDims   int     // Dimension of the embedding space (default: 2)
	Iterations   int     // Number of gradient descent steps (default: 500)
	LearningRate float64 // Gradient descent step size (default: 100)
	Perplexity   float64 // Target effective neighborhood size (default: 30)
	RandomSeed   int64   // Seed for the embedding initialization

	// Progress, if non-nil, is called every few iterations with the current
	// iteration number and the KL divergence between P and Q at that point.
	// It allows a UI to report on a long-running projection; leaving it nil
	// skips the cost computation entirely.
	Progress func(iteration int, cost float64)
}

// DefaultTSNEConfig returns sensible default hyperparameters.
func DefaultTSNEConfig() TSNEConfig {
	return TSNEConfig{
		OutputDims:   2,
		Iterations:   500,
		LearningRate: 100,
		Perplexity:   30,
		RandomSeed:   42,
	}
}

// TSNEResult is the outcome of a t-SNE run.
//
// t-SNE degrades gracefully rather than failing: a bandwidth search that does
// not reach tolerance keeps its best guess, and a perplexity the dataset cannot
// support is clamped. Both conditions are reported here so callers can decide
// whether an approximate result is acceptable.
type TSNEResult struct {
	// Coordinates is the final embedding, one row of OutputDims values per
	// input point, in input order.
	Coordinates [][]float64

	// NonConverged lists the indices of points whose bandwidth search exhausted
	// its iteration budget without reaching the perplexity tolerance.
	NonConverged []int

	// PerplexityClamped is true when the requested perplexity was at least the
	// number of points and was lowered to N-1.
	PerplexityClamped bool
}

// Embed reduces the input points using default hyperparameters.
func Embed(points [][]float64) TSNEResult {
	return EmbedWithConfig(points, DefaultTSNEConfig())
}

// EmbedWithConfig runs the full t-SNE pipeline:
//
//	distances -> joint probabilities P -> iterate { Q, gradient, momentum step }
//
// P is computed once from the input; Q is recomputed from the embedding on every
// iteration. The optimizer threads the current and previous embedding through
// each step explicitly, since the momentum term only ever needs the two most
// recent states.
func EmbedWithConfig(points [][]float64, config TSNEConfig) TSNEResult {
	numberOfPoints := len(points)
	if numberOfPoints == 0 {
		return TSNEResult{}
	}
	if numberOfPoints == 1 {
		// No pairwise structure to preserve; place the lone point at the origin.
		return TSNEResult{Coordinates: [][]float64{make([]float64, config.OutputDims)}}
	}

	// A dataset with N points can only support a perplexity below N, because a
	// point has at most N-1 neighbors to spread probability mass over.
	targetPerplexity := config.Perplexity
	clamped := false
	if maxPerplexity := float64(numberOfPoints - 1); targetPerplexity > maxPerplexity {
		targetPerplexity = maxPerplexity
		if targetPerplexity < 1 {
			targetPerplexity = 1
		}
		clamped = true
	}

	// High-dimensional affinities: computed once, constant during optimization.
	inputDistances := squaredDistanceMatrix(points)
	jointP, nonConverged := jointProbabilities(inputDistances, targetPerplexity)

	// Initialize the embedding from a tight Gaussian ball. The previous
	// embedding starts as a copy so the first momentum term is zero.
	rng := rand.New(rand.NewSource(config.RandomSeed))
	current := gaussianMatrix(rng, numberOfPoints, config.OutputDims, initialEmbeddingStdDev)
	previous := copyMatrix(current)

	for iteration := 0; iteration < config.Iterations; iteration++ {
		kernel, jointQ := lowDimAffinities(current)
		gradient := klGradient(jointP, jointQ, kernel, current)

		next := make([][]float64, numberOfPoints)
		momentumCoefficient := momentum(iteration)
		for i := 0; i < numberOfPoints; i++ {
			next[i] = make([]float64, config.OutputDims)
			for d := 0; d < config.OutputDims; d++ {
				step := -config.LearningRate * gradient[i][d]
				step += momentumCoefficient * (current[i][d] - previous[i][d])
				next[i][d] = current[i][d] + step
			}
		}
		previous, current = current, next

		if config.Progress != nil && (iteration%progressInterval == 0 || iteration == config.Iterations-1) {
			config.Progress(iteration, klDivergence(jointP, jointQ))
		}
	}

	return TSNEResult{
		Coordinates:       current,
		NonConverged:      nonConverged,
		PerplexityClamped: clamped,
	}
}

// EmbedVectors32 runs t-SNE on float32 vectors, converting to float64 first.
// Unlike the Point2D wrappers it exposes the full result, including the
// bandwidth-search warnings and the perplexity clamp, for callers that want to
// surface diagnostics.
func EmbedVectors32(vectors [][]float32, config TSNEConfig) TSNEResult {
	return EmbedWithConfig(convertToFloat64(vectors), config)
}

// ProjectTo2DTSNE reduces high-dimensional embedding vectors to 2D points using t-SNE.
// This provides an alternative to PCA that preserves local neighborhood structure
// at the cost of global distances.
func ProjectTo2DTSNE(embeddingVectors [][]float32, textLabels []string) []Point2D {
	return ProjectTo2DTSNEWithConfig(embeddingVectors, textLabels, DefaultTSNEConfig())
}

// ProjectTo2DTSNEWithConfig allows customizing t-SNE hyperparameters.
func ProjectTo2DTSNEWithConfig(embeddingVectors [][]float32, textLabels []string, config TSNEConfig) []Point2D {
	if len(embeddingVectors) == 0 {
		return nil
	}

	numberOfVectors := len(embeddingVectors)
	inputDimension := len(embeddingVectors[0])

	// t-SNE needs at least two points to have any pairwise structure to
	// preserve; below that, fall back to a direct coordinate projection.
	if numberOfVectors < 2 || inputDimension < 2 {
		return createFallbackProjection(embeddingVectors, textLabels)
	}
	if !allVectorsHaveSameDimension(embeddingVectors, inputDimension) {
		return createFallbackProjection(embeddingVectors, textLabels)
	}

	config.OutputDims = 2
	result := EmbedVectors32(embeddingVectors, config)

	points := make([]Point2D, numberOfVectors)
	for vectorIndex, coordinates := range result.Coordinates {
		points[vectorIndex] = Point2D{
			X:    coordinates[0],
			Y:    coordinates[1],
			Text: getTextLabelAtIndex(textLabels, vectorIndex),
		}
	}
	return points
}

// convertToFloat64 converts float32 vectors to float64 for numerical precision.
func convertToFloat64(vectors [][]float32) [][]float64 {
	result := make([][]float64, len(vectors))
	for i, v := range vectors {
		result[i] = make([]float64, len(v))
		for j, val := range v {
			result[i][j] = float64(val)
		}
	}
	return result
}

// squaredDistanceMatrix computes the matrix of squared Euclidean distances
// between all pairs of rows. The result is symmetric with a zero diagonal.
func squaredDistanceMatrix(points [][]float64) [][]float64 {
	numberOfPoints := len(points)
	distances := make([][]float64, numberOfPoints)
	for i := range distances {
		distances[i] = make([]float64, numberOfPoints)
	}

	for i := 0; i < numberOfPoints; i++ {
		for j := i + 1; j < numberOfPoints; j++ {
			var sum float64
			for d := range points[i] {
				diff := points[i][d] - points[j][d]
				sum += diff * diff
			}
			distances[i][j] = sum
			distances[j][i] = sum
		}
	}
	return distances
}

// conditionalDistribution builds the conditional probability row p(j|i) for a
// single point from its distance row and a Gaussian bandwidth sigma:
//
//	p(j|i) = exp(-d_ij / (2*sigma^2)) / sum over k != i
//
// The self-probability is forced to zero. A small additive constant keeps the
// row normalizable even when every Gaussian affinity underflows to zero (for
// example, a far outlier probed with a tiny candidate bandwidth).
func conditionalDistribution(distanceRow []float64, selfIndex int, sigma float64) []float64 {
	row := make([]float64, len(distanceRow))
	denominator := 2 * sigma * sigma

	var sum float64
	for j, distance := range distanceRow {
		if j == selfIndex {
			continue
		}
		row[j] = math.Exp(-distance/denominator) + conditionalSmoothing
		sum += row[j]
	}
	for j := range row {
		row[j] /= sum
	}
	return row
}

// perplexityOf computes the perplexity of a probability distribution: two
// raised to its Shannon entropy in bits. A distribution spread uniformly over
// k outcomes has perplexity exactly k, which is why perplexity reads as an
// effective neighborhood size.
func perplexityOf(distribution []float64) float64 {
	var entropyBits float64
	for _, p := range distribution {
		if p > 0 {
			entropyBits -= p * math.Log2(p)
		}
	}
	return math.Pow(2, entropyBits)
}

// searchBandwidth binary-searches for the Gaussian bandwidth sigma that makes
// the conditional distribution of one point match the target perplexity.
//
// Perplexity is non-decreasing in sigma: a wider kernel spreads probability
// over more neighbors. So when the candidate's perplexity overshoots the
// target, the upper bound moves down, otherwise the lower bound moves up.
//
// The search never fails. If the iteration budget runs out before reaching
// tolerance it returns its best guess with converged=false, and the caller
// carries on with an approximate bandwidth.
func searchBandwidth(distanceRow []float64, selfIndex int, targetPerplexity float64) (sigma float64, converged bool) {
	lower := bandwidthSearchMin
	upper := bandwidthSearchMax
	sigma = (lower + upper) / 2

	for iteration := 0; iteration < bandwidthSearchIter; iteration++ {
		sigma = (lower + upper) / 2
		perplexity := perplexityOf(conditionalDistribution(distanceRow, selfIndex, sigma))

		if math.Abs(perplexity-targetPerplexity) <= perplexityTolerance {
			return sigma, true
		}
		if perplexity > targetPerplexity {
			upper = sigma
		} else {
			lower = sigma
		}
	}
	return sigma, false
}

// jointProbabilities converts a squared-distance matrix into the symmetric,
// globally normalized joint probability matrix P.
//
// Each point first gets its own conditional distribution p(j|i) under a
// bandwidth tuned to the target perplexity; the conditionals are then
// symmetrized and normalized in one step:
//
//	P_ij = (p(j|i) + p(i|j)) / (2N)
//
// Dividing by 2N makes P sum to one over all entries, and guarantees every
// point contributes at least 1/(2N) total mass, so outliers are not washed out.
// The returned index list identifies points whose bandwidth search did not
// converge.
func jointProbabilities(distances [][]float64, targetPerplexity float64) ([][]float64, []int) {
	numberOfPoints := len(distances)

	// Each point's bandwidth search is independent of every other point's.
	conditionals := make([][]float64, numberOfPoints)
	var nonConverged []int
	for i := 0; i < numberOfPoints; i++ {
		sigma, converged := searchBandwidth(distances[i], i, targetPerplexity)
		if !converged {
			nonConverged = append(nonConverged, i)
		}
		conditionals[i] = conditionalDistribution(distances[i], i, sigma)
	}

	joint := make([][]float64, numberOfPoints)
	normalization := 2 * float64(numberOfPoints)
	for i := range joint {
		joint[i] = make([]float64, numberOfPoints)
		for j := range joint[i] {
			joint[i][j] = (conditionals[i][j] + conditionals[j][i]) / normalization
		}
	}
	return joint, nonConverged
}

// lowDimAffinities computes the Student-t joint probability matrix Q for the
// current embedding, along with the raw kernel values the gradient needs.
//
// The kernel is (1 + d_ij)^-1 with a zero diagonal, and Q is the kernel divided
// by its global sum. Unlike P, Q is symmetric by construction and is not built
// from per-point conditionals.
func lowDimAffinities(embedding [][]float64) (kernel, jointQ [][]float64) {
	distances := squaredDistanceMatrix(embedding)
	numberOfPoints := len(embedding)

	kernel = make([][]float64, numberOfPoints)
	var kernelSum float64
	for i := range kernel {
		kernel[i] = make([]float64, numberOfPoints)
		for j := range kernel[i] {
			if i == j {
				continue
			}
			kernel[i][j] = 1 / (1 + distances[i][j])
			kernelSum += kernel[i][j]
		}
	}

	jointQ = make([][]float64, numberOfPoints)
	for i := range jointQ {
		jointQ[i] = make([]float64, numberOfPoints)
		for j := range jointQ[i] {
			jointQ[i][j] = kernel[i][j] / kernelSum
		}
	}
	return kernel, jointQ
}

// klGradient computes the gradient of the KL divergence KL(P||Q) with respect
// to the embedding coordinates:
//
//	dC/dy_i = 4 * sum_j (P_ij - Q_ij) * (y_i - y_j) * (1 + ||y_i - y_j||^2)^-1
//
// The kernel argument must be the raw Student-t kernel from lowDimAffinities
// for the same embedding.
func klGradient(jointP, jointQ, kernel, embedding [][]float64) [][]float64 {
	numberOfPoints := len(embedding)
	outputDims := len(embedding[0])

	gradient := make([][]float64, numberOfPoints)
	for i := 0; i < numberOfPoints; i++ {
		gradient[i] = make([]float64, outputDims)
		for j := 0; j < numberOfPoints; j++ {
			if i == j {
				continue
			}
			weight := 4 * (jointP[i][j] - jointQ[i][j]) * kernel[i][j]
			for d := 0; d < outputDims; d++ {
				gradient[i][d] += weight * (embedding[i][d] - embedding[j][d])
			}
		}
	}
	return gradient
}

// klDivergence evaluates the t-SNE cost sum_ij P_ij * log(P_ij / Q_ij).
// Q entries are floored to a small constant so the logarithm stays finite;
// the floor exists only for this readout and never feeds the gradient.
func klDivergence(jointP, jointQ [][]float64) float64 {
	var cost float64
	for i := range jointP {
		for j := range jointP[i] {
			p := jointP[i][j]
			if p <= 0 {
				continue
			}
			q := math.Max(jointQ[i][j], affinityFloor)
			cost += p * math.Log(p/q)
		}
	}
	return cost
}

// momentum returns the momentum coefficient for a given iteration. The step
// schedule starts conservative and accelerates once the embedding has settled
// into coarse structure.
func momentum(iteration int) float64 {
	if iteration < momentumSwitchIteration {
		return earlyMomentum
	}
	return lateMomentum
}

// gaussianMatrix fills an n-by-d matrix with zero-mean Gaussian samples.
func gaussianMatrix(rng *rand.Rand, n, d int, stdDev float64) [][]float64 {
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, d)
		for j := range matrix[i] {
			matrix[i][j] = rng.NormFloat64() * stdDev
		}
	}
	return matrix
}

func copyMatrix(source [][]float64) [][]float64 {
	duplicate := make([][]float64, len(source))
	for i, row := range source {
		duplicate[i] = make([]float64, len(row))
		copy(duplicate[i], row)
	}
	return duplicate
}
