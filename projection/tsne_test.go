package projection

import (
	"math"
	"math/rand"
	"testing"
)

func TestSquaredDistanceMatrix_Properties(t *testing.T) {
	points := [][]float64{
		{0.0, 0.0},
		{1.0, 2.0},
		{-3.0, 4.0},
		{2.5, -1.5},
	}

	distances := squaredDistanceMatrix(points)

	for i := range distances {
		if distances[i][i] != 0 {
			t.Errorf("diagonal entry (%d,%d) should be zero, got %f", i, i, distances[i][i])
		}
		for j := range distances[i] {
			if distances[i][j] != distances[j][i] {
				t.Errorf("matrix not symmetric at (%d,%d): %f vs %f", i, j, distances[i][j], distances[j][i])
			}
			if distances[i][j] < 0 {
				t.Errorf("entry (%d,%d) should be non-negative, got %f", i, j, distances[i][j])
			}
		}
	}
}

func TestSquaredDistanceMatrix_KnownValues(t *testing.T) {
	points := [][]float64{
		{0.0, 0.0},
		{3.0, 4.0},
	}

	distances := squaredDistanceMatrix(points)
	if math.Abs(distances[0][1]-25.0) > 1e-12 {
		t.Errorf("expected squared distance 25, got %f", distances[0][1])
	}
}

func TestSquaredDistanceMatrix_Idempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	points := make([][]float64, 10)
	for i := range points {
		points[i] = []float64{rng.Float64(), rng.Float64(), rng.Float64()}
	}

	first := squaredDistanceMatrix(points)
	second := squaredDistanceMatrix(points)

	for i := range first {
		for j := range first[i] {
			if first[i][j] != second[i][j] {
				t.Fatalf("distance matrix differs between runs at (%d,%d)", i, j)
			}
		}
	}
}

func TestConditionalDistribution_RowStochastic(t *testing.T) {
	distanceRow := []float64{0.0, 1.0, 4.0, 9.0, 16.0}

	for _, sigma := range []float64{0.1, 1.0, 10.0} {
		row := conditionalDistribution(distanceRow, 0, sigma)

		if row[0] != 0 {
			t.Errorf("sigma=%f: self-probability should be zero, got %g", sigma, row[0])
		}

		var sum float64
		for j, p := range row {
			if p < 0 {
				t.Errorf("sigma=%f: entry %d should be non-negative, got %g", sigma, j, p)
			}
			sum += p
		}
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("sigma=%f: row should sum to 1, got %.12f", sigma, sum)
		}
	}
}

func TestSearchBandwidth_Convergence(t *testing.T) {
	// A synthetic distance row with 60 neighbors at steadily increasing
	// squared distances, enough to support any perplexity target in [5, 50].
	distanceRow := make([]float64, 61)
	for j := 1; j < len(distanceRow); j++ {
		distanceRow[j] = float64(j) * 0.5
	}

	for _, target := range []float64{5, 10, 25, 50} {
		sigma, converged := searchBandwidth(distanceRow, 0, target)

		if sigma <= 0 {
			t.Errorf("target=%f: bandwidth should be strictly positive, got %g", target, sigma)
		}
		if !converged {
			t.Errorf("target=%f: search did not converge", target)
			continue
		}

		achieved := perplexityOf(conditionalDistribution(distanceRow, 0, sigma))
		if math.Abs(achieved-target) > perplexityTolerance {
			t.Errorf("target=%f: achieved perplexity %.12f outside tolerance", target, achieved)
		}
	}
}

func TestPerplexityOf_Uniform(t *testing.T) {
	// A uniform distribution over k outcomes has perplexity exactly k.
	uniform := []float64{0.25, 0.25, 0.25, 0.25}
	perplexity := perplexityOf(uniform)
	if math.Abs(perplexity-4.0) > 1e-12 {
		t.Errorf("expected perplexity 4 for uniform over 4, got %f", perplexity)
	}
}

func TestJointProbabilities_NormalizationAndSymmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	points := make([][]float64, 12)
	for i := range points {
		points[i] = []float64{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}
	}

	distances := squaredDistanceMatrix(points)
	jointP, nonConverged := jointProbabilities(distances, 5)

	if len(nonConverged) != 0 {
		t.Errorf("expected all bandwidth searches to converge, %d did not", len(nonConverged))
	}

	var total float64
	for i := range jointP {
		for j := range jointP[i] {
			if jointP[i][j] < 0 {
				t.Errorf("P[%d][%d] should be non-negative, got %g", i, j, jointP[i][j])
			}
			// Symmetrization must hold exactly, not just approximately.
			if jointP[i][j] != jointP[j][i] {
				t.Errorf("P not exactly symmetric at (%d,%d): %g vs %g", i, j, jointP[i][j], jointP[j][i])
			}
			total += jointP[i][j]
		}
	}
	if math.Abs(total-1.0) > 1e-9 {
		t.Errorf("P should sum to 1 over all entries, got %.12f", total)
	}
}

func TestLowDimAffinities_Normalization(t *testing.T) {
	embedding := [][]float64{
		{0.0, 0.0},
		{1.0, 0.5},
		{-0.5, 2.0},
		{3.0, -1.0},
	}

	kernel, jointQ := lowDimAffinities(embedding)

	var total float64
	for i := range jointQ {
		if jointQ[i][i] != 0 {
			t.Errorf("Q diagonal (%d,%d) should be zero, got %g", i, i, jointQ[i][i])
		}
		if kernel[i][i] != 0 {
			t.Errorf("kernel diagonal (%d,%d) should be zero, got %g", i, i, kernel[i][i])
		}
		for j := range jointQ[i] {
			if jointQ[i][j] < 0 {
				t.Errorf("Q[%d][%d] should be non-negative, got %g", i, j, jointQ[i][j])
			}
			if jointQ[i][j] != jointQ[j][i] {
				t.Errorf("Q not symmetric at (%d,%d)", i, j)
			}
			total += jointQ[i][j]
		}
	}
	if math.Abs(total-1.0) > 1e-9 {
		t.Errorf("Q should sum to 1 over all entries, got %.12f", total)
	}
}

// TestKLGradient_MatchesFiniteDifference verifies the analytic gradient against
// a central finite-difference approximation of the KL divergence on a small
// hand-constructed configuration.
func TestKLGradient_MatchesFiniteDifference(t *testing.T) {
	highDimPoints := [][]float64{
		{0.0, 0.0, 0.0},
		{1.0, 0.2, -0.3},
		{-0.7, 1.5, 0.4},
	}
	jointP, _ := jointProbabilities(squaredDistanceMatrix(highDimPoints), 2)

	embedding := [][]float64{
		{0.1, -0.2},
		{0.4, 0.3},
		{-0.5, 0.1},
	}

	kernel, jointQ := lowDimAffinities(embedding)
	gradient := klGradient(jointP, jointQ, kernel, embedding)

	costAt := func(y [][]float64) float64 {
		_, q := lowDimAffinities(y)
		return klDivergence(jointP, q)
	}

	const h = 1e-6
	for i := range embedding {
		for d := range embedding[i] {
			perturbed := copyMatrix(embedding)

			perturbed[i][d] = embedding[i][d] + h
			costPlus := costAt(perturbed)
			perturbed[i][d] = embedding[i][d] - h
			costMinus := costAt(perturbed)

			numeric := (costPlus - costMinus) / (2 * h)
			if math.Abs(numeric-gradient[i][d]) > 1e-5 {
				t.Errorf("gradient mismatch at point %d dim %d: analytic %.10f, finite-difference %.10f",
					i, d, gradient[i][d], numeric)
			}
		}
	}
}

func TestMomentumSchedule(t *testing.T) {
	for _, iteration := range []int{0, 1, 100, 249} {
		if m := momentum(iteration); m != 0.5 {
			t.Errorf("momentum(%d) = %f, expected 0.5", iteration, m)
		}
	}
	for _, iteration := range []int{250, 251, 500, 10000} {
		if m := momentum(iteration); m != 0.8 {
			t.Errorf("momentum(%d) = %f, expected 0.8", iteration, m)
		}
	}
}

func TestEmbedWithConfig_UnitSquareTo1D(t *testing.T) {
	corners := [][]float64{
		{0.0, 0.0},
		{0.0, 1.0},
		{1.0, 0.0},
		{1.0, 1.0},
	}

	config := TSNEConfig{
		OutputDims:   1,
		Iterations:   500,
		LearningRate: 10,
		Perplexity:   2,
		RandomSeed:   1,
	}

	result := EmbedWithConfig(corners, config)

	if len(result.Coordinates) != 4 {
		t.Fatalf("expected 4 output rows, got %d", len(result.Coordinates))
	}

	allIdentical := true
	for i, row := range result.Coordinates {
		if len(row) != 1 {
			t.Fatalf("row %d should have 1 coordinate, got %d", i, len(row))
		}
		if math.IsNaN(row[0]) || math.IsInf(row[0], 0) {
			t.Errorf("row %d is not finite: %f", i, row[0])
		}
		if row[0] != result.Coordinates[0][0] {
			allIdentical = false
		}
	}
	if allIdentical {
		t.Error("embedding is degenerate: all coordinates identical")
	}
}

func TestEmbedWithConfig_SeparatesClusters(t *testing.T) {
	// Two well-separated Gaussian clusters of 30 points each in 2D. After
	// reduction, the mean pairwise distance within each recovered cluster
	// should be smaller than the distance between the recovered centroids.
	rng := rand.New(rand.NewSource(3))
	var points [][]float64
	for i := 0; i < 30; i++ {
		points = append(points, []float64{rng.NormFloat64() * 0.1, rng.NormFloat64() * 0.1})
	}
	for i := 0; i < 30; i++ {
		points = append(points, []float64{10 + rng.NormFloat64()*0.1, 10 + rng.NormFloat64()*0.1})
	}

	config := TSNEConfig{
		OutputDims:   2,
		Iterations:   500,
		LearningRate: 50,
		Perplexity:   10,
		RandomSeed:   5,
	}

	result := EmbedWithConfig(points, config)
	coords := result.Coordinates

	centroid := func(rows [][]float64) (float64, float64) {
		var cx, cy float64
		for _, row := range rows {
			cx += row[0]
			cy += row[1]
		}
		n := float64(len(rows))
		return cx / n, cy / n
	}
	meanPairwise := func(rows [][]float64) float64 {
		var sum float64
		var count int
		for i := range rows {
			for j := i + 1; j < len(rows); j++ {
				dx := rows[i][0] - rows[j][0]
				dy := rows[i][1] - rows[j][1]
				sum += math.Sqrt(dx*dx + dy*dy)
				count++
			}
		}
		return sum / float64(count)
	}

	firstCluster := coords[:30]
	secondCluster := coords[30:]

	firstX, firstY := centroid(firstCluster)
	secondX, secondY := centroid(secondCluster)
	centroidSeparation := math.Hypot(firstX-secondX, firstY-secondY)

	if within := meanPairwise(firstCluster); within >= centroidSeparation {
		t.Errorf("first cluster spread %.4f should be below centroid separation %.4f", within, centroidSeparation)
	}
	if within := meanPairwise(secondCluster); within >= centroidSeparation {
		t.Errorf("second cluster spread %.4f should be below centroid separation %.4f", within, centroidSeparation)
	}
}

func TestEmbedWithConfig_Reproducibility(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	points := make([][]float64, 8)
	for i := range points {
		points[i] = []float64{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}
	}

	config := DefaultTSNEConfig()
	config.Iterations = 50
	config.Perplexity = 3

	first := EmbedWithConfig(points, config)
	second := EmbedWithConfig(points, config)

	for i := range first.Coordinates {
		for d := range first.Coordinates[i] {
			if first.Coordinates[i][d] != second.Coordinates[i][d] {
				t.Fatalf("coordinates differ between runs at point %d dim %d", i, d)
			}
		}
	}
}

func TestEmbedWithConfig_PerplexityClamped(t *testing.T) {
	points := [][]float64{
		{0.0, 0.0},
		{1.0, 0.0},
		{0.0, 1.0},
	}

	config := DefaultTSNEConfig()
	config.Iterations = 10
	config.Perplexity = 30 // impossible with 3 points

	result := EmbedWithConfig(points, config)
	if !result.PerplexityClamped {
		t.Error("expected perplexity to be reported as clamped")
	}
	if len(result.Coordinates) != 3 {
		t.Fatalf("expected 3 output rows, got %d", len(result.Coordinates))
	}
}

func TestEmbedWithConfig_ProgressCallback(t *testing.T) {
	points := [][]float64{
		{0.0, 0.0}, {1.0, 0.0}, {0.0, 1.0}, {1.0, 1.0},
	}

	var iterations []int
	config := TSNEConfig{
		OutputDims:   2,
		Iterations:   25,
		LearningRate: 10,
		Perplexity:   2,
		RandomSeed:   9,
		Progress: func(iteration int, cost float64) {
			iterations = append(iterations, iteration)
			if math.IsNaN(cost) || math.IsInf(cost, 0) {
				t.Errorf("iteration %d: cost is not finite: %f", iteration, cost)
			}
			if cost < 0 {
				t.Errorf("iteration %d: KL divergence should be non-negative, got %f", iteration, cost)
			}
		},
	}

	EmbedWithConfig(points, config)

	if len(iterations) == 0 {
		t.Fatal("progress callback was never invoked")
	}
	if last := iterations[len(iterations)-1]; last != 24 {
		t.Errorf("expected final progress report at iteration 24, got %d", last)
	}
}

func TestEmbedWithConfig_EmptyAndSingle(t *testing.T) {
	if result := EmbedWithConfig(nil, DefaultTSNEConfig()); len(result.Coordinates) != 0 {
		t.Errorf("expected empty result for empty input, got %d rows", len(result.Coordinates))
	}

	result := EmbedWithConfig([][]float64{{1.0, 2.0, 3.0}}, DefaultTSNEConfig())
	if len(result.Coordinates) != 1 || len(result.Coordinates[0]) != 2 {
		t.Fatalf("expected a single 2D row for single-point input, got %v", result.Coordinates)
	}
}

func TestProjectTo2DTSNE_SmallCluster(t *testing.T) {
	vectors := [][]float32{
		{0.0, 0.0, 0.0},
		{0.1, 0.1, 0.1},
		{0.2, 0.2, 0.2},
		{10.0, 10.0, 10.0},
		{10.1, 10.1, 10.1},
		{10.2, 10.2, 10.2},
	}
	labels := []string{"a1", "a2", "a3", "b1", "b2", "b3"}

	config := DefaultTSNEConfig()
	config.Iterations = 100
	config.Perplexity = 2
	config.LearningRate = 10

	result := ProjectTo2DTSNEWithConfig(vectors, labels, config)

	if len(result) != 6 {
		t.Fatalf("expected 6 points, got %d", len(result))
	}

	for i, p := range result {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) {
			t.Errorf("point %d has NaN coordinates", i)
		}
		if math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			t.Errorf("point %d has Inf coordinates", i)
		}
		if p.Text != labels[i] {
			t.Errorf("point %d has wrong label: expected %s, got %s", i, labels[i], p.Text)
		}
	}
}

func TestProjectTo2DTSNE_EmptyInput(t *testing.T) {
	if result := ProjectTo2DTSNE(nil, nil); result != nil {
		t.Errorf("expected nil for empty input, got %v", result)
	}
}

func BenchmarkEmbedWithConfig(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	points := make([][]float64, 100)
	for i := range points {
		points[i] = make([]float64, 32)
		for j := range points[i] {
			points[i][j] = rng.NormFloat64()
		}
	}

	config := DefaultTSNEConfig()
	config.Iterations = 100
	config.Perplexity = 15

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		EmbedWithConfig(points, config)
	}
}
