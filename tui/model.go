// Package tui implements the terminal user interface: a scatter canvas showing
// the projected embedding space, a list of stored points, and a stats view with
// projection diagnostics. Vectors come from the store, projections from the
// projection package, and new points are embedded as the user types.
package tui

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/alDuncanson/manifold/embedding"
	"github.com/alDuncanson/manifold/projection"
	"github.com/alDuncanson/manifold/qdrant"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

// projectionMethod selects which algorithm maps vectors to the 2D canvas.
type projectionMethod int

const (
	methodPCA projectionMethod = iota
	methodTSNE
)

func (method projectionMethod) String() string {
	if method == methodTSNE {
		return "t-SNE"
	}
	return "PCA"
}

// Perplexity adjustment step for the [ and ] keys.
const perplexityStep = 5

// How long to wait after a keystroke before embedding the input text.
const embedDebounce = 150 * time.Millisecond

// tsneDiagnostics captures what the last t-SNE run reported.
type tsneDiagnostics struct {
	ran               bool
	iteration         int
	cost              float64
	nonConverged      int
	perplexityClamped bool
}

// Model is the Bubble Tea application state.
type Model struct {
	width, height int

	activeTab viewTab
	inputMode inputMode

	input     string
	cursorPos int

	points       []projection.Point2D
	storedPoints []qdrant.Point
	currentVec   []float32

	embedder embedding.Embedder
	store    *qdrant.Client

	err       error
	embedding bool

	selectedIndex int
	showMetadata  bool
	focusMode     bool
	showLabels    bool

	method      projectionMethod
	tsneConfig  projection.TSNEConfig
	projecting  bool
	diagnostics tsneDiagnostics

	// progressUpdates streams iteration/cost reports out of a running t-SNE
	// projection; nil when no projection is in flight.
	progressUpdates chan projectionProgress

	version string
}

// embeddingResult is the message returned after computing an embedding vector.
type embeddingResult struct {
	vector []float32
	err    error
}

// projectionProgress is streamed from a running t-SNE projection.
type projectionProgress struct {
	iteration int
	cost      float64
}

// reprojectRequested asks the update loop to start a fresh projection.
type reprojectRequested struct{}

// pointsUpdated is the message returned after a projection finishes.
type pointsUpdated struct {
	points       []projection.Point2D
	storedPoints []qdrant.Point
	diagnostics  tsneDiagnostics
}

// NewModel creates the initial application state.
func NewModel(embedder embedding.Embedder, store *qdrant.Client, method string, tsneConfig projection.TSNEConfig, version string) Model {
	selectedMethod := methodPCA
	if method == "tsne" {
		selectedMethod = methodTSNE
	}

	return Model{
		width:         80,
		height:        24,
		embedder:      embedder,
		store:         store,
		selectedIndex: -1,
		showMetadata:  true,
		showLabels:    true,
		method:        selectedMethod,
		tsneConfig:    tsneConfig,
		version:       version,
	}
}

// Init kicks off the first load-and-project cycle. Init cannot change the
// model, so the actual projection start happens in Update.
func (model Model) Init() tea.Cmd {
	return func() tea.Msg { return reprojectRequested{} }
}

// Update handles all incoming messages.
func (model Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch message := msg.(type) {
	case tea.KeyMsg:
		return model.handleKeyPress(message)

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height

	case reprojectRequested:
		return model.startProjection()

	case embeddingResult:
		return model.handleEmbeddingResult(message)

	case projectionProgress:
		model.diagnostics.ran = true
		model.diagnostics.iteration = message.iteration
		model.diagnostics.cost = message.cost
		if model.progressUpdates != nil {
			return model, listenForProgress(model.progressUpdates)
		}

	case pointsUpdated:
		return model.handlePointsUpdated(message)
	}

	return model, nil
}

func (model Model) handleKeyPress(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if model.inputMode == modeInput {
		return model.handleInputModeKey(key)
	}

	switch key.String() {
	case "ctrl+c", "esc", "q":
		return model, tea.Quit

	case "i":
		model.inputMode = modeInput

	case "1":
		model.activeTab = tabVisualization
	case "2":
		model.activeTab = tabList
	case "3":
		model.activeTab = tabStats

	case "tab", "down":
		model.selectNextPoint()
	case "shift+tab", "up":
		model.selectPreviousPoint()

	case "/":
		model.showMetadata = !model.showMetadata
	case "f":
		model.focusMode = !model.focusMode
	case "l":
		model.showLabels = !model.showLabels

	case "p":
		if model.method == methodPCA {
			model.method = methodTSNE
		} else {
			model.method = methodPCA
		}
		return model.startProjection()

	case "r":
		return model.startProjection()

	case "[":
		if model.tsneConfig.Perplexity > perplexityStep {
			model.tsneConfig.Perplexity -= perplexityStep
		}
		if model.method == methodTSNE {
			return model.startProjection()
		}
	case "]":
		model.tsneConfig.Perplexity += perplexityStep
		if model.method == methodTSNE {
			return model.startProjection()
		}

	case "D":
		if model.selectedIndex >= 0 && model.selectedIndex < len(model.storedPoints) {
			return model, model.deleteSelected()
		}
	}

	return model, nil
}

func (model Model) handleInputModeKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "esc":
		model.inputMode = modeNormal
		model.input = ""
		model.cursorPos = 0
		model.currentVec = nil
		return model.startProjection()

	case "enter":
		if model.input != "" && model.currentVec != nil {
			saveCmd := model.saveCurrentEmbedding()
			model.inputMode = modeNormal
			model.input = ""
			model.cursorPos = 0
			model.currentVec = nil
			return model, saveCmd
		}
		return model, nil

	case "backspace":
		if model.cursorPos > 0 {
			model.input = model.input[:model.cursorPos-1] + model.input[model.cursorPos:]
			model.cursorPos--
			return model, model.debounceEmbed()
		}
		return model, nil

	case "left":
		if model.cursorPos > 0 {
			model.cursorPos--
		}
	case "right":
		if model.cursorPos < len(model.input) {
			model.cursorPos++
		}

	default:
		keyString := key.String()
		if len(keyString) == 1 {
			model.input = model.input[:model.cursorPos] + keyString + model.input[model.cursorPos:]
			model.cursorPos++
			return model, model.debounceEmbed()
		}
	}

	return model, nil
}

func (model *Model) selectNextPoint() {
	if len(model.storedPoints) > 0 {
		model.selectedIndex = (model.selectedIndex + 1) % len(model.storedPoints)
	}
}

func (model *Model) selectPreviousPoint() {
	if len(model.storedPoints) > 0 {
		model.selectedIndex--
		if model.selectedIndex < 0 {
			model.selectedIndex = len(model.storedPoints) - 1
		}
	}
}

func (model Model) handleEmbeddingResult(result embeddingResult) (tea.Model, tea.Cmd) {
	model.embedding = false
	if result.err != nil {
		model.err = result.err
		return model, nil
	}
	model.err = nil
	model.currentVec = result.vector
	if model.currentVec != nil {
		return model.startProjection()
	}
	return model, nil
}

func (model Model) handlePointsUpdated(update pointsUpdated) (tea.Model, tea.Cmd) {
	model.projecting = false
	model.progressUpdates = nil
	model.points = update.points
	if update.storedPoints != nil {
		model.storedPoints = update.storedPoints
	}
	if update.diagnostics.ran {
		model.diagnostics = update.diagnostics
	}

	if model.selectedIndex >= len(model.storedPoints) {
		model.selectedIndex = len(model.storedPoints) - 1
	}
	return model, nil
}

// debounceEmbed waits briefly before computing an embedding, so a burst of
// keystrokes turns into one API call.
func (model *Model) debounceEmbed() tea.Cmd {
	model.embedding = true
	inputText := model.input
	embedder := model.embedder
	return func() tea.Msg {
		time.Sleep(embedDebounce)
		if inputText == "" {
			return embeddingResult{}
		}
		vector, err := embedder.Embed(inputText)
		return embeddingResult{vector: vector, err: err}
	}
}

// saveCurrentEmbedding persists the current input and vector, then reprojects.
func (model *Model) saveCurrentEmbedding() tea.Cmd {
	text := model.input
	vector := model.currentVec
	store := model.store
	return func() tea.Msg {
		ctx := context.Background()
		if err := store.Upsert(ctx, uuid.New().String(), text, "", vector); err != nil {
			return embeddingResult{err: err}
		}
		return reprojectRequested{}
	}
}

// deleteSelected removes the selected point from the store, then reprojects.
func (model *Model) deleteSelected() tea.Cmd {
	pointID := model.storedPoints[model.selectedIndex].ID
	store := model.store
	return func() tea.Msg {
		ctx := context.Background()
		if err := store.Delete(ctx, pointID); err != nil {
			return embeddingResult{err: err}
		}
		return reprojectRequested{}
	}
}

// startProjection launches an asynchronous load-and-project cycle, including
// the unsaved input vector when one exists.
func (model Model) startProjection() (Model, tea.Cmd) {
	projectCmd, listenCmd := model.projectionCmds(model.currentVec, model.input)
	model.projecting = true
	return model, tea.Batch(projectCmd, listenCmd)
}

// projectionCmds builds the pair of commands behind every projection: one that
// fetches the stored vectors and runs the projection, and one that relays
// progress reports back into the update loop. t-SNE can take a while, so it
// streams progress through a buffered channel; PCA finishes in one shot and
// simply closes the channel unused.
func (model *Model) projectionCmds(currentVector []float32, currentInput string) (tea.Cmd, tea.Cmd) {
	progress := make(chan projectionProgress, 16)
	model.progressUpdates = progress

	store := model.store
	method := model.method
	config := model.tsneConfig

	project := func() tea.Msg {
		defer close(progress)

		ctx := context.Background()
		storedPoints, err := store.GetAll(ctx)
		if err != nil {
			return embeddingResult{err: err}
		}

		vectors := make([][]float32, 0, len(storedPoints)+1)
		labels := make([]string, 0, len(storedPoints)+1)
		for _, stored := range storedPoints {
			vectors = append(vectors, stored.Vector)
			labels = append(labels, stored.Text)
		}
		if currentVector != nil {
			vectors = append(vectors, currentVector)
			labels = append(labels, currentInput+" ●")
		}

		switch method {
		case methodTSNE:
			points, diagnostics := projectTSNE(vectors, labels, config, progress)
			return pointsUpdated{points: points, storedPoints: storedPoints, diagnostics: diagnostics}
		default:
			points := projection.ProjectTo2DPCA(vectors, labels)
			return pointsUpdated{points: points, storedPoints: storedPoints}
		}
	}

	return project, listenForProgress(progress)
}

// projectTSNE runs the t-SNE pipeline, forwarding progress without ever
// blocking the optimization loop (reports are dropped when the UI lags).
func projectTSNE(vectors [][]float32, labels []string, config projection.TSNEConfig, progress chan<- projectionProgress) ([]projection.Point2D, tsneDiagnostics) {
	diagnostics := tsneDiagnostics{ran: true}

	if len(vectors) < 2 {
		return projection.ProjectTo2DTSNEWithConfig(vectors, labels, config), diagnostics
	}

	config.OutputDims = 2
	config.Progress = func(iteration int, cost float64) {
		diagnostics.iteration = iteration
		diagnostics.cost = cost
		select {
		case progress <- projectionProgress{iteration: iteration, cost: cost}:
		default:
		}
	}

	result := projection.EmbedVectors32(vectors, config)
	diagnostics.nonConverged = len(result.NonConverged)
	diagnostics.perplexityClamped = result.PerplexityClamped

	points := make([]projection.Point2D, len(result.Coordinates))
	for i, coordinates := range result.Coordinates {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		points[i] = projection.Point2D{X: coordinates[0], Y: coordinates[1], Text: label}
	}
	return points, diagnostics
}

// listenForProgress waits for the next progress report. It returns nil once
// the projection closes the channel, which ends the relay loop.
func listenForProgress(progress <-chan projectionProgress) tea.Cmd {
	return func() tea.Msg {
		report, open := <-progress
		if !open {
			return nil
		}
		return report
	}
}

// neighbor pairs a stored point's text with its similarity to the selection.
type neighbor struct {
	text       string
	similarity float64
}

// findNearestNeighbors returns the k points most similar to the selected one,
// by cosine similarity in the original high-dimensional space.
func (model Model) findNearestNeighbors(selectedIndex, maxNeighbors int) []neighbor {
	indices := model.findNearestNeighborIndices(selectedIndex, maxNeighbors)
	neighbors := make([]neighbor, 0, len(indices))
	for _, index := range indices {
		neighbors = append(neighbors, neighbor{
			text:       model.storedPoints[index].Text,
			similarity: cosineSimilarity(model.storedPoints[selectedIndex].Vector, model.storedPoints[index].Vector),
		})
	}
	return neighbors
}

// findNearestNeighborIndices returns the indices of the k most similar points.
func (model Model) findNearestNeighborIndices(selectedIndex, maxNeighbors int) []int {
	if selectedIndex < 0 || selectedIndex >= len(model.storedPoints) {
		return nil
	}

	selected := model.storedPoints[selectedIndex]

	type scored struct {
		index      int
		similarity float64
	}
	var candidates []scored
	for index, candidate := range model.storedPoints {
		if index == selectedIndex {
			continue
		}
		candidates = append(candidates, scored{
			index:      index,
			similarity: cosineSimilarity(selected.Vector, candidate.Vector),
		})
	}

	sort.Slice(candidates, func(a, b int) bool {
		return candidates[a].similarity > candidates[b].similarity
	})
	if len(candidates) > maxNeighbors {
		candidates = candidates[:maxNeighbors]
	}

	indices := make([]int, len(candidates))
	for i, candidate := range candidates {
		indices[i] = candidate.index
	}
	return indices
}

// cosineSimilarity returns a value in [-1, 1]; 1 means identical direction.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// vectorStatistics returns the minimum, maximum, and mean of a vector.
func vectorStatistics(vector []float32) (minimum, maximum, mean float64) {
	if len(vector) == 0 {
		return
	}

	minimum = float64(vector[0])
	maximum = float64(vector[0])
	var sum float64
	for _, component := range vector {
		value := float64(component)
		if value < minimum {
			minimum = value
		}
		if value > maximum {
			maximum = value
		}
		sum += value
	}
	mean = sum / float64(len(vector))
	return
}

// vectorNorm returns the L2 norm of a vector.
func vectorNorm(vector []float32) float64 {
	var sumOfSquares float64
	for _, component := range vector {
		sumOfSquares += float64(component) * float64(component)
	}
	return math.Sqrt(sumOfSquares)
}

// truncateString shortens a string to maxLength, adding ellipsis if truncated.
func truncateString(text string, maxLength int) string {
	if len(text) <= maxLength {
		return text
	}
	if maxLength < 3 {
		return text[:maxLength]
	}
	return text[:maxLength-3] + "..."
}

// statusLine summarizes a running projection for the status bar.
func (model Model) statusLine() string {
	if model.projecting && model.method == methodTSNE && model.diagnostics.ran {
		return fmt.Sprintf("t-SNE iteration %d, KL %.3f", model.diagnostics.iteration, model.diagnostics.cost)
	}
	if model.projecting {
		return "projecting..."
	}
	if model.embedding {
		return "embedding..."
	}
	return ""
}
