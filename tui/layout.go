package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/reflow/truncate"
)

const (
	overlayPanelWidth = 30
	inputOverlayWidth = 60
	minCanvasWidth    = 40
	minCanvasHeight   = 10
	tabBarHeight      = 1
	statusBarHeight   = 1
	borderSize        = 2
)

type viewTab int

const (
	tabVisualization viewTab = iota
	tabList
	tabStats
)

type inputMode int

const (
	modeNormal inputMode = iota
	modeInput
)

type layoutDimensions struct {
	totalWidth   int
	totalHeight  int
	canvasWidth  int
	canvasHeight int
}

func (model Model) calculateLayout() layoutDimensions {
	marginX := 2
	marginY := 2

	totalWidth := model.width - marginX
	totalHeight := model.height - marginY

	canvasHeight := totalHeight - tabBarHeight - statusBarHeight - borderSize
	if canvasHeight < minCanvasHeight {
		canvasHeight = minCanvasHeight
	}

	canvasWidth := totalWidth - borderSize
	if canvasWidth < minCanvasWidth {
		canvasWidth = minCanvasWidth
	}

	return layoutDimensions{
		totalWidth:   totalWidth,
		totalHeight:  totalHeight,
		canvasWidth:  canvasWidth,
		canvasHeight: canvasHeight,
	}
}

type styles struct {
	title       lipgloss.Style
	canvas      lipgloss.Style
	overlay     lipgloss.Style
	input       lipgloss.Style
	tabActive   lipgloss.Style
	tabInactive lipgloss.Style
	tabBar      lipgloss.Style
	statusBar   lipgloss.Style
	header      lipgloss.Style
	label       lipgloss.Style
	value       lipgloss.Style
	warning     lipgloss.Style
	errorText   lipgloss.Style
}

func newStyles() styles {
	accentColor := lipgloss.Color("#FF87D7")
	borderColor := lipgloss.Color("#5F5FAF")
	canvasBorderColor := lipgloss.Color("#FF8700")
	dimColor := lipgloss.Color("#6C6C6C")
	bgColor := lipgloss.Color("#303030")

	return styles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor),

		canvas: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(canvasBorderColor),

		overlay: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Background(bgColor).
			Padding(0, 1),

		input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Background(bgColor).
			Padding(0, 1),

		tabActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor).
			Padding(0, 1),

		tabInactive: lipgloss.NewStyle().
			Foreground(dimColor).
			Padding(0, 1),

		tabBar: lipgloss.NewStyle().
			Foreground(dimColor),

		statusBar: lipgloss.NewStyle().
			Foreground(dimColor),

		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor),

		label: lipgloss.NewStyle().
			Foreground(dimColor),

		value: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EEEEEE")),

		warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAF00")),

		errorText: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")),
	}
}

// View renders the full application frame.
func (model Model) View() string {
	s := newStyles()
	layout := model.calculateLayout()

	var frame strings.Builder
	frame.WriteString(model.renderTabBar(s, layout.totalWidth))
	frame.WriteString("\n")

	switch model.activeTab {
	case tabList:
		frame.WriteString(model.renderListView(s, layout))
	case tabStats:
		frame.WriteString(model.renderStatsView(s, layout))
	default:
		frame.WriteString(model.renderContentArea(s, layout))
	}
	frame.WriteString("\n")

	if model.err != nil {
		frame.WriteString(s.errorText.Render("Error: "+model.err.Error()) + "\n")
	}
	frame.WriteString(model.renderStatusBar(s, layout.totalWidth))

	return lipgloss.NewStyle().Padding(1, 1).Render(frame.String())
}

func (model Model) renderTabBar(s styles, width int) string {
	tabs := []struct {
		name string
		tab  viewTab
	}{
		{"Visualization", tabVisualization},
		{"List", tabList},
		{"Stats", tabStats},
	}

	var parts []string
	for _, t := range tabs {
		style := s.tabInactive
		if t.tab == model.activeTab {
			style = s.tabActive
		}
		parts = append(parts, style.Render(t.name))
	}

	tabRow := strings.Join(parts, s.tabBar.Render(" │ "))
	title := s.title.Render("manifold")

	tabWidth := lipgloss.Width(tabRow)
	titleWidth := lipgloss.Width(title)
	gap := width - tabWidth - titleWidth
	if gap < 1 {
		gap = 1
	}

	return tabRow + strings.Repeat(" ", gap) + title
}

func (model Model) renderContentArea(s styles, layout layoutDimensions) string {
	canvasInnerWidth := layout.canvasWidth - borderSize
	canvasInnerHeight := layout.canvasHeight

	canvasContent := model.renderCanvas(canvasInnerWidth, canvasInnerHeight)
	canvasBox := s.canvas.
		Width(canvasInnerWidth).
		Height(canvasInnerHeight).
		Render(canvasContent)

	showPanel := model.showMetadata && model.selectedIndex >= 0 && model.selectedIndex < len(model.storedPoints)
	if showPanel {
		canvasBox = model.overlayMetadataPanel(canvasBox, s, layout)
	}

	if model.inputMode == modeInput {
		canvasBox = model.overlayInputBox(canvasBox, s, layout)
	}

	return canvasBox
}

func (model Model) overlayMetadataPanel(base string, s styles, layout layoutDimensions) string {
	panelInnerWidth := overlayPanelWidth - 4
	panelInnerHeight := layout.canvasHeight - 4
	if panelInnerHeight < 6 {
		panelInnerHeight = 6
	}

	metadataContent := model.renderMetadata(s, panelInnerWidth, panelInnerHeight)
	panel := s.overlay.
		Width(panelInnerWidth).
		Height(panelInnerHeight).
		Render(metadataContent)

	return overlayAt(base, panel, layout.canvasWidth-overlayPanelWidth-1, 1)
}

func (model Model) overlayInputBox(base string, s styles, layout layoutDimensions) string {
	inputWidth := inputOverlayWidth - 4

	inputText := model.input[:model.cursorPos] + "▌" + model.input[model.cursorPos:]
	if model.embedding {
		inputText += " ..."
	}
	if model.input == "" && !model.embedding {
		inputText = "Type to embed, Enter to save, Esc to cancel"
	}

	inputBox := s.input.
		Width(inputWidth).
		Render(inputText)

	x := (layout.canvasWidth - inputOverlayWidth) / 2
	y := layout.canvasHeight / 2

	return overlayAt(base, inputBox, x, y)
}

// overlayAt composites the overlay on top of the base at the given cell
// position, splitting each affected base line around the overlay while
// preserving ANSI styling.
func overlayAt(base, overlay string, x, y int) string {
	bgLines, bgWidth := getLines(base)
	fgLines, fgWidth := getLines(overlay)
	bgHeight := len(bgLines)
	fgHeight := len(fgLines)

	if fgWidth >= bgWidth && fgHeight >= bgHeight {
		return overlay
	}

	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	if x > bgWidth-fgWidth {
		x = bgWidth - fgWidth
	}
	if y > bgHeight-fgHeight {
		y = bgHeight - fgHeight
	}

	var b strings.Builder
	for i, bgLine := range bgLines {
		if i > 0 {
			b.WriteByte('\n')
		}
		if i < y || i >= y+fgHeight {
			b.WriteString(bgLine)
			continue
		}

		pos := 0
		if x > 0 {
			left := truncate.String(bgLine, uint(x))
			pos = ansi.StringWidth(left)
			b.WriteString(left)
			if pos < x {
				b.WriteString(strings.Repeat(" ", x-pos))
				pos = x
			}
		}

		fgLine := fgLines[i-y]
		b.WriteString(fgLine)
		pos += ansi.StringWidth(fgLine)

		right := ansi.TruncateLeft(bgLine, pos, "")
		lineWidth := ansi.StringWidth(bgLine)
		rightWidth := ansi.StringWidth(right)
		if rightWidth <= lineWidth-pos {
			b.WriteString(strings.Repeat(" ", lineWidth-rightWidth-pos))
		}
		b.WriteString(right)
	}

	return b.String()
}

func getLines(s string) ([]string, int) {
	lines := strings.Split(s, "\n")
	widest := 0
	for _, l := range lines {
		w := ansi.StringWidth(l)
		if widest < w {
			widest = w
		}
	}
	return lines, widest
}

// renderMetadata builds the metadata panel content for the selected point.
func (model Model) renderMetadata(s styles, panelWidth, panelHeight int) string {
	if model.selectedIndex < 0 || model.selectedIndex >= len(model.storedPoints) {
		return ""
	}

	selectedPoint := model.storedPoints[model.selectedIndex]
	var contentLines []string

	contentLines = append(contentLines, s.header.Render("Selected"))
	contentLines = append(contentLines, s.value.Render(truncateString(selectedPoint.Text, panelWidth)))
	if selectedPoint.Label != "" {
		contentLines = append(contentLines, s.label.Render("Label: ")+s.value.Render(selectedPoint.Label))
	}
	contentLines = append(contentLines, "")

	if len(selectedPoint.Vector) > 0 {
		contentLines = append(contentLines, s.label.Render("Dim: ")+s.value.Render(fmt.Sprintf("%d", len(selectedPoint.Vector))))

		minimumValue, maximumValue, meanValue := vectorStatistics(selectedPoint.Vector)
		contentLines = append(contentLines, s.label.Render("Min/Max: ")+s.value.Render(fmt.Sprintf("%.3f / %.3f", minimumValue, maximumValue)))
		contentLines = append(contentLines, s.label.Render("Mean: ")+s.value.Render(fmt.Sprintf("%.4f", meanValue)))
		contentLines = append(contentLines, s.label.Render("L2 norm: ")+s.value.Render(fmt.Sprintf("%.4f", vectorNorm(selectedPoint.Vector))))
		contentLines = append(contentLines, "")
	}

	nearestNeighbors := model.findNearestNeighbors(model.selectedIndex, 5)
	if len(nearestNeighbors) > 0 {
		contentLines = append(contentLines, s.header.Render("Nearest"))
		for _, neighborEntry := range nearestNeighbors {
			neighborLine := fmt.Sprintf("%.3f %s", neighborEntry.similarity, truncateString(neighborEntry.text, panelWidth-7))
			contentLines = append(contentLines, neighborLine)
		}
	}

	if len(contentLines) > panelHeight {
		contentLines = contentLines[:panelHeight]
	}
	return strings.Join(contentLines, "\n")
}

// renderListView shows every stored point with its label, selection-aware.
func (model Model) renderListView(s styles, layout layoutDimensions) string {
	innerWidth := layout.canvasWidth - borderSize
	innerHeight := layout.canvasHeight

	var contentLines []string
	if len(model.storedPoints) == 0 {
		contentLines = append(contentLines, s.label.Render("No stored points."))
	}

	// Keep the selection visible by scrolling the window over the list.
	firstVisible := 0
	if model.selectedIndex >= innerHeight {
		firstVisible = model.selectedIndex - innerHeight + 1
	}

	for index := firstVisible; index < len(model.storedPoints) && len(contentLines) < innerHeight; index++ {
		point := model.storedPoints[index]

		marker := "  "
		rowStyle := s.value
		if index == model.selectedIndex {
			marker = "> "
			rowStyle = s.header
		}

		row := marker + truncateString(point.Text, innerWidth-20)
		if point.Label != "" {
			row += s.label.Render("  [" + point.Label + "]")
		}
		contentLines = append(contentLines, rowStyle.Render(row))
	}

	return s.canvas.
		Width(innerWidth).
		Height(innerHeight).
		Render(strings.Join(contentLines, "\n"))
}

// renderStatsView shows dataset counts and projection diagnostics.
func (model Model) renderStatsView(s styles, layout layoutDimensions) string {
	innerWidth := layout.canvasWidth - borderSize
	innerHeight := layout.canvasHeight

	var contentLines []string
	contentLines = append(contentLines, s.header.Render("Dataset"))
	contentLines = append(contentLines, s.label.Render("Points: ")+s.value.Render(fmt.Sprintf("%d", len(model.storedPoints))))
	if len(model.storedPoints) > 0 {
		contentLines = append(contentLines, s.label.Render("Dimensions: ")+s.value.Render(fmt.Sprintf("%d", len(model.storedPoints[0].Vector))))
	}
	if labelCount := model.distinctLabelCount(); labelCount > 0 {
		contentLines = append(contentLines, s.label.Render("Labels: ")+s.value.Render(fmt.Sprintf("%d", labelCount)))
	}
	contentLines = append(contentLines, "")

	contentLines = append(contentLines, s.header.Render("Projection"))
	contentLines = append(contentLines, s.label.Render("Method: ")+s.value.Render(model.method.String()))

	if model.method == methodTSNE {
		contentLines = append(contentLines, s.label.Render("Perplexity: ")+s.value.Render(fmt.Sprintf("%.0f", model.tsneConfig.Perplexity)))
		contentLines = append(contentLines, s.label.Render("Iterations: ")+s.value.Render(fmt.Sprintf("%d", model.tsneConfig.Iterations)))
		contentLines = append(contentLines, s.label.Render("Learning rate: ")+s.value.Render(fmt.Sprintf("%.0f", model.tsneConfig.LearningRate)))
		contentLines = append(contentLines, s.label.Render("Seed: ")+s.value.Render(fmt.Sprintf("%d", model.tsneConfig.RandomSeed)))

		if model.diagnostics.ran {
			contentLines = append(contentLines, "")
			contentLines = append(contentLines, s.header.Render("Last run"))
			contentLines = append(contentLines, s.label.Render("Iteration: ")+s.value.Render(fmt.Sprintf("%d", model.diagnostics.iteration)))
			contentLines = append(contentLines, s.label.Render("KL divergence: ")+s.value.Render(fmt.Sprintf("%.4f", model.diagnostics.cost)))
			if model.diagnostics.perplexityClamped {
				contentLines = append(contentLines, s.warning.Render("Perplexity clamped to dataset size - 1"))
			}
			if model.diagnostics.nonConverged > 0 {
				contentLines = append(contentLines, s.warning.Render(fmt.Sprintf("Bandwidth search did not converge for %d point(s)", model.diagnostics.nonConverged)))
			}
		}
	}

	if len(contentLines) > innerHeight {
		contentLines = contentLines[:innerHeight]
	}
	return s.canvas.
		Width(innerWidth).
		Height(innerHeight).
		Render(strings.Join(contentLines, "\n"))
}

// distinctLabelCount counts the distinct non-empty labels across stored points.
func (model Model) distinctLabelCount() int {
	seen := make(map[string]bool)
	for _, point := range model.storedPoints {
		if point.Label != "" {
			seen[point.Label] = true
		}
	}
	return len(seen)
}

func (model Model) renderStatusBar(s styles, width int) string {
	var help string

	if model.inputMode == modeInput {
		help = "Enter: save │ Esc: cancel"
	} else {
		help = "↑↓: select │ /: info │ i: input │ l: labels │ f: focus │ p: " + model.method.String() +
			" │ [/]: perplexity │ r: reproject │ D: delete │ 1-3: tabs │ Esc: quit"
	}

	if status := model.statusLine(); status != "" {
		help += " │ " + status
	}

	version := model.version
	padding := width - lipgloss.Width(help) - lipgloss.Width(version)
	if padding < 1 {
		padding = 1
	}

	return s.statusBar.Render(help + strings.Repeat(" ", padding) + version)
}
