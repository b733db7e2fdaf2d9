package tui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// canvasCell is a single cell in the rendering grid.
type canvasCell struct {
	char       rune
	style      lipgloss.Style
	isSelected bool
	isCurrent  bool
	isLine     bool
}

// canvasStyles holds the lipgloss styles used for canvas rendering.
type canvasStyles struct {
	selectedDot   lipgloss.Style
	selectedLabel lipgloss.Style
	current       lipgloss.Style
	normal        lipgloss.Style
	line          lipgloss.Style
	neighborDot   lipgloss.Style
	neighborLabel lipgloss.Style
}

func defineCanvasStyles() canvasStyles {
	return canvasStyles{
		selectedDot:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		selectedLabel: lipgloss.NewStyle().Foreground(lipgloss.Color("118")).Bold(true),
		current:       lipgloss.NewStyle().Foreground(lipgloss.Color("213")),
		normal:        lipgloss.NewStyle().Foreground(lipgloss.Color("239")),
		line:          lipgloss.NewStyle().Foreground(lipgloss.Color("117")),
		neighborDot:   lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true),
		neighborLabel: lipgloss.NewStyle().Foreground(lipgloss.Color("228")).Bold(true),
	}
}

// categoryPalette colors points by their stored label so clusters that share a
// label are visually grouped. Colors cycle when there are more labels than
// palette entries.
var categoryPalette = []lipgloss.Color{
	"81",  // cyan
	"114", // green
	"175", // rose
	"215", // peach
	"147", // lavender
	"186", // sand
	"73",  // teal
	"167", // brick
}

// categoryStyles assigns a style to each distinct label, in order of first
// appearance across the stored points, so colors stay stable between frames.
func (model Model) categoryStyles() map[string]lipgloss.Style {
	assigned := make(map[string]lipgloss.Style)
	for _, point := range model.storedPoints {
		if point.Label == "" {
			continue
		}
		if _, ok := assigned[point.Label]; ok {
			continue
		}
		color := categoryPalette[len(assigned)%len(categoryPalette)]
		assigned[point.Label] = lipgloss.NewStyle().Foreground(color)
	}
	return assigned
}

// renderCanvas generates the 2D visualization of all projected points.
func (model Model) renderCanvas(canvasWidth, canvasHeight int) string {
	canvasGrid := make([][]canvasCell, canvasHeight)
	for rowIndex := range canvasGrid {
		canvasGrid[rowIndex] = make([]canvasCell, canvasWidth)
		for columnIndex := range canvasGrid[rowIndex] {
			canvasGrid[rowIndex][columnIndex] = canvasCell{char: ' ', style: lipgloss.NewStyle()}
		}
	}

	if len(model.points) == 0 {
		model.renderEmptyCanvasMessage(canvasGrid, canvasWidth, canvasHeight)
	} else {
		model.renderPointsOnCanvas(canvasGrid, canvasWidth, canvasHeight, defineCanvasStyles())
	}

	return canvasGridToString(canvasGrid)
}

// renderEmptyCanvasMessage displays a placeholder when no points exist.
func (model Model) renderEmptyCanvasMessage(canvasGrid [][]canvasCell, canvasWidth, canvasHeight int) {
	centerRowIndex := canvasHeight / 2
	placeholderMessage := "No embeddings yet - press i and start typing!"
	startColumnIndex := (canvasWidth - len(placeholderMessage)) / 2
	if startColumnIndex < 0 {
		startColumnIndex = 0
	}
	for characterOffset, character := range placeholderMessage {
		if startColumnIndex+characterOffset < canvasWidth {
			canvasGrid[centerRowIndex][startColumnIndex+characterOffset] = canvasCell{char: character, style: lipgloss.NewStyle()}
		}
	}
}

// renderPointsOnCanvas draws all points, labels, and connector lines.
func (model Model) renderPointsOnCanvas(canvasGrid [][]canvasCell, canvasWidth, canvasHeight int, styles canvasStyles) {
	minimumX, maximumX, minimumY, maximumY := model.calculatePointBounds()

	rangeX := maximumX - minimumX
	rangeY := maximumY - minimumY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}

	paddingSize := 2
	plotAreaWidth := canvasWidth - 2*paddingSize
	plotAreaHeight := canvasHeight - 2*paddingSize
	if plotAreaWidth < 1 {
		plotAreaWidth = 1
	}
	if plotAreaHeight < 1 {
		plotAreaHeight = 1
	}

	gridPoints := model.convertPointsToGridPositions(paddingSize, plotAreaWidth, plotAreaHeight, minimumX, rangeX, minimumY, rangeY, canvasWidth, canvasHeight)

	neighborPointIndices := model.identifyNeighborIndices(gridPoints)

	model.drawNeighborConnectorLines(canvasGrid, gridPoints, neighborPointIndices, styles.line)

	sortedGridPoints := sortGridPointsByRenderPriority(gridPoints, neighborPointIndices)

	model.renderGridPointsWithLabels(canvasGrid, sortedGridPoints, neighborPointIndices, canvasWidth, styles)
}

// calculatePointBounds finds the min/max X and Y coordinates across all points.
func (model Model) calculatePointBounds() (minimumX, maximumX, minimumY, maximumY float64) {
	minimumX, maximumX = model.points[0].X, model.points[0].X
	minimumY, maximumY = model.points[0].Y, model.points[0].Y

	for _, point := range model.points {
		if point.X < minimumX {
			minimumX = point.X
		}
		if point.X > maximumX {
			maximumX = point.X
		}
		if point.Y < minimumY {
			minimumY = point.Y
		}
		if point.Y > maximumY {
			maximumY = point.Y
		}
	}
	return
}

// gridPoint is a projected point positioned on the canvas grid.
type gridPoint struct {
	rowIndex    int
	columnIndex int
	pointIndex  int
	label       string
	category    string
	isCurrent   bool
	isSelected  bool
}

// convertPointsToGridPositions maps projection coordinates to grid cells.
func (model Model) convertPointsToGridPositions(paddingSize, plotAreaWidth, plotAreaHeight int, minimumX, rangeX, minimumY, rangeY float64, canvasWidth, canvasHeight int) []gridPoint {
	var gridPoints []gridPoint

	for pointIndex, point := range model.points {
		columnIndex := paddingSize + int((point.X-minimumX)/rangeX*float64(plotAreaWidth-1))
		rowIndex := paddingSize + int((point.Y-minimumY)/rangeY*float64(plotAreaHeight-1))

		if columnIndex < 0 {
			columnIndex = 0
		}
		if columnIndex >= canvasWidth {
			columnIndex = canvasWidth - 1
		}
		if rowIndex < 0 {
			rowIndex = 0
		}
		if rowIndex >= canvasHeight {
			rowIndex = canvasHeight - 1
		}

		// The current input point is the unsaved one appended last, marked ●.
		isCurrentInputPoint := pointIndex == len(model.points)-1 && strings.HasSuffix(point.Text, " ●")

		category := ""
		if pointIndex < len(model.storedPoints) {
			category = model.storedPoints[pointIndex].Label
		}

		gridPoints = append(gridPoints, gridPoint{
			rowIndex:    rowIndex,
			columnIndex: columnIndex,
			pointIndex:  pointIndex,
			label:       point.Text,
			category:    category,
			isCurrent:   isCurrentInputPoint,
			isSelected:  pointIndex == model.selectedIndex,
		})
	}

	return gridPoints
}

// identifyNeighborIndices finds which point indices neighbor the selection.
func (model Model) identifyNeighborIndices(gridPoints []gridPoint) map[int]bool {
	neighborPointIndices := make(map[int]bool)

	for gridPointIndex := range gridPoints {
		if gridPoints[gridPointIndex].isSelected {
			for _, neighborIndex := range model.findNearestNeighborIndices(model.selectedIndex, 5) {
				neighborPointIndices[neighborIndex] = true
			}
			break
		}
	}

	return neighborPointIndices
}

// drawNeighborConnectorLines draws lines from the selected point to neighbors.
func (model Model) drawNeighborConnectorLines(canvasGrid [][]canvasCell, gridPoints []gridPoint, neighborPointIndices map[int]bool, lineStyle lipgloss.Style) {
	var selectedGridPoint *gridPoint
	for gridPointIndex := range gridPoints {
		if gridPoints[gridPointIndex].isSelected {
			selectedGridPoint = &gridPoints[gridPointIndex]
			break
		}
	}
	if selectedGridPoint == nil {
		return
	}

	for _, targetGridPoint := range gridPoints {
		if neighborPointIndices[targetGridPoint.pointIndex] {
			drawLineOnCanvas(canvasGrid, selectedGridPoint.columnIndex, selectedGridPoint.rowIndex, targetGridPoint.columnIndex, targetGridPoint.rowIndex, lineStyle)
		}
	}
}

// sortGridPointsByRenderPriority orders points so highlighted ones draw last
// (on top). Order: unselected -> neighbors -> current input -> selected.
func sortGridPointsByRenderPriority(gridPoints []gridPoint, neighborPointIndices map[int]bool) []gridPoint {
	sortedPoints := make([]gridPoint, len(gridPoints))
	copy(sortedPoints, gridPoints)

	renderPriority := func(point gridPoint) int {
		if point.isSelected {
			return 3
		}
		if point.isCurrent {
			return 2
		}
		if neighborPointIndices[point.pointIndex] {
			return 1
		}
		return 0
	}

	sort.SliceStable(sortedPoints, func(firstIndex, secondIndex int) bool {
		return renderPriority(sortedPoints[firstIndex]) < renderPriority(sortedPoints[secondIndex])
	})

	return sortedPoints
}

// renderGridPointsWithLabels draws markers and labels for each point.
func (model Model) renderGridPointsWithLabels(canvasGrid [][]canvasCell, gridPoints []gridPoint, neighborPointIndices map[int]bool, canvasWidth int, styles canvasStyles) {
	hasSelection := model.selectedIndex >= 0 && model.selectedIndex < len(model.storedPoints)
	categoryStyles := model.categoryStyles()

	for _, point := range gridPoints {
		// Focus mode hides unrelated points so connector lines stay readable.
		if model.focusMode && hasSelection && !point.isSelected && !point.isCurrent && !neighborPointIndices[point.pointIndex] {
			continue
		}

		var markerSymbol string
		var markerStyle lipgloss.Style
		var labelStyle lipgloss.Style

		switch {
		case point.isSelected:
			markerSymbol = "[*]"
			markerStyle = styles.selectedDot
			labelStyle = styles.selectedLabel
		case point.isCurrent:
			markerSymbol = "●"
			markerStyle = styles.current
			labelStyle = styles.current
		case neighborPointIndices[point.pointIndex]:
			markerSymbol = "◆"
			markerStyle = styles.neighborDot
			labelStyle = styles.neighborLabel
		default:
			markerSymbol = "○"
			markerStyle = styles.normal
			labelStyle = styles.normal
			if categoryStyle, ok := categoryStyles[point.category]; ok {
				markerStyle = categoryStyle
				labelStyle = categoryStyle
			}
		}

		// The selected marker is wider, so shift it left to stay centered.
		markerRunes := []rune(markerSymbol)
		markerStartColumn := point.columnIndex
		if point.isSelected {
			markerStartColumn = point.columnIndex - 1
			if markerStartColumn < 0 {
				markerStartColumn = 0
			}
		}

		for runeOffset, markerRune := range markerRunes {
			if markerStartColumn+runeOffset < canvasWidth {
				canvasGrid[point.rowIndex][markerStartColumn+runeOffset] = canvasCell{
					char:       markerRune,
					style:      markerStyle,
					isSelected: point.isSelected,
					isCurrent:  point.isCurrent,
				}
			}
		}

		if !model.showLabels && !point.isSelected && !point.isCurrent {
			continue
		}

		labelText := point.label
		if len(labelText) > 12 {
			labelText = labelText[:12]
		}
		labelStartColumn := point.columnIndex + len(markerRunes) + 1
		if point.isSelected {
			labelStartColumn = point.columnIndex + 3
		}
		for characterOffset, labelCharacter := range labelText {
			if labelStartColumn+characterOffset < canvasWidth {
				canvasGrid[point.rowIndex][labelStartColumn+characterOffset] = canvasCell{char: labelCharacter, style: labelStyle}
			}
		}
	}
}

// canvasGridToString converts the 2D canvas grid into a renderable string.
func canvasGridToString(canvasGrid [][]canvasCell) string {
	var outputBuilder strings.Builder

	for rowIndex, gridRow := range canvasGrid {
		for _, cell := range gridRow {
			outputBuilder.WriteString(cell.style.Render(string(cell.char)))
		}
		if rowIndex < len(canvasGrid)-1 {
			outputBuilder.WriteString("\n")
		}
	}

	return outputBuilder.String()
}

// drawLineOnCanvas draws a line between two cells with Bresenham's algorithm,
// filling only empty cells so markers stay visible.
func drawLineOnCanvas(canvasGrid [][]canvasCell, startX, startY, endX, endY int, lineStyle lipgloss.Style) {
	deltaX := absoluteValue(endX - startX)
	deltaY := absoluteValue(endY - startY)

	stepDirectionX := 1
	if startX > endX {
		stepDirectionX = -1
	}
	stepDirectionY := 1
	if startY > endY {
		stepDirectionY = -1
	}

	errorTerm := deltaX - deltaY
	currentX := startX
	currentY := startY

	for {
		if currentY >= 0 && currentY < len(canvasGrid) && currentX >= 0 && currentX < len(canvasGrid[0]) {
			if canvasGrid[currentY][currentX].char == ' ' {
				canvasGrid[currentY][currentX] = canvasCell{char: '·', style: lineStyle, isLine: true}
			}
		}

		if currentX == endX && currentY == endY {
			break
		}

		doubledError := 2 * errorTerm
		if doubledError > -deltaY {
			errorTerm -= deltaY
			currentX += stepDirectionX
		}
		if doubledError < deltaX {
			errorTerm += deltaX
			currentY += stepDirectionY
		}
	}
}

func absoluteValue(number int) int {
	if number < 0 {
		return -number
	}
	return number
}
