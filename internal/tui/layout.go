package tui

// Layout tracks the terminal size and where the monitor tree starts on screen.
type Layout struct {
	visibleWidth  int
	visibleHeight int
	reservedTop   int
	reservedBelow int
}

func NewLayout() *Layout {
	return &Layout{}
}

func (l *Layout) SetWidth(width int) {
	l.visibleWidth = width
}

func (l *Layout) SetHeight(height int) {
	l.visibleHeight = height
}

func (l *Layout) SetReservedTop(height int) {
	l.reservedTop = height
}

func (l *Layout) SetReservedBelow(height int) {
	l.reservedBelow = height
}

// TreeTop is the first screen row of the tree content, inside the border.
func (l *Layout) TreeTop() int {
	return l.reservedTop + 1
}

func (l *Layout) AvailableWidth() int {
	return max(l.visibleWidth-2, 0)
}

// AvailableHeight excludes the header, the footer and the tree border.
func (l *Layout) AvailableHeight() int {
	return max(l.visibleHeight-l.reservedTop-l.reservedBelow-2, 1)
}

func (l *Layout) PromptWidth() int {
	return max(l.visibleWidth/2, 20)
}

func (l *Layout) PromptHeight() int {
	return max(l.visibleHeight/4, 5)
}
