package tui

// layout splits the terminal into an input row, a session list on the left,
// a transcript preview on the right and a status line.
type layout struct {
	width, height int
}

const (
	listShare  = 40 // percent of the width given to the list
	chromeRows = 6  // input + status + two bordered panels
	minPanel   = 20
)

func (l layout) listWidth() int {
	if l.width <= 0 {
		return 40
	}
	return max(l.width*listShare/100-4, minPanel)
}

func (l layout) previewWidth() int {
	if l.width <= 0 {
		return 60
	}
	return max(l.width*(100-listShare)/100-4, minPanel)
}

func (l layout) panelHeight() int {
	if l.height <= 0 {
		return 20
	}
	return max(l.height-chromeRows, 5)
}

// visibleItems is how many sessions fit in the list panel.
func (l layout) visibleItems() int {
	return max(l.panelHeight()/linesPerItem, 1)
}

type region int

const (
	regionNone region = iota
	regionList
	regionPreview
)

// at maps a terminal cell to the panel under it. For the list it also
// returns the row offset inside the panel content.
func (l layout) at(x, y int) (region, int) {
	top := 2 // input row + top border
	row := y - top
	if row < 0 || row >= l.panelHeight() {
		return regionNone, -1
	}
	lw := l.listWidth()
	switch {
	case x >= 1 && x <= lw:
		return regionList, row
	case x > lw+2:
		return regionPreview, -1
	}
	return regionNone, -1
}
