package layout

// DefaultTabWidth is the tab width used when none is configured.
const DefaultTabWidth = 8

// TabExpander computes tab stops on the cell grid.
type TabExpander struct {
	tabWidth int
}

// NewTabExpander creates a tab expander. Widths below one fall back to
// DefaultTabWidth.
func NewTabExpander(tabWidth int) *TabExpander {
	if tabWidth < 1 {
		tabWidth = DefaultTabWidth
	}
	return &TabExpander{tabWidth: tabWidth}
}

// TabWidth returns the current tab width.
func (t *TabExpander) TabWidth() int {
	return t.tabWidth
}

// SetTabWidth sets the tab width, clamped to at least one column.
func (t *TabExpander) SetTabWidth(width int) {
	t.tabWidth = max(width, 1)
}

// NextTabStop returns the first tab stop after col.
func (t *TabExpander) NextTabStop(col int) int {
	return col + t.TabStopOffset(col)
}

// TabStopOffset returns how many columns a tab starting at col occupies.
func (t *TabExpander) TabStopOffset(col int) int {
	return t.tabWidth - (col % t.tabWidth)
}
