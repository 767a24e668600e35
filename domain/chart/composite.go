package chart

// MaxCells is the largest number of charts a composite can hold.
const MaxCells = 4

// CellSpec is one subplot of a composite.
type CellSpec struct {
	Cell   Cell   `json:"cell"`
	Type   Type   `json:"type"`
	Title  string `json:"title"`
	Spec   Spec   `json:"spec"`
	NoData bool   `json:"no_data"`
}

// Composite is a grid of compiled charts.
type Composite struct {
	Rows   int        `json:"rows"`
	Cols   int        `json:"cols"`
	Cells  []CellSpec `json:"cells"`
	Layout Layout     `json:"layout"`
	// Annotations mark cells whose chart had no data.
	Annotations []Annotation `json:"annotations,omitempty"`
}

// ErrorComposite returns a composite with no cells and the given title.
func ErrorComposite(title string) Composite {
	return Composite{Layout: Layout{Title: title}}
}

// IsError reports whether the composite has no cells.
func (c Composite) IsError() bool {
	return len(c.Cells) == 0
}

// Spec flattens the composite into one spec. Traces and annotations keep
// their cell, and the layout carries the grid with the subplot titles.
func (c Composite) Spec() Spec {
	s := Spec{Traces: []Trace{}, Layout: c.Layout}
	if c.IsError() {
		return s
	}
	grid := &Grid{Rows: c.Rows, Cols: c.Cols}
	for _, cell := range c.Cells {
		grid.Titles = append(grid.Titles, cell.Title)
		for _, t := range cell.Spec.Traces {
			at := cell.Cell
			t.Cell = &at
			s.Traces = append(s.Traces, t)
		}
	}
	s.Layout.Grid = grid
	s.Annotations = append(s.Annotations, c.Annotations...)
	return s
}
