package wikitable

// ValueKind tags the three cell value shapes.
type ValueKind int

const (
	// ValueEmpty marks a cell with no content, authored or synthetic.
	ValueEmpty ValueKind = iota
	// ValueScalar is a single text value with an optional link.
	ValueScalar
	// ValueAggregate is a value assembled from several scalar parts,
	// as when duplicate columns share or split one figure.
	ValueAggregate
)

// Scalar is one atomic cell value.
type Scalar struct {
	Text string
	Link string
}

// Value is the content of one logical cell. Scalar is meaningful only
// for ValueScalar, Parts only for ValueAggregate.
type Value struct {
	Kind   ValueKind
	Scalar Scalar
	Parts  []Scalar
}

// EmptyValue returns the empty cell value.
func EmptyValue() Value { return Value{Kind: ValueEmpty} }

// ScalarValue builds a single-part value.
func ScalarValue(text, link string) Value {
	return Value{Kind: ValueScalar, Scalar: Scalar{Text: text, Link: link}}
}

// AggregateValue builds a value from scalar parts, collapsing zero
// parts to Empty and a single part to Scalar.
func AggregateValue(parts []Scalar) Value {
	switch len(parts) {
	case 0:
		return EmptyValue()
	case 1:
		return Value{Kind: ValueScalar, Scalar: parts[0]}
	default:
		return Value{Kind: ValueAggregate, Parts: parts}
	}
}

// FirstText returns the first textual member of the value, or "" when
// the value has none.
func (v Value) FirstText() string {
	switch v.Kind {
	case ValueScalar:
		return v.Scalar.Text
	case ValueAggregate:
		for _, p := range v.Parts {
			if p.Text != "" {
				return p.Text
			}
		}
	}
	return ""
}

// Level tags which hierarchy level a value attaches to.
type Level int

const (
	// ParentLevel attaches a value to the column's parent label.
	ParentLevel Level = iota
	// ChildLevel attaches a value to the column's child label.
	ChildLevel
)

// Positioned is one data cell value placed at its hierarchy level.
type Positioned struct {
	Level Level
	Value Value
}

// MapRow aligns one data row's physical cells with the column
// descriptors. Single-span cells attach at child level when the column
// is hierarchical, parent level otherwise. A cell spanning several
// columns attaches once at parent level and covers the remainder with
// empty placeholders. Rows shorter than the descriptor list, typically
// continuations of an earlier rowspan, are padded with empty
// placeholders; cells beyond the descriptor list are dropped.
func MapRow(cells []Cell, cols []Column) []Positioned {
	out := make([]Positioned, 0, len(cols))

	for _, cell := range cells {
		if len(out) >= len(cols) {
			break
		}
		value := cellValue(cell)

		if cell.ColSpan > 1 {
			out = append(out, Positioned{Level: ParentLevel, Value: value})
			for i := 1; i < cell.ColSpan && len(out) < len(cols); i++ {
				out = append(out, Positioned{Level: ParentLevel, Value: EmptyValue()})
			}
			continue
		}

		level := ParentLevel
		if cols[len(out)].Kind == ColumnHierarchical {
			level = ChildLevel
		}
		out = append(out, Positioned{Level: level, Value: value})
	}

	for len(out) < len(cols) {
		out = append(out, Positioned{Level: ParentLevel, Value: EmptyValue()})
	}
	return out
}

func cellValue(cell Cell) Value {
	if !cell.substantive() {
		return EmptyValue()
	}
	return ScalarValue(cell.Text, cell.Link)
}
