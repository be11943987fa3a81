package parser

// Position represents a line/column position in source text.
// Uses LSP conventions: 1-based line numbers, 0-based character offsets.
type Position struct {
	Line      int `json:"line"`      // 1-based line number
	Character int `json:"character"` // 0-based character offset within line
	Offset    int `json:"offset"`    // 0-based rune offset in entire source
}

// Range represents a source span from start to end position.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// positionAt computes the Position of a rune offset within src.
func positionAt(src []rune, offset int) Position {
	if offset > len(src) {
		offset = len(src)
	}
	pos := Position{Line: 1}
	for i := 0; i < offset; i++ {
		if src[i] == '\n' {
			pos.Line++
			pos.Character = 0
		} else {
			pos.Character++
		}
	}
	pos.Offset = offset
	return pos
}
