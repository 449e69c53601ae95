package engine

// Pattern is a named winning shape on the 5x5 grid.
type Pattern string

const (
	PatternSingleLine  Pattern = "single_line"
	PatternDoubleLine  Pattern = "double_line"
	PatternTripleLine  Pattern = "triple_line"
	PatternFourCorners Pattern = "four_corners"
	PatternDiagonal    Pattern = "diagonal"
	PatternFullHouse   Pattern = "full_house"
)

// KnownPattern reports whether the name is part of the catalog.
func KnownPattern(p Pattern) bool {
	switch p {
	case PatternSingleLine, PatternDoubleLine, PatternTripleLine,
		PatternFourCorners, PatternDiagonal, PatternFullHouse:
		return true
	}
	return false
}

type gridPos struct{ row, col int }

var corners = []gridPos{{0, 0}, {0, 4}, {4, 0}, {4, 4}}

var diagonals = [2][]gridPos{
	{{0, 0}, {1, 1}, {2, 2}, {3, 3}, {4, 4}},
	{{0, 4}, {1, 3}, {2, 2}, {3, 1}, {4, 0}},
}

func posComplete(c *Card, cells []gridPos) bool {
	for _, p := range cells {
		if !c.IsMarked(p.row, p.col) {
			return false
		}
	}
	return true
}

func posNumbers(c *Card, cells []gridPos) []int {
	var nums []int
	for _, p := range cells {
		if n, free := c.NumberAt(p.row, p.col); !free {
			nums = append(nums, n)
		}
	}
	return nums
}

// completeLines returns every fully marked row and column, rows first.
// The free center counts as marked, so row 2 and column 2 need only four
// daubs.
func completeLines(c *Card) [][]gridPos {
	var lines [][]gridPos
	for row := 0; row < GridSize; row++ {
		cells := make([]gridPos, GridSize)
		for col := 0; col < GridSize; col++ {
			cells[col] = gridPos{row, col}
		}
		if posComplete(c, cells) {
			lines = append(lines, cells)
		}
	}
	for col := 0; col < GridSize; col++ {
		cells := make([]gridPos, GridSize)
		for row := 0; row < GridSize; row++ {
			cells[row] = gridPos{row, col}
		}
		if posComplete(c, cells) {
			lines = append(lines, cells)
		}
	}
	return lines
}

// PatternComplete re-derives whether the named pattern is genuinely
// complete on the card and returns the underlying numbers (free marker
// excluded). Line milestones require that many distinct complete lines.
func PatternComplete(c *Card, p Pattern) ([]int, bool) {
	switch p {
	case PatternSingleLine, PatternDoubleLine, PatternTripleLine:
		need := 1
		if p == PatternDoubleLine {
			need = 2
		} else if p == PatternTripleLine {
			need = 3
		}
		lines := completeLines(c)
		if len(lines) < need {
			return nil, false
		}
		seen := make(map[int]bool)
		var nums []int
		for _, line := range lines[:need] {
			for _, n := range posNumbers(c, line) {
				if !seen[n] {
					seen[n] = true
					nums = append(nums, n)
				}
			}
		}
		return nums, true
	case PatternFourCorners:
		if !posComplete(c, corners) {
			return nil, false
		}
		return posNumbers(c, corners), true
	case PatternDiagonal:
		for _, d := range diagonals {
			if posComplete(c, d) {
				return posNumbers(c, d), true
			}
		}
		return nil, false
	case PatternFullHouse:
		var nums []int
		for row := 0; row < GridSize; row++ {
			for col := 0; col < GridSize; col++ {
				n, free := c.NumberAt(row, col)
				if free {
					continue
				}
				if !c.IsMarked(row, col) {
					return nil, false
				}
				nums = append(nums, n)
			}
		}
		return nums, true
	}
	return nil, false
}

// MatchPattern returns the first completed pattern in the fixed priority
// order: line milestones, four corners, diagonal, full house. Milestones
// already awarded this session are skipped so each is granted at most
// once; ties are resolved by this order, never by completion time.
func MatchPattern(c *Card, awarded map[Pattern]bool) (Pattern, []int, bool) {
	lines := completeLines(c)
	milestones := []struct {
		p    Pattern
		need int
	}{
		{PatternTripleLine, 3},
		{PatternDoubleLine, 2},
		{PatternSingleLine, 1},
	}
	for _, m := range milestones {
		if len(lines) >= m.need && !awarded[m.p] {
			nums, _ := PatternComplete(c, m.p)
			return m.p, nums, true
		}
	}
	for _, p := range []Pattern{PatternFourCorners, PatternDiagonal, PatternFullHouse} {
		if awarded[p] {
			continue
		}
		if nums, ok := PatternComplete(c, p); ok {
			return p, nums, true
		}
	}
	return "", nil, false
}
