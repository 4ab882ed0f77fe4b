package maze

// neighbour offsets in up, right, down, left order
var adjacent = [4]Point{{X: 0, Y: -1}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}}

// Reachable reports whether to can be reached from from through open cells
func Reachable(g *Grid, from, to Point) bool {
	return ShortestPath(g, from, to) != nil
}

// ShortestPath returns the cells of a shortest 4-connected open path from
// from to to, both ends included, or nil when none exists.
func ShortestPath(g *Grid, from, to Point) []Point {
	if !g.IsOpen(from.X, from.Y) || !g.IsOpen(to.X, to.Y) {
		return nil
	}

	parent := make(map[Point]Point, g.Size*g.Size/2)
	parent[from] = from
	queue := []Point{from}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur == to {
			var path []Point
			for p := to; ; p = parent[p] {
				path = append(path, p)
				if p == from {
					break
				}
			}
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return path
		}

		for _, d := range adjacent {
			next := Point{X: cur.X + d.X, Y: cur.Y + d.Y}
			if !g.IsOpen(next.X, next.Y) {
				continue
			}
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = cur
			queue = append(queue, next)
		}
	}

	return nil
}

// DeadEnds counts open cells with exactly one open neighbour, excluding the entry and exit
func DeadEnds(g *Grid) int {
	count := 0
	for y := 0; y < g.Size; y++ {
		for x := 0; x < g.Size; x++ {
			if !g.IsOpen(x, y) {
				continue
			}
			p := Point{X: x, Y: y}
			if p == g.Entry() || p == g.Exit() {
				continue
			}
			open := 0
			for _, d := range adjacent {
				if g.IsOpen(x+d.X, y+d.Y) {
					open++
				}
			}
			if open == 1 {
				count++
			}
		}
	}
	return count
}
