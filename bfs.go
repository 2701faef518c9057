package robot

import "time"

// bfsPlan implements the alternate planner of spec §4.6.3: maintain a set of
// known obstacles, plan a shortest 4-connected path to the origin treating
// obstacles as non-traversable, and step along it — adding the attempted
// cell to the obstacle set and re-planning whenever a MOVE doesn't change
// the coordinate.
func (n *Navigator) bfsPlan(orient *Orientation, timeout time.Duration) error {
	obstacles := map[Coord]bool{}

	for orient.Coord != (Coord{}) {
		path := bfsShortestPath(orient.Coord, obstacles)
		if path == nil {
			return logicErrorf("no path to origin around known obstacles from %v", orient.Coord)
		}

		next := path[0]
		side, err := determineSide(orient.Coord, next)
		if err != nil {
			return logicErrorf("%v", err)
		}

		if err := n.rotateTo(orient, side, timeout); err != nil {
			return err
		}

		before := orient.Coord
		coord, err := n.doMove(timeout)
		if err != nil {
			return err
		}
		if coord == before {
			obstacles[next] = true
			continue
		}
		orient.Coord = coord
	}
	return nil
}

// bfsNeighbors returns c's 4-connected neighbours in the fixed order spec
// §4.6.3 names: {(x-1,y),(x+1,y),(x,y-1),(x,y+1)}. This ordering is
// observable via turn-choice ties on equally short paths; it is not a wire
// contract with clients (spec §9 note 3).
func bfsNeighbors(c Coord) [4]Coord {
	return [4]Coord{
		{X: c.X - 1, Y: c.Y},
		{X: c.X + 1, Y: c.Y},
		{X: c.X, Y: c.Y - 1},
		{X: c.X, Y: c.Y + 1},
	}
}

// bfsNode is one visited cell in bfsShortestPath's search tree.
type bfsNode struct {
	coord Coord
	prev  *bfsNode
}

// bfsShortestPath returns the sequence of cells from start (exclusive) to
// (0, 0) (inclusive) along a shortest 4-connected path avoiding obstacles,
// or nil if the origin is unreachable with the currently known obstacles.
func bfsShortestPath(start Coord, obstacles map[Coord]bool) []Coord {
	if start == (Coord{}) {
		return nil
	}

	// The search is confined to the bounding box of start, the origin and
	// the obstacles, grown by one cell on every side. That ring is free of
	// obstacles, so no shorter path lies outside it, and the bound is what
	// lets an enclosed origin end the search with nil.
	lo := Coord{X: min(start.X, 0) - 1, Y: min(start.Y, 0) - 1}
	hi := Coord{X: max(start.X, 0) + 1, Y: max(start.Y, 0) + 1}
	for c := range obstacles {
		lo = Coord{X: min(lo.X, c.X-1), Y: min(lo.Y, c.Y-1)}
		hi = Coord{X: max(hi.X, c.X+1), Y: max(hi.Y, c.Y+1)}
	}

	visited := map[Coord]bool{start: true}
	queue := []*bfsNode{{coord: start}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, nb := range bfsNeighbors(cur.coord) {
			if visited[nb] || obstacles[nb] || nb.X < lo.X || nb.X > hi.X || nb.Y < lo.Y || nb.Y > hi.Y {
				continue
			}
			node := &bfsNode{coord: nb, prev: cur}
			if nb == (Coord{}) {
				return reconstructPath(node, start)
			}
			visited[nb] = true
			queue = append(queue, node)
		}
	}
	return nil
}

func reconstructPath(n *bfsNode, start Coord) []Coord {
	var rev []Coord
	for n != nil && n.coord != start {
		rev = append(rev, n.coord)
		n = n.prev
	}
	path := make([]Coord, len(rev))
	for i, c := range rev {
		path[len(rev)-1-i] = c
	}
	return path
}
