package board

// Board is the geometry and occupancy of one match's field. It is
// reconstructed fresh from persisted rows on every load (see
// internal/persistence) — occupancy changes every action, so nothing here
// is cached across requests.
type Board struct {
	Width, Height int
	obstacles     map[Position]bool
	occupants     map[Position]string // stack id, keyed by cell
}

// NewBoard builds a board of the given dimensions with the given obstacle
// cells and stack occupants.
func NewBoard(width, height int, obstacles []Position, occupants map[Position]string) *Board {
	b := &Board{
		Width:     width,
		Height:    height,
		obstacles: make(map[Position]bool, len(obstacles)),
		occupants: make(map[Position]string, len(occupants)),
	}
	for _, o := range obstacles {
		b.obstacles[o] = true
	}
	for pos, id := range occupants {
		b.occupants[pos] = id
	}
	return b
}

// InBounds reports whether p lies on the grid.
func (b *Board) InBounds(p Position) bool {
	return p.X >= 0 && p.X < b.Width && p.Y >= 0 && p.Y < b.Height
}

// IsObstacle reports whether p is an obstacle cell.
func (b *Board) IsObstacle(p Position) bool {
	return b.obstacles[p]
}

// OccupantAt returns the stack id occupying p, if any.
func (b *Board) OccupantAt(p Position) (string, bool) {
	id, ok := b.occupants[p]
	return id, ok
}

// IsOccupied reports whether any stack occupies p.
func (b *Board) IsOccupied(p Position) bool {
	_, ok := b.occupants[p]
	return ok
}

// blocked reports whether p blocks occupation/movement for a ground unit:
// out of bounds, an obstacle, or another stack's cell.
func (b *Board) blocked(p Position) bool {
	return !b.InBounds(p) || b.IsObstacle(p) || b.IsOccupied(p)
}

// Reach computes the set of empty cells reachable from origin within
// movementRange steps (uniform cost, 8-connected), per spec §4.2. The
// origin cell itself is excluded from the result. Flying units ignore
// obstacles and stacks along the path; the destination must still be
// empty and in bounds for every unit.
func (b *Board) Reach(origin Position, movementRange int, flying bool) []Position {
	if movementRange <= 0 || !b.InBounds(origin) {
		return nil
	}

	type frontierEntry struct {
		pos  Position
		cost int
	}

	visited := map[Position]int{origin: 0}
	queue := []frontierEntry{{origin, 0}}
	result := make([]Position, 0, movementRange*movementRange)

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.cost >= movementRange {
			continue
		}

		for _, n := range neighbors(cur.pos) {
			if !b.InBounds(n) {
				continue
			}
			if _, seen := visited[n]; seen {
				continue
			}

			if !flying && b.blocked(n) {
				continue
			}

			newCost := cur.cost + 1
			visited[n] = newCost

			// Destination must always be unoccupied by a stack; flying
			// units may still land on an obstacle cell (spec §4.5).
			if !b.IsOccupied(n) {
				result = append(result, n)
			}

			queue = append(queue, frontierEntry{n, newCost})
		}
	}

	return result
}

// InAttackRange reports whether target is within attacker's attack range,
// using Chebyshev distance. No intervening-obstacle check is applied for
// ranged attacks — a deliberate, documented design choice (spec §4.2/§9).
func InAttackRange(attacker, target Position, attackRange int) bool {
	return Chebyshev(attacker, target) <= attackRange
}
