package lattice

// FloodOrder drives the decoder's cell visitation: a breadth-first
// walk over the physical cell grid so that once a cell is decoded,
// its drift estimate seeds its not-yet-visited neighbors before they
// are popped. This matches the "flood-fill iterator" contract in the
// distilled spec's C2 description.
type FloodOrder struct {
	p *Positions

	grid map[[2]int]int // (row, col) -> physical cell index
	rc   [][2]int       // physical cell index -> (row, col)

	queue   []int
	queued  []bool
	visited []bool
	hint    []Drift
}

// NewFloodOrder builds a flood-fill walk seeded from the top-left-most
// cell. The queue is first-in first-out; Update enqueues a cell's
// neighbors in up, down, left, right order.
func NewFloodOrder(p *Positions) *FloodOrder {
	f := &FloodOrder{p: p}
	f.grid = make(map[[2]int]int, len(p.cells))
	f.rc = make([][2]int, len(p.cells))
	for i, c := range p.cells {
		f.grid[[2]int{c.row, c.col}] = i
		f.rc[i] = [2]int{c.row, c.col}
	}
	f.queued = make([]bool, len(p.cells))
	f.visited = make([]bool, len(p.cells))
	f.hint = make([]Drift, len(p.cells))

	if len(p.cells) > 0 {
		f.push(0)
	}
	return f
}

func (f *FloodOrder) push(physical int) {
	if f.queued[physical] {
		return
	}
	f.queued[physical] = true
	f.queue = append(f.queue, physical)
}

// Next pops the next physical cell index to decode along with its
// current drift hint (seeded by already-decoded neighbors, zero
// otherwise). It returns ok == false once every cell has been
// visited.
func (f *FloodOrder) Next() (physicalIndex int, hint Drift, ok bool) {
	for len(f.queue) > 0 {
		idx := f.queue[0]
		f.queue = f.queue[1:]
		if f.visited[idx] {
			continue
		}
		f.visited[idx] = true
		return idx, f.hint[idx], true
	}
	return 0, Drift{}, false
}

// Update commits the decoded drift for physical cell idx, then seeds
// its four grid neighbors with that drift (only if they aren't yet
// visited) and enqueues them. errDistance is accepted but not used.
func (f *FloodOrder) Update(idx int, committed Drift, errDistance int) {
	rc := f.rc[idx]
	neighbors := [4][2]int{
		{rc[0] - 1, rc[1]},
		{rc[0] + 1, rc[1]},
		{rc[0], rc[1] - 1},
		{rc[0], rc[1] + 1},
	}
	for _, n := range neighbors {
		phys, found := f.grid[n]
		if !found || f.visited[phys] {
			continue
		}
		f.hint[phys] = committed
		f.push(phys)
	}
}
