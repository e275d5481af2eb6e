package tracker

import (
	"errors"
)

// lapLarge stands in for infinity in the dual variables
const lapLarge = 1e12

// lapSolver solves the dense square linear assignment problem with the
// Jonker-Volgenant algorithm.  rowSol[i] is the column assigned to row i and
// colSol[j] the row assigned to column j.
type lapSolver struct {
	n      int
	cost   [][]float64
	rowSol []int
	colSol []int
	// v holds the column dual variables
	v []float64
}

// newLapSolver prepares a solver for a square n x n cost matrix
func newLapSolver(cost [][]float64) *lapSolver {

	n := len(cost)

	return &lapSolver{
		n:      n,
		cost:   cost,
		rowSol: make([]int, n),
		colSol: make([]int, n),
		v:      make([]float64, n),
	}
}

// solve runs column reduction, two rounds of augmenting row reduction and
// finally shortest path augmentation for any rows still free
func (s *lapSolver) solve() error {

	if s.n == 0 {
		return nil
	}

	free := make([]int, s.n)
	nFree := s.columnReduction(free)

	for round := 0; nFree > 0 && round < 2; round++ {
		nFree = s.augmentingRowReduction(free, nFree)
	}

	if nFree > 0 {
		return s.augment(free[:nFree])
	}

	return nil
}

// columnReduction assigns each column to its cheapest row, then transfers
// reduction from rows holding a single column.  Returns the count of rows
// left unassigned, which are written to free.
func (s *lapSolver) columnReduction(free []int) int {

	n := s.n
	unique := make([]bool, n)

	for i := 0; i < n; i++ {
		s.rowSol[i] = -1
		s.v[i] = lapLarge
		s.colSol[i] = 0
		unique[i] = true
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if c := s.cost[i][j]; c < s.v[j] {
				s.v[j] = c
				s.colSol[j] = i
			}
		}
	}

	// walk columns in reverse so the lowest index wins ties
	for j := n - 1; j >= 0; j-- {
		i := s.colSol[j]

		if s.rowSol[i] < 0 {
			s.rowSol[i] = j
		} else {
			unique[i] = false
			s.colSol[j] = -1
		}
	}

	nFree := 0

	for i := 0; i < n; i++ {
		if s.rowSol[i] < 0 {
			free[nFree] = i
			nFree++
			continue
		}

		if !unique[i] {
			continue
		}

		j := s.rowSol[i]
		minRed := lapLarge

		for j2 := 0; j2 < n; j2++ {
			if j2 == j {
				continue
			}

			if c := s.cost[i][j2] - s.v[j2]; c < minRed {
				minRed = c
			}
		}

		s.v[j] -= minRed
	}

	return nFree
}

// augmentingRowReduction tries to assign each free row to its best column
// by adjusting column duals, displacing the previous owner when needed.
// Returns the number of rows still free, compacted at the front of free.
func (s *lapSolver) augmentingRowReduction(free []int, nFree int) int {

	n := s.n
	current := 0
	newFree := 0
	steps := 0

	for current < nFree {
		steps++

		i := free[current]
		current++

		// find the best and second best reduced cost for row i
		j1 := 0
		u1 := s.cost[i][0] - s.v[0]
		j2 := -1
		u2 := lapLarge

		for j := 1; j < n; j++ {
			c := s.cost[i][j] - s.v[j]

			if c >= u2 {
				continue
			}

			if c >= u1 {
				u2 = c
				j2 = j
			} else {
				u2 = u1
				u1 = c
				j2 = j1
				j1 = j
			}
		}

		i0 := s.colSol[j1]
		v1New := s.v[j1] - (u2 - u1)
		lowers := v1New < s.v[j1]

		if steps < current*n {
			if lowers {
				s.v[j1] = v1New
			} else if i0 >= 0 && j2 >= 0 {
				j1 = j2
				i0 = s.colSol[j2]
			}

			if i0 >= 0 {
				if lowers {
					current--
					free[current] = i0
				} else {
					free[newFree] = i0
					newFree++
				}
			}
		} else if i0 >= 0 {
			free[newFree] = i0
			newFree++
		}

		s.rowSol[i] = j1
		s.colSol[j1] = i
	}

	return newFree
}

// augment assigns every remaining free row along a shortest augmenting path
func (s *lapSolver) augment(free []int) error {

	pred := make([]int, s.n)

	for _, start := range free {

		j := s.shortestPath(start, pred)

		if j < 0 || j >= s.n {
			return errors.New("assignment augmentation found no free column")
		}

		// flip assignments back along the path to the start row
		i := -1
		steps := 0

		for i != start {
			i = pred[j]
			s.colSol[j] = i
			j, s.rowSol[i] = s.rowSol[i], j
			steps++

			if steps > s.n {
				return errors.New("assignment augmentation path did not terminate")
			}
		}
	}

	return nil
}

// shortestPath runs a Dijkstra style search over reduced costs from row
// start and returns the free column reached.  pred receives the row that
// precedes each column on the path.  Column duals are updated for every
// column settled before the end column.
func (s *lapSolver) shortestPath(start int, pred []int) int {

	n := s.n
	cols := make([]int, n)
	dist := make([]float64, n)

	for j := 0; j < n; j++ {
		cols[j] = j
		pred[j] = start
		dist[j] = s.cost[start][j] - s.v[j]
	}

	lo, hi := 0, 0
	ready := 0
	end := -1

	for end == -1 {
		// SCAN list empty, pull the next band of minimum distance columns
		if lo == hi {
			ready = lo
			hi = s.findMin(lo, dist, cols)

			for k := lo; k < hi; k++ {
				if j := cols[k]; s.colSol[j] < 0 {
					end = j
				}
			}
		}

		if end == -1 {
			end = s.scan(&lo, &hi, dist, cols, pred)
		}
	}

	minDist := dist[cols[lo]]

	for k := 0; k < ready; k++ {
		j := cols[k]
		s.v[j] += dist[j] - minDist
	}

	return end
}

// findMin moves every column in cols[lo:] with the minimum distance to the
// front of that range and returns the end of the band
func (s *lapSolver) findMin(lo int, dist []float64, cols []int) int {

	hi := lo + 1
	minDist := dist[cols[lo]]

	for k := hi; k < s.n; k++ {
		j := cols[k]

		if dist[j] > minDist {
			continue
		}

		if dist[j] < minDist {
			hi = lo
			minDist = dist[j]
		}

		cols[k] = cols[hi]
		cols[hi] = j
		hi++
	}

	return hi
}

// scan relaxes the TODO columns through each column on the SCAN list.  It
// returns a free column as soon as one is reached at minimum distance, or
// -1 once the SCAN list is exhausted.
func (s *lapSolver) scan(lo, hi *int, dist []float64, cols, pred []int) int {

	for *lo != *hi {
		j := cols[*lo]
		*lo++

		i := s.colSol[j]
		minDist := dist[j]
		h := s.cost[i][j] - s.v[j] - minDist

		for k := *hi; k < s.n; k++ {
			j = cols[k]
			red := s.cost[i][j] - s.v[j] - h

			if red >= dist[j] {
				continue
			}

			dist[j] = red
			pred[j] = i

			if red == minDist {
				if s.colSol[j] < 0 {
					return j
				}

				cols[k] = cols[*hi]
				cols[*hi] = j
				*hi++
			}
		}
	}

	return -1
}
