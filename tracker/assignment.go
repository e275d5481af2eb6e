package tracker

import (
	"fmt"
	"math"
)

// Solve finds the minimum total cost assignment for a rectangular cost
// matrix of rows x cols.  It returns rowSol[i], the column assigned to row
// i or -1, and colSol[j], the row assigned to column j or -1.  The solution
// assigns min(rows, cols) pairs.
//
// The matrix is extended to a square of size rows+cols where every real row
// may take a dummy column and every real column a dummy row at a cost
// larger than any real entry, so the solver prefers real pairs and leaves
// the surplus on whichever side is larger unassigned.
func Solve(cost [][]float64) (rowSol []int, colSol []int, err error) {

	nRows := len(cost)

	if nRows == 0 {
		return nil, nil, nil
	}

	nCols := len(cost[0])

	for i, row := range cost {
		if len(row) != nCols {
			return nil, nil, fmt.Errorf("cost matrix row %d has %d columns, expected %d", i, len(row), nCols)
		}
	}

	rowSol = make([]int, nRows)
	colSol = make([]int, nCols)

	for i := range rowSol {
		rowSol[i] = -1
	}

	if nCols == 0 {
		return rowSol, colSol, nil
	}

	costMax := 0.0

	for _, row := range cost {
		for _, c := range row {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return nil, nil, fmt.Errorf("cost matrix contains non finite value %v", c)
			}

			if math.Abs(c) > costMax {
				costMax = math.Abs(c)
			}
		}
	}

	n := nRows + nCols
	filler := 2*costMax + 1

	ext := make([][]float64, n)

	for i := range ext {
		ext[i] = make([]float64, n)

		for j := range ext[i] {
			switch {
			case i < nRows && j < nCols:
				ext[i][j] = cost[i][j]
			case i >= nRows && j >= nCols:
				ext[i][j] = 0
			default:
				ext[i][j] = filler
			}
		}
	}

	solver := newLapSolver(ext)

	if err := solver.solve(); err != nil {
		return nil, nil, fmt.Errorf("linear assignment failed: %w", err)
	}

	for i := 0; i < nRows; i++ {
		if j := solver.rowSol[i]; j >= 0 && j < nCols {
			rowSol[i] = j
		}
	}

	for j := 0; j < nCols; j++ {
		colSol[j] = -1

		if i := solver.colSol[j]; i >= 0 && i < nRows {
			colSol[j] = i
		}
	}

	return rowSol, colSol, nil
}
