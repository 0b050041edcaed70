package lattice

// BoundaryPoint is one (time, critical price) pair of the early-exercise
// frontier.
type BoundaryPoint struct {
	Time  float64 `json:"time"`
	Price float64 `json:"price"`
}

// ExerciseBoundary derives the early-exercise boundary from a policy table.
//
// A node qualifies when the policy says exercise and its payoff is strictly
// positive; exercise-marked nodes with zero payoff carry no information about
// the frontier. Among the qualifying up-counts of a step, a call takes the
// lowest (the cheapest price still worth exercising) and a put the highest.
// Steps without a qualifying node are skipped, so the result may be shorter
// than N+1.
func ExerciseBoundary(c Contract, policy [][]bool, optType OptionType) []BoundaryPoint {
	var boundary []BoundaryPoint
	for i, row := range policy {
		t := c.StepTime(i)
		found := false
		best := 0
		for j, exercise := range row {
			if !exercise || c.Payoff(t, c.StatePrice(i, j)) <= 0 {
				continue
			}
			switch {
			case !found:
				best = j
			case optType.IsCall() && j < best:
				best = j
			case !optType.IsCall() && j > best:
				best = j
			}
			found = true
		}
		if found {
			boundary = append(boundary, BoundaryPoint{Time: t, Price: c.StatePrice(i, best)})
		}
	}
	return boundary
}
