package tree

import (
	"cmp"
	"slices"
)

// AssignBranches splits the root's direct children into a left and a right
// side so that the summed leaf weights stay close.
//
// Children are visited by weight, heaviest first; equal weights keep their
// collection order. Each child joins the side with the smaller running sum,
// Left on a tie, and adds max(1, weight) to it. The result satisfies
// |left - right| <= the largest child weight.
func AssignBranches(ix *Index, weights map[Key]int) map[Key]Direction {
	kids := slices.Clone(ix.Children(RootKey))
	slices.SortStableFunc(kids, func(a, b Key) int {
		return cmp.Compare(weights[b], weights[a])
	})

	sides := make(map[Key]Direction, len(kids))
	var left, right int
	for _, k := range kids {
		w := max(1, weights[k])
		if left <= right {
			sides[k] = Left
			left += w
		} else {
			sides[k] = Right
			right += w
		}
	}
	return sides
}

// BranchSums returns the summed weight of each side, using the same
// max(1, weight) floor as AssignBranches.
func BranchSums(weights map[Key]int, sides map[Key]Direction) (left, right int) {
	for k, d := range sides {
		w := max(1, weights[k])
		switch d {
		case Left:
			left += w
		case Right:
			right += w
		}
	}
	return left, right
}
