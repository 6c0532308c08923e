package game

import "github.com/AnotherSava/bga-tracker/internal/card"

// propagate runs constraint propagation within one (age, set) group to
// its fixed point. Four elimination steps per pass:
//
//  1. Singleton elimination: a resolved card's name leaves every other
//     candidate set in the group.
//  2. Hidden singles: a name held by exactly one unresolved card
//     resolves that card.
//  3. Naked subsets: N unresolved cards whose candidates union to
//     exactly N names exclude those names from all other cards.
//  4. Suspect elimination: publicly-known names leave other cards'
//     suspect lists; a closed suspect list narrowed to one name is
//     itself a deduction.
//
// Every step only removes elements from finite sets or resolves cards,
// so the loop terminates at the first pass with no changes.
func (s *State) propagate(key card.GroupKey) {
	group := s.groups[key]

	changed := true
	for changed {
		changed = false

		// 1. Singleton elimination
		for _, c := range group {
			if !c.Resolved() {
				continue
			}
			name := c.Name()
			for _, other := range group {
				if other == c || !other.Candidates[name] {
					continue
				}
				delete(other.Candidates, name)
				changed = true
			}
		}

		// 2. Hidden singles
		open := make(map[string]bool)
		for _, c := range group {
			if c.Resolved() {
				continue
			}
			for name := range c.Candidates {
				open[name] = true
			}
		}
		for name := range open {
			var holders []*card.Card
			for _, c := range group {
				if !c.Resolved() && c.Candidates[name] {
					holders = append(holders, c)
				}
			}
			if len(holders) == 1 {
				holders[0].Resolve(name)
				changed = true
			}
		}

		// 3. Naked subsets (groups are small, brute force is fine)
		if s.eliminateNakedSubsets(group) {
			changed = true
		}

		// 4. Suspect elimination
		for _, c := range group {
			if !c.OpponentKnowsExact || !c.Resolved() {
				continue
			}
			name := c.Name()
			for _, other := range group {
				if other == c || !other.OpponentMightSuspect[name] {
					continue
				}
				delete(other.OpponentMightSuspect, name)
				changed = true
				if other.SuspectListExplicit && len(other.OpponentMightSuspect) == 1 {
					other.OpponentKnowsExact = true
				}
			}
		}
	}
}

// eliminateNakedSubsets searches for subsets of unresolved cards whose
// candidates union to exactly the subset size, and removes that union
// from every other unresolved card. The search restarts from scratch
// after any removal rather than iterating combinations against stale
// state. Only evaluated when more than 3 cards are unresolved.
func (s *State) eliminateNakedSubsets(group []*card.Card) bool {
	changed := false

restart:
	for {
		var unresolved []*card.Card
		for _, c := range group {
			if !c.Resolved() {
				unresolved = append(unresolved, c)
			}
		}
		if len(unresolved) <= 3 {
			return changed
		}

		for size := 2; size < len(unresolved); size++ {
			for _, combo := range combinations(len(unresolved), size) {
				union := make(map[string]bool)
				for _, idx := range combo {
					for name := range unresolved[idx].Candidates {
						union[name] = true
					}
				}
				if len(union) != size {
					continue
				}

				inSubset := make(map[*card.Card]bool, size)
				for _, idx := range combo {
					inSubset[unresolved[idx]] = true
				}
				removed := false
				for _, other := range unresolved {
					if inSubset[other] {
						continue
					}
					if other.RemoveCandidates(union) {
						removed = true
					}
				}
				if removed {
					changed = true
					continue restart
				}
			}
		}
		return changed
	}
}

// combinations returns every size-k index combination of [0, n) in
// lexicographic order.
func combinations(n, k int) [][]int {
	if k > n || k <= 0 {
		return nil
	}
	combo := make([]int, k)
	for i := range combo {
		combo[i] = i
	}
	var result [][]int
	for {
		result = append(result, append([]int(nil), combo...))

		i := k - 1
		for i >= 0 && combo[i] == n-k+i {
			i--
		}
		if i < 0 {
			return result
		}
		combo[i]++
		for j := i + 1; j < k; j++ {
			combo[j] = combo[j-1] + 1
		}
	}
}
