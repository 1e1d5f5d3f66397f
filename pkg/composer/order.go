package composer

import "sort"

// sortSections orders sections by their position in rules.Order. Kinds absent
// from the table sort after every known kind and keep their insertion order.
func sortSections(sections []Section, rules Rules) {
	index := rules.orderIndex()
	unknown := len(rules.Order)
	rank := func(kind string) int {
		if pos, ok := index[kind]; ok {
			return pos
		}
		return unknown
	}
	sort.SliceStable(sections, func(i, j int) bool {
		return rank(sections[i].Component) < rank(sections[j].Component)
	})
}
