/*
report.go - Order report rendering

PURPOSE:
  One rendering of the order report shared by every store, so the
  packing and back-office stations show the same text regardless of
  which backend is wired in.
*/
package engine

import (
	"fmt"
	"sort"
	"strings"
)

// RenderOrderReport renders all known orders grouped by state, oldest
// number first within each group.
func RenderOrderReport(states map[int]OrderState) string {
	grouped := map[OrderState][]int{}
	for number, state := range states {
		grouped[state] = append(grouped[state], number)
	}

	var sb strings.Builder
	sb.WriteString("Order Report\n")
	sb.WriteString("------------\n")
	if len(states) == 0 {
		sb.WriteString("No orders.\n")
		return sb.String()
	}

	for _, state := range []OrderState{StatePlaced, StatePacked, StateCollected} {
		numbers := grouped[state]
		if len(numbers) == 0 {
			continue
		}
		sort.Ints(numbers)
		parts := make([]string, len(numbers))
		for i, n := range numbers {
			parts[i] = fmt.Sprintf("%d", n)
		}
		fmt.Fprintf(&sb, "%-10s %s\n", string(state)+":", strings.Join(parts, ", "))
	}
	return sb.String()
}
