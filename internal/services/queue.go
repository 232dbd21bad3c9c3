package services

import (
	"sort"

	"github.com/Tredoux555/jeffy-delivery/internal/models"
)

// SortByOptimizedOrder arranges assignments to match a previously computed
// optimized order. The order is advisory: assignments whose ids are missing
// from it keep their relative input position at the front, exactly like the
// queue view. An empty order returns the input unchanged.
func SortByOptimizedOrder(assignments []models.DeliveryAssignment, optimizedOrder []string) []models.DeliveryAssignment {
	if len(optimizedOrder) == 0 {
		return assignments
	}

	index := make(map[string]int, len(optimizedOrder))
	for i, id := range optimizedOrder {
		index[id] = i
	}

	sorted := make([]models.DeliveryAssignment, len(assignments))
	copy(sorted, assignments)

	// Stable sort keeps relative input order for ids the optimizer never saw
	sort.SliceStable(sorted, func(a, b int) bool {
		ia, oka := index[sorted[a].ID]
		ib, okb := index[sorted[b].ID]
		if !oka {
			ia = -1
		}
		if !okb {
			ib = -1
		}
		return ia < ib
	})

	return sorted
}

// MoveInQueue swaps the element at index with its neighbor in the given
// direction ("up" or "down"). Out-of-range moves return the order unchanged.
// This mutates only the displayed order, never the assignment rows.
func MoveInQueue(order []string, index int, direction string) []string {
	newIndex := index + 1
	if direction == "up" {
		newIndex = index - 1
	}

	if index < 0 || index >= len(order) || newIndex < 0 || newIndex >= len(order) {
		return order
	}

	reordered := make([]string, len(order))
	copy(reordered, order)
	reordered[index], reordered[newIndex] = reordered[newIndex], reordered[index]
	return reordered
}
