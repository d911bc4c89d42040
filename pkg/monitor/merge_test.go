package monitor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSortedMergeBothEmpty(t *testing.T) {
	items := sortedMerge[string, string](nil, identity, nil, identity)
	require.Empty(t, items)
}

func TestSortedMergeOnlyLeft(t *testing.T) {
	items := sortedMerge[string, string]([]string{"a", "b", "c"}, identity, nil, identity)
	require.Len(t, items, 3)
	for _, item := range items {
		require.Equal(t, mergeOnlyLeft, item.Kind)
	}
}

func TestSortedMergeOnlyRight(t *testing.T) {
	items := sortedMerge[string, string](nil, identity, []string{"a", "b"}, identity)
	require.Len(t, items, 2)
	for _, item := range items {
		require.Equal(t, mergeOnlyRight, item.Kind)
	}
}

func TestSortedMergeInterleaved(t *testing.T) {
	left := []string{"apple", "cherry", "fig", "grape"}
	right := []string{"banana", "cherry", "date", "grape"}

	items := sortedMerge[string, string](left, identity, right, identity)

	expectedNames := []string{"apple", "banana", "cherry", "date", "fig", "grape"}
	expectedKinds := []mergeKind{
		mergeOnlyLeft,  // apple
		mergeOnlyRight, // banana
		mergeBoth,      // cherry
		mergeOnlyRight, // date
		mergeOnlyLeft,  // fig
		mergeBoth,      // grape
	}

	require.Len(t, items, len(expectedNames))
	for i, item := range items {
		require.Equal(t, expectedNames[i], item.Name)
		require.Equal(t, expectedKinds[i], item.Kind)
	}
}

func TestSortedMergeValuesOnlyMaterializedWhenPresent(t *testing.T) {
	left := []string{"a", "c"}
	right := []string{"b", "c"}

	var leftCalls, rightCalls []string
	items := sortedMerge[string, string](
		left, func(n string) string { leftCalls = append(leftCalls, n); return "L:" + n },
		right, func(n string) string { rightCalls = append(rightCalls, n); return "R:" + n },
	)

	require.Equal(t, []string{"a", "c"}, leftCalls)
	require.Equal(t, []string{"b", "c"}, rightCalls)

	require.Equal(t, "L:c", items[2].Left)
	require.Equal(t, "R:c", items[2].Right)
}

func identity(s string) string { return s }
