package watch

import (
	"reflect"
	"testing"

	"washbot/internal/source"
)

func TestDiff(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		prev source.Snapshot
		cur  source.Snapshot
		want []int
	}{
		{
			name: "identical snapshots",
			prev: source.Snapshot{1: "Свободно", 2: "Занято"},
			cur:  source.Snapshot{1: "Свободно", 2: "Занято"},
			want: nil,
		},
		{
			name: "single change",
			prev: source.Snapshot{1: "Свободно", 2: "Занято"},
			cur:  source.Snapshot{1: "Свободно", 2: "Свободно", 3: "Занято"},
			want: []int{2},
		},
		{
			name: "new machine alone is not a change",
			prev: source.Snapshot{1: "Свободно"},
			cur:  source.Snapshot{1: "Свободно", 9: "Занято"},
			want: nil,
		},
		{
			name: "removed machine alone is not a change",
			prev: source.Snapshot{1: "Свободно", 9: "Занято"},
			cur:  source.Snapshot{1: "Свободно"},
			want: nil,
		},
		{
			name: "multiple changes sorted ascending",
			prev: source.Snapshot{3: "Занято", 1: "Занято", 2: "Свободно"},
			cur:  source.Snapshot{3: "Свободно", 1: "Свободно", 2: "Свободно"},
			want: []int{1, 3},
		},
		{
			name: "empty current treated as no changes",
			prev: source.Snapshot{1: "Свободно", 2: "Занято"},
			cur:  source.Snapshot{},
			want: nil,
		},
		{
			name: "both empty",
			prev: source.Snapshot{},
			cur:  source.Snapshot{},
			want: nil,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Diff(tt.prev, tt.cur)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Diff() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiffEachIDAppearsOnce(t *testing.T) {
	t.Parallel()
	prev := source.Snapshot{5: "Занято"}
	cur := source.Snapshot{5: "Свободно"}
	for i := 0; i < 50; i++ {
		got := Diff(prev, cur)
		if len(got) != 1 || got[0] != 5 {
			t.Fatalf("iteration %d: Diff() = %v, want [5]", i, got)
		}
	}
}
