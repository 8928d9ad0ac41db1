package formz

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorRing_NilIsInert(t *testing.T) {
	var r *errorRing
	r.push(errors.New("dropped"))
	r.clear()
	if r.all() != nil {
		t.Error("expected nil from a nil ring")
	}
	for _, size := range []int{0, -1} {
		if newErrorRing(size) != nil {
			t.Errorf("expected nil ring for size %d", size)
		}
	}
}

func TestErrorRing_KeepsNewestOldestFirst(t *testing.T) {
	tests := []struct {
		size   int
		pushes int
		want   []string
	}{
		{size: 3, pushes: 0, want: nil},
		{size: 3, pushes: 1, want: []string{"doc 0"}},
		{size: 3, pushes: 3, want: []string{"doc 0", "doc 1", "doc 2"}},
		{size: 3, pushes: 4, want: []string{"doc 1", "doc 2", "doc 3"}},
		{size: 2, pushes: 9, want: []string{"doc 7", "doc 8"}},
		{size: 1, pushes: 2, want: []string{"doc 1"}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("size=%d/pushes=%d", tt.size, tt.pushes), func(t *testing.T) {
			r := newErrorRing(tt.size)
			for i := 0; i < tt.pushes; i++ {
				r.push(fmt.Errorf("doc %d", i))
			}
			got := r.all()
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d errors, got %d", len(tt.want), len(got))
			}
			for i := range got {
				if got[i].Error() != tt.want[i] {
					t.Errorf("position %d: expected %q, got %q", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestErrorRing_ClearThenPush(t *testing.T) {
	r := newErrorRing(2)
	r.push(errors.New("old"))
	r.push(errors.New("older"))
	r.clear()

	if r.all() != nil {
		t.Fatal("expected nil after clear")
	}

	r.push(errors.New("fresh"))
	got := r.all()
	if len(got) != 1 || got[0].Error() != "fresh" {
		t.Errorf("expected only the fresh error, got %v", got)
	}
}
