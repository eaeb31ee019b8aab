package promo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alfredjeanlab/lots/internal/model"
)

type countingSource struct {
	calls map[int64]int
	lots  []model.Lot
	err   error
}

func (s *countingSource) Promoted(_ context.Context, categoryID int64) ([]model.Lot, error) {
	if s.calls == nil {
		s.calls = map[int64]int{}
	}
	s.calls[categoryID]++
	return s.lots, s.err
}

func ids(lots []model.Lot) []int64 {
	out := make([]int64, len(lots))
	for i, l := range lots {
		out[i] = l.ID
	}
	return out
}

func seq(from, n int) []model.Lot {
	out := make([]model.Lot, n)
	for i := range out {
		out[i] = model.Lot{ID: int64(from + i)}
	}
	return out
}

func TestCache_HitsPerCategory(t *testing.T) {
	src := &countingSource{lots: seq(100, 2)}
	c := NewCache(src, time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.Promoted(ctx, 7); err != nil {
			t.Fatalf("Promoted() error = %v", err)
		}
	}
	if _, err := c.Promoted(ctx, 8); err != nil {
		t.Fatalf("Promoted() error = %v", err)
	}
	if src.calls[7] != 1 || src.calls[8] != 1 {
		t.Errorf("calls = %v, want one per category", src.calls)
	}

	c.Invalidate(7)
	_, _ = c.Promoted(ctx, 7)
	if src.calls[7] != 2 {
		t.Errorf("calls after invalidate = %d, want 2", src.calls[7])
	}
}

func TestCache_ErrorsNotCached(t *testing.T) {
	src := &countingSource{err: errors.New("down")}
	c := NewCache(src, time.Minute, nil)

	for i := 0; i < 2; i++ {
		if _, err := c.Promoted(context.Background(), 1); err == nil {
			t.Fatal("Promoted() error = nil")
		}
	}
	if src.calls[1] != 2 {
		t.Errorf("calls = %d, want 2", src.calls[1])
	}
}

func TestCache_Expiry(t *testing.T) {
	src := &countingSource{lots: seq(1, 1)}
	c := NewCache(src, 10*time.Millisecond, nil)

	_, _ = c.Promoted(context.Background(), 1)
	time.Sleep(30 * time.Millisecond)
	_, _ = c.Promoted(context.Background(), 1)
	if src.calls[1] != 2 {
		t.Errorf("calls = %d, want 2 after expiry", src.calls[1])
	}
}

func TestInterleave(t *testing.T) {
	tests := []struct {
		name     string
		items    []model.Lot
		promoted []model.Lot
		every    int
		want     []int64
	}{
		{
			name:     "cadence",
			items:    seq(1, 7),
			promoted: seq(100, 1),
			every:    3,
			want:     []int64{1, 2, 3, 100, 4, 5, 6, 100, 7},
		},
		{
			name:     "cycles promoted",
			items:    seq(1, 4),
			promoted: seq(100, 2),
			every:    1,
			want:     []int64{1, 100, 2, 101, 3, 100, 4, 101},
		},
		{
			name:     "no promoted",
			items:    seq(1, 3),
			promoted: nil,
			every:    1,
			want:     []int64{1, 2, 3},
		},
		{
			name:     "skips duplicates",
			items:    seq(1, 2),
			promoted: []model.Lot{{ID: 2}, {ID: 100}},
			every:    2,
			want:     []int64{1, 2, 100},
		},
		{
			name:     "default cadence",
			items:    seq(1, 5),
			promoted: seq(100, 1),
			every:    0,
			want:     []int64{1, 2, 3, 4, 5, 100},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Interleave(tt.items, tt.promoted, tt.every))
			if len(got) != len(tt.want) {
				t.Fatalf("Interleave() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Interleave() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestInterleave_MarksPromotedWithoutMutating(t *testing.T) {
	promoted := seq(100, 1)
	out := Interleave(seq(1, 1), promoted, 1)
	if !out[1].Promoted {
		t.Error("interleaved lot not marked promoted")
	}
	if promoted[0].Promoted {
		t.Error("input slice modified")
	}
}
