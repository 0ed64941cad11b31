package value

import (
	"fmt"
	"testing"
)

func TestZSetAddScoreRemove(t *testing.T) {
	for _, size := range collectionSizes {
		t.Run(fmt.Sprintf("size=%d", size), func(t *testing.T) {
			z := &ZSet{}
			for i := 0; i < size; i++ {
				if !z.Add(float64(i%5), fmt.Sprintf("m%03d", i)) {
					t.Fatalf("Add m%03d reported update", i)
				}
			}
			if z.Len() != size {
				t.Fatalf("Len = %d", z.Len())
			}

			// Same score again: no-op, not a new member.
			if z.Add(0, "m000") {
				t.Fatal("re-add with same score reported new")
			}
			// Score update moves the member, cardinality unchanged.
			if z.Add(99, "m000") {
				t.Fatal("score update reported new member")
			}
			if s, ok := z.Score("m000"); !ok || s != 99 {
				t.Fatalf("Score after update = %v, %v", s, ok)
			}
			if z.Len() != size {
				t.Fatalf("Len after update = %d", z.Len())
			}

			if !z.Remove("m000") || z.Remove("m000") {
				t.Fatal("Remove not idempotent")
			}
			if _, ok := z.Score("m000"); ok {
				t.Fatal("score survives removal")
			}
		})
	}
}

func TestZSetWalkOrder(t *testing.T) {
	for _, size := range collectionSizes {
		z := &ZSet{}
		for i := size - 1; i >= 0; i-- {
			// Duplicate scores force the member tiebreak.
			z.Add(float64(i%3), fmt.Sprintf("m%03d", i))
		}
		var prev ZEntry
		i := 0
		z.Walk(func(e ZEntry) bool {
			if i > 0 {
				if e.Score < prev.Score || (e.Score == prev.Score && e.Member <= prev.Member) {
					t.Fatalf("size %d: order broken: %+v then %+v", size, prev, e)
				}
			}
			prev = e
			i++
			return true
		})
		if i != size {
			t.Fatalf("walked %d of %d", i, size)
		}
	}
}

func TestZSetPromotionKeepsScores(t *testing.T) {
	z := &ZSet{}
	for i := 0; i <= promoteThreshold; i++ {
		z.Add(float64(i)*1.5, fmt.Sprintf("m%02d", i))
	}
	if z.large == nil {
		t.Fatal("no promotion past the threshold")
	}
	for i := 0; i <= promoteThreshold; i++ {
		s, ok := z.Score(fmt.Sprintf("m%02d", i))
		if !ok || s != float64(i)*1.5 {
			t.Fatalf("score m%02d = %v, %v", i, s, ok)
		}
	}
}
