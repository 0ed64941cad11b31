package value

import (
	"fmt"
	"testing"
)

// collectionSizes exercises both representations: under the promotion
// threshold, exactly at it, just past it and well over it.
var collectionSizes = []int{3, promoteThreshold, promoteThreshold + 1, 100}

func TestHashPutGetDelete(t *testing.T) {
	for _, size := range collectionSizes {
		t.Run(fmt.Sprintf("size=%d", size), func(t *testing.T) {
			h := &Hash{}
			for i := 0; i < size; i++ {
				if !h.Put(fmt.Sprintf("f%03d", i), []byte(fmt.Sprintf("v%d", i))) {
					t.Fatalf("Put f%03d reported update", i)
				}
			}
			if h.Len() != size {
				t.Fatalf("Len = %d, want %d", h.Len(), size)
			}
			if (h.large != nil) != (size > promoteThreshold) {
				t.Fatalf("promoted = %v at size %d", h.large != nil, size)
			}

			for i := 0; i < size; i++ {
				field := fmt.Sprintf("f%03d", i)
				v, ok := h.Get(field)
				if !ok || string(v) != fmt.Sprintf("v%d", i) {
					t.Fatalf("Get(%s) = %q, %v", field, v, ok)
				}
			}

			// Updates do not count as new fields.
			if h.Put("f000", []byte("updated")) {
				t.Fatal("update reported as insert")
			}
			if v, _ := h.Get("f000"); string(v) != "updated" {
				t.Fatalf("update lost: %q", v)
			}
			if h.Len() != size {
				t.Fatalf("Len changed on update: %d", h.Len())
			}

			if !h.Delete("f000") {
				t.Fatal("Delete existing failed")
			}
			if h.Delete("f000") {
				t.Fatal("Delete absent succeeded")
			}
			if h.Len() != size-1 {
				t.Fatalf("Len after delete = %d", h.Len())
			}
		})
	}
}

func TestHashWalkOrderMatchesAcrossForms(t *testing.T) {
	small := &Hash{}
	big := &Hash{}
	// Insert out of order; iteration must come back field-sorted in
	// both representations.
	fields := []string{"zeta", "alpha", "mu", "beta", "omega"}
	for _, f := range fields {
		small.Put(f, []byte(f))
		big.Put(f, []byte(f))
	}
	for i := 0; i < promoteThreshold+5; i++ {
		big.Put(fmt.Sprintf("pad%02d", i), []byte("x"))
	}
	if big.large == nil || small.large != nil {
		t.Fatal("unexpected representations")
	}

	var smallOrder, bigOrder []string
	small.Walk(func(fv FieldValue) bool {
		smallOrder = append(smallOrder, fv.Field)
		return true
	})
	big.Walk(func(fv FieldValue) bool {
		if fv.Field[0] != 'p' {
			bigOrder = append(bigOrder, fv.Field)
		}
		return true
	})
	if fmt.Sprint(smallOrder) != fmt.Sprint(bigOrder) {
		t.Fatalf("orders diverge: %v vs %v", smallOrder, bigOrder)
	}
	for i := 1; i < len(smallOrder); i++ {
		if smallOrder[i-1] >= smallOrder[i] {
			t.Fatalf("not sorted: %v", smallOrder)
		}
	}
}

func TestHashPromotionKeepsContent(t *testing.T) {
	h := &Hash{}
	for i := 0; i <= promoteThreshold; i++ {
		h.Put(fmt.Sprintf("f%02d", i), []byte(fmt.Sprintf("v%d", i)))
	}
	if h.large == nil {
		t.Fatal("no promotion past the threshold")
	}
	for i := 0; i <= promoteThreshold; i++ {
		v, ok := h.Get(fmt.Sprintf("f%02d", i))
		if !ok || string(v) != fmt.Sprintf("v%d", i) {
			t.Fatalf("field f%02d lost in promotion", i)
		}
	}
}
