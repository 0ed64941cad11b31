package art

import (
	"fmt"
	"testing"

	"github.com/yndnr/radixkv-go/internal/storage/value"
)

func TestLazyExpiration(t *testing.T) {
	tr := New()
	tr.SetNow(1000)
	tr.SetWithDeadline([]byte("tmp"), value.NewString([]byte("x")), 1500)
	tr.Set([]byte("keep"), value.NewString([]byte("y")))

	if tr.Get([]byte("tmp")) == nil {
		t.Fatal("tmp should be live before the deadline")
	}

	tr.SetNow(1501)
	if tr.Get([]byte("tmp")) != nil {
		t.Fatal("tmp should be gone past the deadline")
	}
	if tr.Get([]byte("keep")) == nil {
		t.Fatal("keep lost")
	}
	// The lazy read evicted the node.
	checkInvariants(t, tr)
	if tr.Count() != 1 {
		t.Fatalf("count = %d", tr.Count())
	}
}

func TestDeadlineLifecycle(t *testing.T) {
	tr := New()
	tr.SetNow(1000)
	tr.Set([]byte("k"), value.NewString([]byte("v")))

	if _, ok := tr.Deadline([]byte("missing")); ok {
		t.Fatal("deadline of missing key")
	}
	d, ok := tr.Deadline([]byte("k"))
	if !ok || d != NoExpiry {
		t.Fatalf("fresh key deadline = %d, %v", d, ok)
	}

	if !tr.SetDeadline([]byte("k"), 2000) {
		t.Fatal("set deadline failed")
	}
	if !tr.nodes.isTagged(mustIdx(t, tr, "k")) {
		t.Fatal("node not tagged after deadline")
	}
	d, ok = tr.Deadline([]byte("k"))
	if !ok || d != 2000 {
		t.Fatalf("deadline = %d, %v", d, ok)
	}

	// PERSIST: true once, then a no-op.
	if !tr.ClearDeadline([]byte("k")) {
		t.Fatal("clear deadline failed")
	}
	if tr.nodes.isTagged(mustIdx(t, tr, "k")) {
		t.Fatal("node still tagged after persist")
	}
	if tr.ClearDeadline([]byte("k")) {
		t.Fatal("second persist should be a no-op")
	}
	if tr.ClearDeadline([]byte("missing")) {
		t.Fatal("persist on missing key")
	}

	// Replacing a value with plain Set clears the expiration.
	tr.SetDeadline([]byte("k"), 2000)
	tr.Set([]byte("k"), value.NewString([]byte("v2")))
	if d, _ := tr.Deadline([]byte("k")); d != NoExpiry {
		t.Fatalf("set did not clear expiration: %d", d)
	}
}

func mustIdx(t *testing.T, tr *Tree, key string) uint32 {
	t.Helper()
	idx, ok := tr.traverse([]byte(key))
	if !ok {
		t.Fatalf("key %q not found", key)
	}
	return idx
}

func TestSetDeadlineOnExpired(t *testing.T) {
	tr := New()
	tr.SetNow(1000)
	tr.SetWithDeadline([]byte("k"), value.NewString([]byte("v")), 1100)
	tr.SetNow(1200)
	if tr.SetDeadline([]byte("k"), 5000) {
		t.Fatal("set deadline on expired key succeeded")
	}
	if tr.ClearDeadline([]byte("k")) {
		t.Fatal("persist on expired key succeeded")
	}
}

func TestEvictExpiredSweep(t *testing.T) {
	tr := New()
	tr.SetNow(1000)

	for i := 0; i < 200; i++ {
		key := []byte(fmt.Sprintf("exp:%03d", i))
		tr.SetWithDeadline(key, value.NewString([]byte("x")), 1100)
	}
	for i := 0; i < 50; i++ {
		key := []byte(fmt.Sprintf("live:%03d", i))
		tr.SetWithDeadline(key, value.NewString([]byte("x")), 1_000_000)
	}
	tr.Set([]byte("permanent"), value.NewString([]byte("x")))

	tr.SetNow(2000)
	cfg := DefaultSweepConfig()
	total := 0
	// Each cycle is bounded; repeating cycles must eventually drain the
	// expired population and never touch live keys. Sampling is with
	// replacement, so a cycle can come up empty while stragglers remain.
	for i := 0; i < 1000 && tr.Count() > 51; i++ {
		total += tr.EvictExpired(cfg)
	}
	if total != 200 {
		t.Fatalf("evicted %d, want 200", total)
	}
	checkInvariants(t, tr)
	if tr.Count() != 51 {
		t.Fatalf("count = %d, want 51", tr.Count())
	}
	if got := tr.EvictExpired(cfg); got != 0 {
		t.Fatalf("sweep of live keys evicted %d", got)
	}
}

func TestSweepBoundedRounds(t *testing.T) {
	tr := New()
	tr.SetNow(1000)
	for i := 0; i < 10_000; i++ {
		tr.SetWithDeadline([]byte(fmt.Sprintf("k%05d", i)), value.NewString([]byte("x")), 1100)
	}
	tr.SetNow(2000)

	cfg := SweepConfig{SampleSize: 20, Threshold: 5, MaxRounds: 3}
	if n := tr.EvictExpired(cfg); n > cfg.SampleSize*cfg.MaxRounds {
		t.Fatalf("one cycle evicted %d, exceeds %d", n, cfg.SampleSize*cfg.MaxRounds)
	}
}

func TestExpireTagsForSampling(t *testing.T) {
	tr := New()
	tr.SetNow(1000)
	tr.Set([]byte("k"), value.NewString([]byte("v")))

	// EXPIRE on a key stored without a TTL must make it visible to the
	// sweep's sampling population.
	if !tr.SetDeadline([]byte("k"), 1100) {
		t.Fatal("expire failed")
	}
	tr.SetNow(1200)
	if n := tr.EvictExpired(DefaultSweepConfig()); n != 1 {
		t.Fatalf("sweep evicted %d, want 1", n)
	}
	if tr.Get([]byte("k")) != nil {
		t.Fatal("key survived sweep")
	}
}
