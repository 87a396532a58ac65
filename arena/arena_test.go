package arena

import (
	"math/rand"
	"testing"

	"go.viam.com/test"
)

type handle int32

type payload struct {
	name  string
	value int
	list  []int
}

func TestAllocateAndGet(t *testing.T) {
	a := NewWithBlockSize[handle, payload](4)
	test.That(t, a.Len(), test.ShouldEqual, 0)
	test.That(t, a.Cap(), test.ShouldEqual, 0)

	var handles []handle
	for i := 0; i < 10; i++ {
		h, p := a.AllocateWith(payload{value: i})
		test.That(t, p.value, test.ShouldEqual, i)
		handles = append(handles, h)
	}
	test.That(t, a.Len(), test.ShouldEqual, 10)
	test.That(t, a.Cap(), test.ShouldEqual, 12)
	test.That(t, a.Slots(), test.ShouldEqual, 10)

	for i, h := range handles {
		test.That(t, int(h), test.ShouldEqual, i)
		test.That(t, a.Get(h).value, test.ShouldEqual, i)
	}

	t.Run("pointers are stable across growth", func(t *testing.T) {
		first := a.Get(handles[0])
		for i := 0; i < 100; i++ {
			a.Allocate()
		}
		test.That(t, a.Get(handles[0]), test.ShouldEqual, first)
	})
}

func TestDeleteIsIdempotent(t *testing.T) {
	a := New[handle, payload]()
	h, _ := a.Allocate()
	test.That(t, a.IsDeleted(h), test.ShouldBeFalse)
	test.That(t, a.Delete(h), test.ShouldBeTrue)
	test.That(t, a.IsDeleted(h), test.ShouldBeTrue)
	test.That(t, a.Delete(h), test.ShouldBeFalse)
	test.That(t, a.Len(), test.ShouldEqual, 0)
}

func TestReuseResetsPayload(t *testing.T) {
	a := NewWithBlockSize[handle, payload](2)
	h1, p := a.Allocate()
	p.name = "dirty"
	p.value = 42
	p.list = []int{1, 2, 3}
	h2, _ := a.Allocate()
	h3, _ := a.Allocate()

	a.Delete(h2)
	a.Delete(h1)

	// freed slots come back first-in first-out
	r1, p1 := a.Allocate()
	test.That(t, r1, test.ShouldEqual, h2)
	test.That(t, *p1, test.ShouldResemble, payload{})
	r2, p2 := a.Allocate()
	test.That(t, r2, test.ShouldEqual, h1)
	test.That(t, *p2, test.ShouldResemble, payload{})
	test.That(t, a.IsDeleted(r2), test.ShouldBeFalse)

	r3, _ := a.Allocate()
	test.That(t, r3, test.ShouldEqual, h3+1)
}

func TestIterationSkipsDeleted(t *testing.T) {
	a := NewWithBlockSize[handle, payload](3)
	for i := 0; i < 9; i++ {
		a.AllocateWith(payload{value: i})
	}
	a.Delete(1)
	a.Delete(4)
	a.Delete(8)

	var seen []int
	for h, p := range a.All() {
		test.That(t, a.IsDeleted(h), test.ShouldBeFalse)
		seen = append(seen, p.value)
	}
	test.That(t, seen, test.ShouldResemble, []int{0, 2, 3, 5, 6, 7})

	t.Run("restartable", func(t *testing.T) {
		var again []handle
		for h := range a.Handles() {
			again = append(again, h)
		}
		test.That(t, again, test.ShouldResemble, []handle{0, 2, 3, 5, 6, 7})
	})

	t.Run("early stop", func(t *testing.T) {
		count := 0
		for range a.Handles() {
			count++
			if count == 2 {
				break
			}
		}
		test.That(t, count, test.ShouldEqual, 2)
	})
}

func TestRandomChurnKeepsSize(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	a := NewWithBlockSize[handle, payload](16)
	live := map[handle]bool{}
	allocations, deletions := 0, 0

	for i := 0; i < 5000; i++ {
		if len(live) == 0 || rng.Intn(3) != 0 {
			h, p := a.Allocate()
			test.That(t, *p, test.ShouldResemble, payload{})
			p.value = i
			live[h] = true
			allocations++
			continue
		}
		for h := range live {
			test.That(t, a.Delete(h), test.ShouldBeTrue)
			delete(live, h)
			deletions++
			break
		}
	}

	test.That(t, a.Len(), test.ShouldEqual, allocations-deletions)
	count := 0
	for h := range a.Handles() {
		test.That(t, live[h], test.ShouldBeTrue)
		count++
	}
	test.That(t, count, test.ShouldEqual, len(live))
}

func TestContractViolationsPanic(t *testing.T) {
	a := New[handle, payload]()
	h, _ := a.Allocate()

	test.That(t, func() { a.Get(5) }, test.ShouldPanic)
	test.That(t, func() { a.Get(-1) }, test.ShouldPanic)
	test.That(t, func() { a.Delete(9) }, test.ShouldPanic)

	a.Delete(h)
	test.That(t, func() { a.Get(h) }, test.ShouldPanic)
	test.That(t, a.Valid(h), test.ShouldBeFalse)
	test.That(t, a.Valid(100), test.ShouldBeFalse)
	test.That(t, func() { NewWithBlockSize[handle, payload](0) }, test.ShouldPanic)
}
