package segset

import "testing"

func TestPushBackAndLen(t *testing.T) {
	var p Pair[int]
	p.PushBack(1)
	p.PushBack(2)
	if p.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", p.Len())
	}
	if p.Index(0) != 1 || p.Index(1) != 2 {
		t.Fatalf("unexpected contents: %v %v", p.Index(0), p.Index(1))
	}
}

func TestPushBackBeyondCapacityAborts(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on third PushBack")
		}
	}()
	var p Pair[int]
	p.PushBack(1)
	p.PushBack(2)
	p.PushBack(3)
}

func TestAtChecked(t *testing.T) {
	p := Of(10, 20)
	if v, ok := p.At(1); !ok || v != 20 {
		t.Fatalf("At(1) = %v, %v; want 20, true", v, ok)
	}
	if _, ok := p.At(2); ok {
		t.Fatal("At(2) should report false on a Pair holding only 2 elements")
	}
}

func TestReserveBeyondCapacityAborts(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on Reserve(3)")
		}
	}()
	var p Pair[int]
	p.Reserve(3)
}

func TestClear(t *testing.T) {
	p := Of(1, 2)
	p.Clear()
	if p.Len() != 0 {
		t.Fatalf("Len() after Clear = %d, want 0", p.Len())
	}
}

func TestEqual(t *testing.T) {
	a := Of(1, 2)
	b := Of(1, 2)
	c := Of(1, 3)
	eq := func(x, y int) bool { return x == y }
	if !a.Equal(&b, eq) {
		t.Fatal("expected a == b")
	}
	if a.Equal(&c, eq) {
		t.Fatal("expected a != c")
	}
}

func TestIsUsingStackStorage(t *testing.T) {
	var p Pair[int]
	if !p.IsUsingStackStorage() {
		t.Fatal("Pair must report stack storage")
	}
}
