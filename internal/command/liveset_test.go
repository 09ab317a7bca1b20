package command

import "testing"

func TestLiveSetAdmitsUpToCeiling(t *testing.T) {
	ls := NewLiveSet(2)
	if !ls.TryAdmit("a") {
		t.Fatal("expected a to be admitted")
	}
	if !ls.TryAdmit("b") {
		t.Fatal("expected b to be admitted")
	}
	if ls.TryAdmit("c") {
		t.Fatal("expected c to be rejected at ceiling")
	}
	if ls.Size() != 2 {
		t.Errorf("Size() = %d, want 2", ls.Size())
	}
	if !ls.AtCeiling() {
		t.Error("expected AtCeiling to be true")
	}
}

func TestLiveSetRejectsDuplicateID(t *testing.T) {
	ls := NewLiveSet(3)
	ls.TryAdmit("a")
	if ls.TryAdmit("a") {
		t.Fatal("expected duplicate id to be rejected")
	}
}

func TestLiveSetReleaseFreesSlot(t *testing.T) {
	ls := NewLiveSet(1)
	ls.TryAdmit("a")
	ls.Release("a")
	if !ls.TryAdmit("b") {
		t.Fatal("expected slot to be free after release")
	}
}

func TestLiveSetContains(t *testing.T) {
	ls := NewLiveSet(2)
	if ls.Contains("a") {
		t.Fatal("expected a to be absent before admission")
	}
	ls.TryAdmit("a")
	if !ls.Contains("a") {
		t.Fatal("expected a to be present after admission")
	}
	ls.Release("a")
	if ls.Contains("a") {
		t.Fatal("expected a to be absent after release")
	}
}
