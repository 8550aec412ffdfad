package session

import "testing"

func TestPlacementsAliveFirstThenScore(t *testing.T) {
	placed := rankPlacements([]Placement{
		{UID: "a", Score: 10, Alive: false},
		{UID: "b", Score: 5, Alive: true},
		{UID: "c", Score: 20, Alive: false},
	})

	want := []string{"b", "c", "a"}
	for i, uid := range want {
		if placed[i].UID != uid {
			t.Fatalf("placement %d = %s, expected %s (order %v)", i+1, placed[i].UID, uid, placed)
		}
		if placed[i].Rank != i+1 {
			t.Errorf("rank of %s = %d, expected %d", placed[i].UID, placed[i].Rank, i+1)
		}
	}
}

func TestPlacementsTiesAreStableByUID(t *testing.T) {
	a := rankPlacements([]Placement{
		{UID: "z", Score: 7, Alive: false},
		{UID: "a", Score: 7, Alive: false},
		{UID: "m", Score: 7, Alive: false},
	})
	b := rankPlacements([]Placement{
		{UID: "m", Score: 7, Alive: false},
		{UID: "z", Score: 7, Alive: false},
		{UID: "a", Score: 7, Alive: false},
	})

	for i := range a {
		if a[i].UID != b[i].UID {
			t.Fatalf("tie order depends on input order: %v vs %v", a, b)
		}
	}
	if a[0].UID != "a" || a[1].UID != "m" || a[2].UID != "z" {
		t.Errorf("tied scores should rank by uid, got %v", a)
	}
}

func TestPlacementsMultipleSurvivors(t *testing.T) {
	placed := rankPlacements([]Placement{
		{UID: "a", Score: 3, Alive: true},
		{UID: "b", Score: 9, Alive: true},
		{UID: "c", Score: 30, Alive: false},
	})

	if placed[0].UID != "b" || placed[1].UID != "a" || placed[2].UID != "c" {
		t.Errorf("expected survivors ranked by score above any dead player, got %v", placed)
	}
}
