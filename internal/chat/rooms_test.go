package chat

import "testing"

func TestCanAccessInclusiveBounds(t *testing.T) {
	established, ok := RoomByID("established")
	if !ok {
		t.Fatal("established room missing from tier table")
	}
	reputable, ok := RoomByID("reputable")
	if !ok {
		t.Fatal("reputable room missing from tier table")
	}

	tests := []struct {
		score int
		room  Room
		want  bool
	}{
		{1350, established, true},
		{1350, reputable, false},
		{1200, established, true},  // lower bound inclusive
		{1599, established, true},  // upper bound inclusive
		{1199, established, false}, // just below
		{1600, established, false}, // just above
	}

	for _, tt := range tests {
		if got := CanAccess(tt.score, tt.room); got != tt.want {
			t.Errorf("CanAccess(%d, %s) = %v, want %v", tt.score, tt.room.ID, got, tt.want)
		}
	}
}

func TestRoomForScore(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{0, "untrusted"},
		{799, "untrusted"},
		{800, "neutral"},
		{1350, "established"},
		{1999, "reputable"},
		{2800, "exemplary"},
	}

	for _, tt := range tests {
		room, ok := RoomForScore(tt.score)
		if !ok {
			t.Errorf("RoomForScore(%d): no room", tt.score)
			continue
		}
		if room.ID != tt.want {
			t.Errorf("RoomForScore(%d) = %s, want %s", tt.score, room.ID, tt.want)
		}
	}

	if _, ok := RoomForScore(9999); ok {
		t.Error("score above every band should not resolve to a room")
	}
}

func TestTierTableIsContiguous(t *testing.T) {
	for i := 1; i < len(Rooms); i++ {
		prev, cur := Rooms[i-1], Rooms[i]
		if cur.MinScore != prev.MaxScore+1 {
			t.Errorf("gap between %s (max %d) and %s (min %d)",
				prev.ID, prev.MaxScore, cur.ID, cur.MinScore)
		}
	}
}
