package chat

// Room is a chat channel gated by an inclusive reputation score range.
// Rooms are static reference data and never mutated at runtime.
type Room struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MinScore    int    `json:"minScore"`
	MaxScore    int    `json:"maxScore"`
	Description string `json:"description"`
}

// Rooms is the static tier table, mirroring the credibility score bands
// of the reputation network (0-2800 overall range).
var Rooms = []Room{
	{
		ID:          "untrusted",
		Name:        "Untrusted",
		MinScore:    0,
		MaxScore:    799,
		Description: "New or flagged accounts. Build your reputation to unlock more rooms.",
	},
	{
		ID:          "neutral",
		Name:        "Neutral",
		MinScore:    800,
		MaxScore:    1199,
		Description: "Baseline credibility. Most new verified users start here.",
	},
	{
		ID:          "established",
		Name:        "Established",
		MinScore:    1200,
		MaxScore:    1599,
		Description: "Verified contributors with a track record of positive interactions.",
	},
	{
		ID:          "reputable",
		Name:        "Reputable",
		MinScore:    1600,
		MaxScore:    1999,
		Description: "Highly trusted members recognized for consistent credibility.",
	},
	{
		ID:          "exemplary",
		Name:        "Exemplary",
		MinScore:    2000,
		MaxScore:    2800,
		Description: "Top-tier credibility. The most trusted voices in the ecosystem.",
	},
}

// CanAccess reports whether a score qualifies for a room. Both bounds are inclusive.
func CanAccess(score int, room Room) bool {
	return score >= room.MinScore && score <= room.MaxScore
}

// RoomForScore returns the room whose score band contains the given score.
func RoomForScore(score int) (Room, bool) {
	for _, room := range Rooms {
		if CanAccess(score, room) {
			return room, true
		}
	}
	return Room{}, false
}

// RoomByID looks up a room in the tier table by its identifier.
func RoomByID(id string) (Room, bool) {
	for _, room := range Rooms {
		if room.ID == id {
			return room, true
		}
	}
	return Room{}, false
}
