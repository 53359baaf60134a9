package domain

// DirectionTable maps each direction token onto its opposite. It is
// built once at startup and handed to the traversal engine by value;
// nothing mutates it afterwards.
type DirectionTable map[string]string

// DefaultDirections returns the four cardinal directions and their
// opposites as used by the room content.
func DefaultDirections() DirectionTable {
	return DirectionTable{
		"n": "s",
		"e": "w",
		"s": "n",
		"w": "e",
	}
}

// Opposite resolves the return direction for a doorway.
func (t DirectionTable) Opposite(direction string) (string, bool) {
	opposite, ok := t[direction]
	return opposite, ok
}

// Doorway is a directed, riddle-gated edge from one room towards a
// neighboring room. The room on the far side is not referenced
// directly; it is found by matching the opposite direction and the
// same riddle on another room's edge set.
type Doorway struct {
	Direction string
	RiddleID  string
	Level     int
}

// Room is a node of the labyrinth graph. Rooms are static content and
// read-only from the game engine's perspective.
type Room struct {
	ID        string
	Number    int
	Coords    *string
	GameID    string
	Neighbors []Doorway
	Entry     bool
	Exit      bool
}

// FileVariant is an alternative rendering of a riddle asset, e.g. a
// retina scale.
type FileVariant struct {
	Name       string
	ObjectName string
	Scale      int
}

// RiddleFile references a blob-store object attached to a riddle.
type RiddleFile struct {
	ObjectName string
	Name       string
	MimeType   string
	Width      *int
	Height     *int
	Scale      *int
	Variants   []FileVariant
}

// Riddle is the puzzle gating a doorway.
type Riddle struct {
	ID         string
	Level      int
	Difficulty int
	Deduction  *int
	IgnoreCase bool
	Solution   string
	Task       *string
	Debriefing *string
	Credits    *string
	Files      []RiddleFile
}

// EffectiveDeduction returns the score penalty for a wrong answer.
// Riddles without an explicit deduction penalize half the difficulty.
func (r Riddle) EffectiveDeduction() int {
	if r.Deduction != nil {
		return *r.Deduction
	}
	return r.Difficulty / 2
}
