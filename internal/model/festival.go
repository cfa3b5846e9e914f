package model

// Festival is a perk-driven event series. The set is closed: adding a
// festival means adding a constant here and a branch in
// Election.DeriveEvents.
type Festival int

const (
	FestivalNone Festival = iota
	FishingFestival
	MiningFiesta
	MythologicalRitual
	ChivalrousCarnival
)

// festivalPriority is the order in which perks are checked.
var festivalPriority = [...]Festival{
	FishingFestival,
	MiningFiesta,
	MythologicalRitual,
	ChivalrousCarnival,
}

// String returns the perk name granting f.
func (f Festival) String() string {
	switch f {
	case FishingFestival:
		return "Fishing Festival"
	case MiningFiesta:
		return "Mining Fiesta"
	case MythologicalRitual:
		return "Mythological Ritual"
	case ChivalrousCarnival:
		return "Chivalrous Carnival"
	default:
		return ""
	}
}
