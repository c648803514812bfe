package domain

type Tier int

const (
	TierPrimary Tier = iota
	TierFallback
)

func (t Tier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierFallback:
		return "fallback"
	default:
		return "unknown"
	}
}
