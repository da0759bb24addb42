package enums

import "fmt"

// SponsorTier orders sponsors into display tiers.
type SponsorTier string

const (
	SponsorTierPlatinum SponsorTier = "platinum"
	SponsorTierGold     SponsorTier = "gold"
	SponsorTierSilver   SponsorTier = "silver"
	SponsorTierBronze   SponsorTier = "bronze"
)

var validSponsorTiers = []SponsorTier{
	SponsorTierPlatinum,
	SponsorTierGold,
	SponsorTierSilver,
	SponsorTierBronze,
}

// String implements fmt.Stringer.
func (s SponsorTier) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SponsorTier.
func (s SponsorTier) IsValid() bool {
	for _, candidate := range validSponsorTiers {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSponsorTier converts raw input into a SponsorTier.
func ParseSponsorTier(value string) (SponsorTier, error) {
	for _, candidate := range validSponsorTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sponsor tier %q", value)
}
