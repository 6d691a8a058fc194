package policy

// EpicProfile recognizes the Epic Games Launcher storefront.
type EpicProfile struct{}

// NewEpicProfile creates an Epic Games profile.
func NewEpicProfile() *EpicProfile {
	return &EpicProfile{}
}

func (p *EpicProfile) ID() string {
	return "epic"
}

func (p *EpicProfile) Name() string {
	return "Epic Games Launcher"
}

func (p *EpicProfile) ProcessPatterns() []string {
	return []string{
		"EpicGamesLauncher",
		"EpicWebHelper",
	}
}

// Ensure EpicProfile implements AppProfile.
var _ AppProfile = (*EpicProfile)(nil)
