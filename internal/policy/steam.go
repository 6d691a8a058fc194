package policy

// SteamProfile recognizes the Steam store client.
type SteamProfile struct{}

// NewSteamProfile creates a Steam profile.
func NewSteamProfile() *SteamProfile {
	return &SteamProfile{}
}

func (p *SteamProfile) ID() string {
	return "steam"
}

func (p *SteamProfile) Name() string {
	return "Steam"
}

// ProcessPatterns returns Steam process names.
// These are the known process names on macOS and Linux.
func (p *SteamProfile) ProcessPatterns() []string {
	return []string{
		"steam_osx",
		"steamwebhelper",
		"Steam Helper",
		"steam",
	}
}

// Ensure SteamProfile implements AppProfile.
var _ AppProfile = (*SteamProfile)(nil)
