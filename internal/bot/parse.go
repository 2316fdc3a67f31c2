package bot

import (
	"strings"

	"airdrop_bot/internal/model"
)

// ParsePlatformArgs parses the argument string of /set_preferences.
// An empty string selects all known platforms.
func ParsePlatformArgs(args string) ([]model.Platform, error) {
	return model.ParsePlatforms(strings.Fields(args))
}

func platformUsage() string {
	return joinPlatformNames(model.KnownPlatforms())
}

func joinPlatformNames(platforms []model.Platform) string {
	names := make([]string, len(platforms))
	for i, p := range platforms {
		names[i] = string(p)
	}
	return strings.Join(names, " ")
}
