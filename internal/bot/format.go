package bot

import (
	"fmt"
	"strings"

	"airdrop_bot/internal/model"
)

const deadlineLayout = "2006-01-02 15:04 UTC"

// FormatNotification renders one combined notification message. Offers are
// expected in platform order with deadlines ascending within each platform.
func FormatNotification(offers []model.Offer) string {
	var b strings.Builder
	b.WriteString("New Airdrop Notifications:\n")

	var current model.Platform
	for _, o := range offers {
		if o.Platform != current {
			current = o.Platform
			fmt.Fprintf(&b, "\n%s:\n", strings.ToUpper(string(current)))
		}
		fmt.Fprintf(&b, "- %s", o.Name)
		if o.Description != "" {
			fmt.Fprintf(&b, ": %s", o.Description)
		}
		fmt.Fprintf(&b, "\n  Deadline: %s\n", o.Deadline.Format(deadlineLayout))
	}
	return b.String()
}

// FormatOfferList renders the /list_airdrops reply for the user's platforms.
func FormatOfferList(platforms []model.Platform, offersByPlatform map[model.Platform][]model.Offer) string {
	total := 0
	for _, offers := range offersByPlatform {
		total += len(offers)
	}
	if total == 0 {
		return "No airdrops are currently known for your platforms. Check back later!"
	}

	var b strings.Builder
	b.WriteString("Current Airdrops:\n")
	for _, platform := range platforms {
		offers := offersByPlatform[platform]
		if len(offers) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s:\n", strings.ToUpper(string(platform)))
		for _, o := range offers {
			fmt.Fprintf(&b, "- %s", o.Name)
			if o.Description != "" {
				fmt.Fprintf(&b, ": %s", o.Description)
			}
			fmt.Fprintf(&b, " (until %s)\n", o.Deadline.Format(deadlineLayout))
		}
	}
	return b.String()
}
