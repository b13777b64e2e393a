package tickets

import "strings"

// ChannelName derives "ticket-<name>-<suffix>". Accounts migrated to unique
// usernames report discriminator "0"; they get the last four digits of
// their ID instead.
func ChannelName(username, discriminator, userID string) string {
	suffix := discriminator
	if suffix == "" || suffix == "0" {
		suffix = userID
		if len(suffix) > 4 {
			suffix = suffix[len(suffix)-4:]
		}
	}
	name := strings.ReplaceAll(strings.ToLower("ticket-"+username), " ", "-")
	return name + "-" + suffix
}
