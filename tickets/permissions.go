package tickets

import "github.com/bwmarrin/discordgo"

// ChannelAccess is granted to the requester and the support role on a
// ticket channel.
const ChannelAccess = discordgo.PermissionViewChannel |
	discordgo.PermissionSendMessages |
	discordgo.PermissionReadMessageHistory

// Overwrites hides the channel from @everyone (whose role ID equals the
// guild ID) and opens it to the requester and, when set, the support role.
func Overwrites(guildID, requesterID, supportRoleID string) []*discordgo.PermissionOverwrite {
	ow := []*discordgo.PermissionOverwrite{
		{ID: guildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
		{ID: requesterID, Type: discordgo.PermissionOverwriteTypeMember, Allow: ChannelAccess},
	}
	if supportRoleID != "" {
		ow = append(ow, &discordgo.PermissionOverwrite{
			ID: supportRoleID, Type: discordgo.PermissionOverwriteTypeRole, Allow: ChannelAccess,
		})
	}
	return ow
}

func HasRole(m *discordgo.Member, roleID string) bool {
	if m == nil || roleID == "" {
		return false
	}
	for _, r := range m.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

func hasPermission(m *discordgo.Member, perm int64) bool {
	if m == nil {
		return false
	}
	return m.Permissions&discordgo.PermissionAdministrator != 0 || m.Permissions&perm != 0
}

// CanPostPrompt gates setup_ticket and list_tickets.
func CanPostPrompt(m *discordgo.Member, supportRoleID string) bool {
	return hasPermission(m, discordgo.PermissionManageServer) || HasRole(m, supportRoleID)
}

// CanClose gates the close button: the requester, support staff, or anyone
// who can manage channels.
func CanClose(m *discordgo.Member, requesterID, supportRoleID string) bool {
	if m == nil || m.User == nil {
		return false
	}
	if requesterID != "" && m.User.ID == requesterID {
		return true
	}
	return HasRole(m, supportRoleID) || hasPermission(m, discordgo.PermissionManageChannels)
}

// CanAdminister gates force_close and transcripts.
func CanAdminister(m *discordgo.Member) bool {
	return hasPermission(m, discordgo.PermissionManageServer)
}
