package entities

import "time"

// BanEntry is one row of the ban list or the blacklist, keyed by DiscordID.
type BanEntry struct {
	DiscordID string     `json:"discordId"`
	Reason    string     `json:"reason"`
	Admin     string     `json:"admin"`
	Date      time.Time  `json:"date"`
	Expires   *time.Time `json:"expires,omitempty"`
}

// ActiveAt reports whether the entry still applies at now.
func (b *BanEntry) ActiveAt(now time.Time) bool {
	return b.Expires == nil || now.Before(*b.Expires)
}
