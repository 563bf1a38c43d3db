package entity

import "time"

// BlacklistEntry is a known-phishing domain in the local blacklist.
type BlacklistEntry struct {
	Domain  string    `json:"domain"`
	Source  string    `json:"source,omitempty"`
	AddedAt time.Time `json:"added_at"`
}

// WhitelistEntry is a curated high-value domain. Whitelisted domains are
// both a scoring override (forced LOW) and the reference set for the
// domain-similarity check.
type WhitelistEntry struct {
	Domain  string    `json:"domain"`
	AddedAt time.Time `json:"added_at"`
}

// ListStats summarizes the local list tables.
type ListStats struct {
	BlacklistCount int `json:"blacklist_count"`
	WhitelistCount int `json:"whitelist_count"`
}
