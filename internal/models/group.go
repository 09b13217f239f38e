package models

// AccountGroup collects accounts under one reporting currency.
// Names are unique.
type AccountGroup struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// GroupMember is one account-to-group assignment.
type GroupMember struct {
	GroupID   int64 `json:"group_id"`
	AccountID int64 `json:"account_id"`
}

// GroupMapping is a group together with the ids of its active member accounts.
type GroupMapping struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Currency   string  `json:"currency"`
	AccountIDs []int64 `json:"account_ids"`
}

// BuildGroupMappings joins groups with their members, keeping only the
// accounts for which keep returns true. Every group appears, in the order
// given, with an empty (non-nil) id list when it has no members.
func BuildGroupMappings(groups []*AccountGroup, members []GroupMember, keep func(accountID int64) bool) []*GroupMapping {
	byGroup := make(map[int64][]int64, len(groups))
	for _, m := range members {
		if keep == nil || keep(m.AccountID) {
			byGroup[m.GroupID] = append(byGroup[m.GroupID], m.AccountID)
		}
	}

	out := make([]*GroupMapping, 0, len(groups))
	for _, g := range groups {
		ids := byGroup[g.ID]
		if ids == nil {
			ids = []int64{}
		}
		out = append(out, &GroupMapping{ID: g.ID, Name: g.Name, Currency: g.Currency, AccountIDs: ids})
	}
	return out
}
