package models

// Response represents a generic API response structure.
type Response struct {
	Success      int         `json:"success"`
	ErrorCode    string      `json:"error_code,omitempty"`
	ErrorDetails string      `json:"error_details,omitempty"`
	Data         interface{} `json:"data,omitempty"`
}

// GroupsResponse holds a list of groups.
type GroupsResponse struct {
	Groups []Group `json:"groups"`
}

// GroupMembersResponse holds the active members of a group.
type GroupMembersResponse struct {
	Members []Membership `json:"members"`
}

// GroupDetailResponse joins a group with its current cycle progress.
type GroupDetailResponse struct {
	Group        Group          `json:"group"`
	CurrentCycle *CycleProgress `json:"currentCycle,omitempty"`
}

// CycleHistoryResponse holds the completed cycles of a group.
type CycleHistoryResponse struct {
	Cycles []CompletedCycle `json:"cycles"`
}

// ContributionsResponse holds the contribution history of a cycle.
type ContributionsResponse struct {
	Contributions []Contribution `json:"contributions"`
}

// PayoutsResponse holds the payout history of a group.
type PayoutsResponse struct {
	Payouts []Payout `json:"payouts"`
}

// ContributionResponse reports the outcome of a contribution attempt.
type ContributionResponse struct {
	Contribution Contribution `json:"contribution"`
	CycleClosed  bool         `json:"cycleClosed"`
}
