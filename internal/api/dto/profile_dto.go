package dto

import "time"

// ProfileRequest payload for create and rename.
type ProfileRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// GrantRequest names one permission as "resource:action".
type GrantRequest struct {
	Permission string `json:"permission"`
}

// ReplaceGrantsRequest replaces a profile's grant set.
type ReplaceGrantsRequest struct {
	Permissions []string `json:"permissions"`
}

// PagesRequest replaces a profile's page allowlist.
type PagesRequest struct {
	PageIDs []int64 `json:"page_ids"`
}

// ProfileResponse summary.
type ProfileResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProfileDetailResponse includes grants, pages and members.
type ProfileDetailResponse struct {
	ProfileResponse
	Permissions []string `json:"permissions"`
	PageIDs     []int64  `json:"page_ids"`
	MemberIDs   []int64  `json:"member_ids"`
}
