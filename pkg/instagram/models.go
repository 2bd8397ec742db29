package instagram

// ProfileResponse represents the top-level response from the
// web_profile_info endpoint
type ProfileResponse struct {
	RequiresToLogin bool   `json:"requires_to_login"`
	Data            Data   `json:"data"`
	Status          string `json:"status"`
}

// Data wraps the user information in the response
type Data struct {
	User *User `json:"user"`
}

// User represents an Instagram user profile as returned upstream
type User struct {
	ID                string    `json:"id"`
	Username          string    `json:"username"`
	FullName          string    `json:"full_name"`
	Biography         string    `json:"biography"`
	ExternalURL       string    `json:"external_url"`
	ProfilePicURL     string    `json:"profile_pic_url"`
	ProfilePicURLHD   string    `json:"profile_pic_url_hd"`
	IsVerified        bool      `json:"is_verified"`
	IsPrivate         bool      `json:"is_private"`
	IsBusinessAccount bool      `json:"is_business_account"`
	CategoryName      string    `json:"category_name"`
	FollowedBy        EdgeCount `json:"edge_followed_by"`
	Follow            EdgeCount `json:"edge_follow"`
	TimelineMedia     EdgeCount `json:"edge_owner_to_timeline_media"`
}

// EdgeCount carries one of the count edges of the profile payload
type EdgeCount struct {
	Count int64 `json:"count"`
}
