package model

// Connection is a verified link between a creator and one platform account.
type Connection struct {
	Platform Platform `json:"platform" yaml:"platform"`
	// FollowerCount is nil when the platform did not report a count.
	FollowerCount *int64 `json:"follower_count,omitempty" yaml:"follower_count,omitempty"`
}

// Followers returns the follower count with unknown and negative values as zero.
func (c Connection) Followers() int64 {
	if c.FollowerCount == nil || *c.FollowerCount < 0 {
		return 0
	}
	return *c.FollowerCount
}

// Snapshot is the profile plus connection state a score is computed from.
// Nil string fields are absent. A snapshot is assembled fresh for every
// computation and never mutated by the engine.
type Snapshot struct {
	DisplayName   *string      `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	AvatarURL     *string      `json:"avatar_url,omitempty" yaml:"avatar_url,omitempty"`
	Bio           *string      `json:"bio,omitempty" yaml:"bio,omitempty"`
	Username      *string      `json:"username,omitempty" yaml:"username,omitempty"`
	EmailVerified bool         `json:"email_verified" yaml:"email_verified"`
	Connections   []Connection `json:"connections,omitempty" yaml:"connections,omitempty"`
}

// Breakdown is the itemized score. Total is the clamped, rounded sum of the
// four components.
type Breakdown struct {
	ProfilePoints    int `json:"profile_points" yaml:"profile_points"`
	EmailPoints      int `json:"email_points" yaml:"email_points"`
	ConnectionPoints int `json:"connection_points" yaml:"connection_points"`
	AudiencePoints   int `json:"audience_points" yaml:"audience_points"`
	Total            int `json:"total" yaml:"total"`
}

// Ptr returns a pointer to v, for building snapshots with optional fields.
func Ptr[T any](v T) *T {
	return &v
}
