package domain

import "context"

// FollowStats mirrors the remote platform's follow counters for a user.
type FollowStats struct {
	UserID      string
	Followers   int64
	Following   int64
	IsFollowing bool
}

// InteractionGateway is the remote HTTP boundary behind which all
// persistence and business rules live. Every call shares the
// {success, data?, error?} envelope.
type InteractionGateway interface {
	FollowUser(ctx context.Context, userID string) (CallResult, error)
	UnfollowUser(ctx context.Context, userID string) (CallResult, error)
	CheckFollowStatus(ctx context.Context, userID string) (bool, error)
	GetFollowStats(ctx context.Context, userID string) (FollowStats, error)

	LikePost(ctx context.Context, postID string) (CallResult, error)
	UnlikePost(ctx context.Context, postID string) (CallResult, error)
	LikeComment(ctx context.Context, commentID string) (CallResult, error)
	UnlikeComment(ctx context.Context, commentID string) (CallResult, error)
}

// StatsProvider serves follow counters for profile panels and keeps
// them fresh after follow relationships change.
type StatsProvider interface {
	Start(ctx context.Context)

	// Notify schedules a refresh of the user's counters once the
	// backend has had time to settle.
	Notify(userID string)

	// Get returns the cached counters, fetching them on first use.
	Get(ctx context.Context, userID string) (FollowStats, error)
}
