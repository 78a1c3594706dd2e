package response

import "github.com/midgard-blog/interaction-sync/domain"

const DateTimeFormat = "2006-01-02 15:04:05"

type Interaction struct {
	Kind            string `json:"kind"`
	SubjectID       string `json:"subject_id"`
	Active          bool   `json:"active"`
	Count           int64  `json:"count"`
	Pending         bool   `json:"pending"`
	LastConfirmedAt string `json:"last_confirmed_at,omitempty"`
}

// NewInteractionFromDomain: Domain -> Response
func NewInteractionFromDomain(subject domain.Subject, st domain.InteractionState) Interaction {
	res := Interaction{
		Kind:      subject.Kind.String(),
		SubjectID: subject.ID,
		Active:    st.Active,
		Count:     st.Count,
		Pending:   st.Pending,
	}
	if !st.LastConfirmedAt.IsZero() {
		res.LastConfirmedAt = st.LastConfirmedAt.Format(DateTimeFormat)
	}
	return res
}

type ToggleOutcome struct {
	Kind      string `json:"kind"`
	SubjectID string `json:"subject_id"`
	Active    bool   `json:"active"`
	Count     int64  `json:"count"`
	Reverted  bool   `json:"reverted"`
	Skipped   bool   `json:"skipped"`
	Message   string `json:"message,omitempty"`
}

func NewToggleOutcome(res domain.ToggleResult, message string) ToggleOutcome {
	return ToggleOutcome{
		Kind:      res.Subject.Kind.String(),
		SubjectID: res.Subject.ID,
		Active:    res.Active,
		Count:     res.Count,
		Reverted:  res.Reverted,
		Skipped:   res.Skipped,
		Message:   message,
	}
}

type FollowStats struct {
	UserID      string `json:"user_id"`
	Followers   int64  `json:"followers"`
	Following   int64  `json:"following"`
	IsFollowing bool   `json:"is_following"`
}

func NewFollowStatsFromDomain(stats domain.FollowStats) FollowStats {
	return FollowStats{
		UserID:      stats.UserID,
		Followers:   stats.Followers,
		Following:   stats.Following,
		IsFollowing: stats.IsFollowing,
	}
}

// Event is the SSE payload carried by the /events stream, the wire
// equivalent of the cross-window "followStatusChanged" broadcast.
type Event struct {
	Kind      string `json:"kind"`
	SubjectID string `json:"subject_id"`
	Active    bool   `json:"active"`
	Count     int64  `json:"count"`
	Pending   bool   `json:"pending"`
}

func NewEventFromDomain(subject domain.Subject, st domain.InteractionState) Event {
	return Event{
		Kind:      subject.Kind.String(),
		SubjectID: subject.ID,
		Active:    st.Active,
		Count:     st.Count,
		Pending:   st.Pending,
	}
}
