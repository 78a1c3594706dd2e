package domain

import "fmt"

// Kind identifies which interaction family a subject belongs to.
type Kind int8

const (
	KindFollow Kind = iota + 1
	KindPostLike
	KindCommentLike
)

func (k Kind) String() string {
	switch k {
	case KindFollow:
		return "follow"
	case KindPostLike:
		return "post-like"
	case KindCommentLike:
		return "comment-like"
	default:
		return "unknown"
	}
}

// Counted reports whether subjects of this kind carry a like counter.
// Follow relationships have no counter of their own.
func (k Kind) Counted() bool {
	return k == KindPostLike || k == KindCommentLike
}

func (k Kind) Valid() bool {
	switch k {
	case KindFollow, KindPostLike, KindCommentLike:
		return true
	default:
		return false
	}
}

// ParseKind maps the wire representation back to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "follow":
		return KindFollow, nil
	case "post-like":
		return KindPostLike, nil
	case "comment-like":
		return KindCommentLike, nil
	default:
		return 0, ErrBadParamInput
	}
}

// Subject identifies what is being toggled: a user for Follow,
// a post for PostLike, a comment for CommentLike.
type Subject struct {
	Kind Kind
	ID   string
}

// NewSubject builds a Subject and validates it in one step.
func NewSubject(kind Kind, id string) (Subject, error) {
	s := Subject{Kind: kind, ID: id}
	if err := s.Validate(); err != nil {
		return Subject{}, err
	}
	return s, nil
}

// Validate rejects empty ids and unknown kinds before any cache
// mutation or gateway call can happen.
func (s Subject) Validate() error {
	if !s.Kind.Valid() || s.ID == "" {
		return ErrInvalidSubject
	}
	return nil
}

func (s Subject) String() string {
	return fmt.Sprintf("%s:%s", s.Kind, s.ID)
}
