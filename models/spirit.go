package models

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SpiritStatus string

const (
	SpiritOpen      SpiritStatus = "open"
	SpiritClaimed   SpiritStatus = "claimed"
	SpiritCompleted SpiritStatus = "completed"
	SpiritClosed    SpiritStatus = "closed"
)

var SpiritStatuses = []SpiritStatus{SpiritOpen, SpiritClaimed, SpiritCompleted, SpiritClosed}

func (s SpiritStatus) Valid() bool {
	for _, v := range SpiritStatuses {
		if s == v {
			return true
		}
	}
	return false
}

func (s SpiritStatus) Terminal() bool {
	return s == SpiritCompleted || s == SpiritClosed
}

type SpiritAction string

const (
	SpiritClaim    SpiritAction = "claim"
	SpiritRelease  SpiritAction = "release"
	SpiritComplete SpiritAction = "complete"
	SpiritClose    SpiritAction = "close"
)

var (
	ErrInvalidTransition = errors.New("spirit post is not in a state that allows this action")
	ErrNotAllowed        = errors.New("user is not allowed to perform this action")
)

// Actor is the authenticated user performing an operation.
type Actor struct {
	ID    primitive.ObjectID
	Admin bool
}

// SpiritPost is a task on the board. Version is bumped by the store on every write and
// used as the compare-and-swap token.
type SpiritPost struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	AuthorID        primitive.ObjectID  `bson:"authorId" json:"authorId"`
	Title           string              `bson:"title" json:"title"`
	Description     string              `bson:"description" json:"description"`
	DescriptionHTML string              `bson:"descriptionHtml" json:"descriptionHtml"`
	Reward          string              `bson:"reward" json:"reward"`
	Tags            []string            `bson:"tags" json:"tags"`
	Status          SpiritStatus        `bson:"status" json:"status"`
	ClaimerID       *primitive.ObjectID `bson:"claimerId,omitempty" json:"claimerId,omitempty"`
	ClaimedAt       int64               `bson:"claimedAt,omitempty" json:"claimedAt,omitempty"`
	CompletedAt     int64               `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	ClosedAt        int64               `bson:"closedAt,omitempty" json:"closedAt,omitempty"`
	Version         int64               `bson:"version" json:"version"`
	CreatedAt       int64               `bson:"createdAt" json:"createdAt"`
	UpdatedAt       int64               `bson:"updatedAt" json:"updatedAt"`

	Author  *PublicUser `bson:"-" json:"author,omitempty"`
	Claimer *PublicUser `bson:"-" json:"claimer,omitempty"`
}

func (p *SpiritPost) IsAuthor(id primitive.ObjectID) bool {
	return p.AuthorID == id
}

func (p *SpiritPost) IsClaimer(id primitive.ObjectID) bool {
	return p.ClaimerID != nil && *p.ClaimerID == id
}

// IsParticipant reports whether a can read and write the post's message thread.
func (p *SpiritPost) IsParticipant(a Actor) bool {
	return a.Admin || p.IsAuthor(a.ID) || p.IsClaimer(a.ID)
}

// Counterparty returns the other side of the conversation for id.
func (p *SpiritPost) Counterparty(id primitive.ObjectID) (primitive.ObjectID, bool) {
	switch {
	case p.IsAuthor(id) && p.ClaimerID != nil:
		return *p.ClaimerID, true
	case p.IsClaimer(id):
		return p.AuthorID, true
	}
	return primitive.NilObjectID, false
}

// AcceptsMessages is true once someone has claimed the post and it was not
// released or closed before completion.
func (p *SpiritPost) AcceptsMessages() bool {
	return p.ClaimerID != nil && (p.Status == SpiritClaimed || p.Status == SpiritCompleted)
}

func (p *SpiritPost) canManage(a Actor) bool {
	return a.Admin || p.IsAuthor(a.ID)
}

// Apply performs action on p in memory. Callers persist the result with a
// version-checked write so that concurrent actions cannot both succeed.
func (p *SpiritPost) Apply(action SpiritAction, a Actor, now int64) error {
	switch action {
	case SpiritClaim:
		if p.IsAuthor(a.ID) {
			return ErrNotAllowed
		}
		if p.Status != SpiritOpen {
			return ErrInvalidTransition
		}
		id := a.ID
		p.ClaimerID = &id
		p.ClaimedAt = now
		p.Status = SpiritClaimed

	case SpiritRelease:
		if !a.Admin && !p.IsClaimer(a.ID) {
			return ErrNotAllowed
		}
		if p.Status != SpiritClaimed {
			return ErrInvalidTransition
		}
		p.ClaimerID = nil
		p.ClaimedAt = 0
		p.Status = SpiritOpen

	case SpiritComplete:
		if !p.canManage(a) {
			return ErrNotAllowed
		}
		if p.Status != SpiritClaimed {
			return ErrInvalidTransition
		}
		p.CompletedAt = now
		p.Status = SpiritCompleted

	case SpiritClose:
		if !p.canManage(a) {
			return ErrNotAllowed
		}
		if p.Status.Terminal() {
			return ErrInvalidTransition
		}
		p.ClosedAt = now
		p.Status = SpiritClosed

	default:
		return ErrInvalidTransition
	}
	p.UpdatedAt = now
	return nil
}

// Editable reports whether the author may still change the task text.
func (p *SpiritPost) Editable() bool {
	return p.Status == SpiritOpen
}
