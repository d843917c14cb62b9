package models

import "time"

type ConnectionStatus string

const (
	ConnectionStatusPending  ConnectionStatus = "pending"
	ConnectionStatusAccepted ConnectionStatus = "accepted"
	ConnectionStatusRejected ConnectionStatus = "rejected"
)

// ConnectionRequest is a directed edge from UserID (requester) to
// ConnectionID (target). Status is nil while pending, true once accepted and
// false once rejected.
type ConnectionRequest struct {
	ID           string    `json:"_id" bson:"_id" gorm:"primaryKey;size:24"`
	UserID       string    `json:"userId" bson:"userId" gorm:"uniqueIndex:idx_connection_pair;size:24;not null"`
	ConnectionID string    `json:"connectionId" bson:"connectionId" gorm:"uniqueIndex:idx_connection_pair;index;size:24;not null"`
	Status       *bool     `json:"status" bson:"status"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (r *ConnectionRequest) State() ConnectionStatus {
	switch {
	case r.Status == nil:
		return ConnectionStatusPending
	case *r.Status:
		return ConnectionStatusAccepted
	default:
		return ConnectionStatusRejected
	}
}

// ConnectionView is an edge with both endpoints resolved to public users
type ConnectionView struct {
	ID        string           `json:"_id"`
	Requester PublicUser       `json:"userId"`
	Target    PublicUser       `json:"connectionId"`
	Status    *bool            `json:"status"`
	State     ConnectionStatus `json:"state"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

func NewConnectionView(r *ConnectionRequest, requester, target PublicUser) ConnectionView {
	return ConnectionView{
		ID:        r.ID,
		Requester: requester,
		Target:    target,
		Status:    r.Status,
		State:     r.State(),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
