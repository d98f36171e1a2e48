package event

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/taskflow/internal/clock"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	OrganizationCreatedTopic = "organization.created"
	OrganizationUpdatedTopic = "organization.updated"
	OrganizationDeletedTopic = "organization.deleted"
	MemberJoinedTopic        = "organization.member_joined"
	InvitationCreatedTopic   = "organization.invitation_created"
)

var ErrMissingOrganization = errors.New("missing organization_id")

// OutboxEvent is a domain event waiting to be relayed to consumers.
type OutboxEvent struct {
	ID        snowflake.ID   `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID   `gorm:"column:org_id;not null;index" json:"org_id"`
	EventType string         `gorm:"column:event_type;type:text;not null;index" json:"event_type"`
	Payload   datatypes.JSON `gorm:"type:json;not null" json:"payload"`
	Published bool           `gorm:"not null;default:false;index" json:"published"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (OutboxEvent) TableName() string { return "organization_events" }

// EventPublisher records events in the outbox. WithTx binds the write to
// the caller's transaction so the event commits with the state change.
type EventPublisher interface {
	WithTx(tx *gorm.DB) EventPublisher
	Publish(ctx context.Context, orgID snowflake.ID, topic string, payload any) error
}

type outboxPublisher struct {
	db    *gorm.DB
	genID *snowflake.Node
	clock clock.Clock
}

func NewOutboxPublisher(db *gorm.DB, genID *snowflake.Node, clk clock.Clock) EventPublisher {
	return &outboxPublisher{
		db:    db,
		genID: genID,
		clock: clk,
	}
}

func (p *outboxPublisher) WithTx(tx *gorm.DB) EventPublisher {
	return &outboxPublisher{db: tx, genID: p.genID, clock: p.clock}
}

func (p *outboxPublisher) Publish(ctx context.Context, orgID snowflake.ID, topic string, payload any) error {
	if orgID == 0 {
		return ErrMissingOrganization
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return p.db.WithContext(ctx).Create(&OutboxEvent{
		ID:        p.genID.Generate(),
		OrgID:     orgID,
		EventType: topic,
		Payload:   datatypes.JSON(data),
		CreatedAt: p.clock.Now(),
	}).Error
}

// Pending returns unpublished events, oldest first.
func Pending(ctx context.Context, db *gorm.DB, limit int) ([]OutboxEvent, error) {
	var events []OutboxEvent
	err := db.WithContext(ctx).
		Where("published = ?", false).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}
