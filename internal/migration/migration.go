package migration

import (
	"errors"
	"fmt"

	authdomain "github.com/smallbiznis/taskflow/internal/auth/domain"
	invitationdomain "github.com/smallbiznis/taskflow/internal/invitation/domain"
	orgdomain "github.com/smallbiznis/taskflow/internal/organization/domain"
	"github.com/smallbiznis/taskflow/internal/organization/event"
	"gorm.io/gorm"
)

// Models lists every table owned by the service. The casbin_rule table is
// managed by the policy adapter.
func Models() []any {
	return []any{
		&authdomain.User{},
		&authdomain.Session{},
		&orgdomain.Organization{},
		&orgdomain.OrganizationMember{},
		&invitationdomain.Invitation{},
		&event.OutboxEvent{},
	}
}

// RunMigrations creates or updates the schema in place.
func RunMigrations(db *gorm.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
