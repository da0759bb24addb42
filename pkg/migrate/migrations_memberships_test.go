package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mfigueroa-dev/clubcore-backend/pkg/migrate"
)

func TestMembershipsMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_memberships.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no memberships migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS memberships",
		"FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE",
		"CONSTRAINT memberships_stripe_subscription_id_key UNIQUE (stripe_subscription_id)",
		"DROP TABLE IF EXISTS memberships",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestRegistrationTokensMigrationUsesTokenPrimaryKey(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_registration_tokens.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no registration tokens migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	if !strings.Contains(content, "token TEXT PRIMARY KEY") {
		t.Error("registration token migration must keep token as the primary key")
	}
}

func TestValidateDirAcceptsCurrentMigrations(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations directory failed validation: %v", err)
	}
}
