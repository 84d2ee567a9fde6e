package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parcelhub/parcelhub-backend/pkg/migrate"
)

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations dir failed validation: %v", err)
	}
}

func TestLogisticsSchemaMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_logistics_schema.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no logistics schema migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TYPE package_status AS ENUM",
		"CREATE UNIQUE INDEX packages_tracking_code_lower_uniq",
		"ON packages (lower(tracking_code))",
		"REFERENCES packages(id)",
		"WHERE consumed_at IS NULL",
		"DROP TABLE IF EXISTS packages",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
