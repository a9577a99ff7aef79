package commands

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gigbook/internal/database"
	"gigbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) (configPath, dbPath, dir string) {
	t.Helper()
	dir = t.TempDir()
	dbPath = filepath.Join(dir, "gigbook.db")
	configPath = filepath.Join(dir, "config.yaml")
	content := `
database:
  path: ` + dbPath + `
auth:
  dev_tokens:
    - token: dev
      email: dev@example.com
backup:
  storage_path: ` + filepath.Join(dir, "backups") + `
  retention_days: 7
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))
	return configPath, dbPath, dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func seedVenue(t *testing.T, dbPath string) {
	t.Helper()
	ctx := context.Background()
	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	au, err := db.UpsertUser(ctx, &models.Identity{Email: "a@example.com", Name: "A", Role: models.RoleArtist})
	require.NoError(t, err)
	vu, err := db.UpsertUser(ctx, &models.Identity{Email: "v@example.com", Name: "V", Role: models.RoleVenue})
	require.NoError(t, err)
	artist := &models.Artist{UserID: au.ID, Name: "A", Slug: "a"}
	require.NoError(t, db.CreateArtist(ctx, artist))
	venue := &models.Venue{UserID: vu.ID, Name: "V", Slug: "v"}
	require.NoError(t, db.CreateVenue(ctx, venue))
	require.NoError(t, db.CreateBooking(ctx, &models.Booking{
		ArtistID: artist.ID, VenueID: venue.ID, EventDate: time.Date(2025, 9, 12, 20, 0, 0, 0, time.UTC), Hours: 2,
	}))
}

func TestRoot_ShowsHelp(t *testing.T) {
	out, err := execute(t)
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "export-bookings")
}

func TestMigrate(t *testing.T) {
	cfgPath, dbPath, _ := writeConfig(t)

	out, err := execute(t, "--config", cfgPath, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, dbPath)
	assert.FileExists(t, dbPath)

	_, err = execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "migrate")
	assert.Error(t, err)
}

func TestSetRole(t *testing.T) {
	cfgPath, dbPath, _ := writeConfig(t)
	seedVenue(t, dbPath)

	out, err := execute(t, "--config", cfgPath, "set-role", "v@example.com", "admin")
	require.NoError(t, err)
	assert.Contains(t, out, "v@example.com is now admin")

	_, err = execute(t, "--config", cfgPath, "set-role", "nobody@example.com", "admin")
	assert.Error(t, err)
	_, err = execute(t, "--config", cfgPath, "set-role", "v@example.com", "root")
	assert.Error(t, err)
	_, err = execute(t, "--config", cfgPath, "set-role", "v@example.com")
	assert.Error(t, err)
}

func TestExportBookings(t *testing.T) {
	cfgPath, dbPath, dir := writeConfig(t)
	seedVenue(t, dbPath)
	outDir := filepath.Join(dir, "exports")

	out, err := execute(t, "--config", cfgPath, "export-bookings", "--venue", "v", "--from", "2025-09-01", "--out", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "exported 1 bookings")

	files, err := filepath.Glob(filepath.Join(outDir, "bookings_v_*.xlsx"))
	require.NoError(t, err)
	assert.Len(t, files, 1)

	_, err = execute(t, "--config", cfgPath, "export-bookings", "--venue", "missing", "--out", outDir)
	assert.Error(t, err)
	_, err = execute(t, "--config", cfgPath, "export-bookings", "--venue", "v", "--from", "01/09/2025")
	assert.Error(t, err)
	_, err = execute(t, "--config", cfgPath, "export-bookings")
	assert.Error(t, err, "venue flag is required")
}

func TestBackup(t *testing.T) {
	cfgPath, dbPath, dir := writeConfig(t)
	seedVenue(t, dbPath)

	out, err := execute(t, "--config", cfgPath, "backup")
	require.NoError(t, err)
	assert.Contains(t, out, "backup written to")

	files, err := filepath.Glob(filepath.Join(dir, "backups", "gigbook_*.db"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestDBOverride(t *testing.T) {
	cfgPath, _, dir := writeConfig(t)
	other := filepath.Join(dir, "other.db")

	_, err := execute(t, "--config", cfgPath, "--db", other, "migrate")
	require.NoError(t, err)
	assert.FileExists(t, other)
}
