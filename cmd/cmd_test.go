package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type workspace struct {
	dir    string
	config string
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	content := "database:\n  path: " + filepath.Join(dir, "food.db") + "\n"
	require.NoError(t, os.WriteFile(cfg, []byte(content), 0o600))
	return &workspace{dir: dir, config: cfg}
}

func (w *workspace) file(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(w.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (w *workspace) run(args ...string) (string, error) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--config", w.config))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestImportReportAndCheck(t *testing.T) {
	w := newWorkspace(t)
	providers := w.file(t, "providers_data.csv",
		"Provider_ID,Name,Type,Address,City,Contact\n1,A,Restaurant,X,NYC,555\n2,B,Grocery Store,Y,NYC,\n")
	listings := w.file(t, "food_listings_data.csv",
		"Food_ID,Food_Name,Quantity,Expiry_Date,Provider_ID,Provider_Type,Location,Food_Type,Meal_Type\n"+
			"1,Bread,10,2099-01-01,1,Restaurant,NYC,Vegetarian,Lunch\n")

	out, err := w.run("import", providers, listings)
	require.NoError(t, err, out)
	assert.Contains(t, out, "providers_data.csv -> providers (2, 6)")
	assert.Contains(t, out, "food_listings_data.csv -> food_listings (1, 9)")

	out, err = w.run("report", "1")
	require.NoError(t, err, out)
	assert.Contains(t, out, "NYC")
	assert.Contains(t, out, "total_providers")

	out, err = w.run("report", "provider-contacts", "--city", "NYC")
	require.NoError(t, err, out)
	assert.Contains(t, out, "555")

	out, err = w.run("check")
	require.NoError(t, err, out)
	assert.Contains(t, out, "references: ok")
}

func TestImportFailsOnUnrecognizedFile(t *testing.T) {
	w := newWorkspace(t)
	notes := w.file(t, "notes.csv", "a,b\n1,2\n")

	out, err := w.run("import", notes)
	require.Error(t, err)
	assert.Contains(t, out, "notes.csv: unrecognized file")
}

func TestReportCatalogAndErrors(t *testing.T) {
	w := newWorkspace(t)

	out, err := w.run("report")
	require.NoError(t, err)
	assert.Contains(t, out, "near-expiry")
	assert.Contains(t, out, "unclaimed-listings")

	_, err = w.run("report", "17")
	assert.Error(t, err)
}

func TestMigrate(t *testing.T) {
	w := newWorkspace(t)

	_, err := w.run("migrate")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(w.dir, "food.db"))
	assert.NoError(t, err)
}

func TestReportRejectsExplicitZeroDays(t *testing.T) {
	w := newWorkspace(t)
	t.Cleanup(func() {
		reportDays = 0
		reportCmd.Flags().Lookup("days").Changed = false
	})

	_, err := w.run("report", "15", "--days", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "days must be between 1 and 30")

	_, err = w.run("report", "15", "--days", "30")
	require.NoError(t, err)
}
