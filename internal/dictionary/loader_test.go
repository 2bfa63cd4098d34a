package dictionary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	return dir
}

var baseFiles = map[string]string{
	"projects.json": `{
    "DuoChat": {
      "alias": "DC",
      "campaign_objective": "App promotion",
      "application_id": "x:123456",
      "object_store_url": "https://play.google.com/store/apps/details?id=com.duo",
      "account_names": ["DuoChat Main", "DuoChat Backup"],
      "beneficiary": {"default": "Duo Ltd", "taiwan": "Duo TW"}
    }
  }`,
	"accounts.json":   `{"DuoChat Main": "act_111", "DuoChat Backup": "222"}`,
	"objectives.json": `{"App promotion": "OUTCOME_APP_PROMOTION"}`,
	"tiers.yaml": `
Tier3: [IN, ID]
Tier1: [US, CA]
LatAm: [BR, MX]
`,
	"events.yml":       "4 sessions: session_started_4\n",
	"event_types.json": `{"session_started_4": "OTHER"}`,
	"languages.json":   `{"Spanish": "es"}`,
	"locales.json":     `{"es": [6005, 23]}`,
}

func TestLoad(t *testing.T) {
	b, err := Load(writeFiles(t, baseFiles))
	require.NoError(t, err)

	assert.Equal(t, []string{"Tier3", "Tier1", "LatAm"}, b.Tiers.Keys(), "file order kept")

	p, err := b.Project("DuoChat")
	require.NoError(t, err)
	assert.Equal(t, "DC", p.Alias)
	assert.Equal(t, "123456", p.AppID())
	assert.Equal(t, "Duo TW", p.Beneficiary.For([]string{"US", "TW"}))
	assert.Equal(t, "Duo Ltd", p.Beneficiary.For([]string{"US"}))

	name, id, err := b.Account(p, "")
	require.NoError(t, err)
	assert.Equal(t, "DuoChat Main", name)
	assert.Equal(t, "111", id)

	_, id, err = b.Account(p, "DuoChat Backup")
	require.NoError(t, err)
	assert.Equal(t, "222", id)

	obj, err := b.Objective("App promotion")
	require.NoError(t, err)
	assert.Equal(t, "OUTCOME_APP_PROMOTION", obj)

	code, err := b.EventCode("4 sessions")
	require.NoError(t, err)
	typ, err := b.EventType(code)
	require.NoError(t, err)
	assert.Equal(t, "OTHER", typ)

	lang, err := b.Language("Spanish")
	require.NoError(t, err)
	assert.Equal(t, []int{6005, 23}, b.LocaleIDs(lang))
	assert.Nil(t, b.LocaleIDs("fr"))
}

func TestLoad_UnknownKeys(t *testing.T) {
	b, err := Load(writeFiles(t, baseFiles))
	require.NoError(t, err)

	_, err = b.Project("Nope")
	assert.ErrorIs(t, err, ErrUnknownKey)

	var le *LookupError
	_, err = b.Language("Klingon")
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "languages", le.Table)
	assert.Equal(t, "Klingon", le.Key)

	_, _, err = b.Account(Project{Alias: "X"}, "")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestLoad_MissingRequired(t *testing.T) {
	files := map[string]string{}
	for k, v := range baseFiles {
		if k != "tiers.yaml" {
			files[k] = v
		}
	}
	_, err := Load(writeFiles(t, files))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_OptionalAbsent(t *testing.T) {
	files := map[string]string{}
	for _, k := range []string{"projects.json", "accounts.json", "objectives.json", "tiers.yaml"} {
		files[k] = baseFiles[k]
	}
	b, err := Load(writeFiles(t, files))
	require.NoError(t, err)
	assert.Nil(t, b.Events)
	assert.Nil(t, b.CountryGroups)
}

func TestLoad_BadTiers(t *testing.T) {
	files := map[string]string{}
	for k, v := range baseFiles {
		files[k] = v
	}
	files["tiers.yaml"] = "- US\n- CA\n"
	_, err := Load(writeFiles(t, files))
	assert.Error(t, err)

	files["tiers.yaml"] = "Tier1: [USA]\n"
	_, err = Load(writeFiles(t, files))
	assert.Error(t, err)
}
