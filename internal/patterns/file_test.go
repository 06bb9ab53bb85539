package patterns

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_ScalarOrList(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "patterns.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
name: 'Insured:\s*([A-Za-z\s]+?)$'
insurance:
  - 'Carrier:\s*([A-Za-z0-9\s]+?)$'
  - 'Plan:\s*([A-Za-z0-9\s]+?)$'
`), 0o600))

	got, err := LoadFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, []string{`Insured:\s*([A-Za-z\s]+?)$`}, got["name"])
	assert.Equal(t, []string{`Carrier:\s*([A-Za-z0-9\s]+?)$`, `Plan:\s*([A-Za-z0-9\s]+?)$`}, got["insurance"])

	jsonPath := filepath.Join(dir, "patterns.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{
  "name": "Insured:\\s*([A-Za-z\\s]+?)$",
  "member_id": ["Member ID:\\s*(\\w+)", "Member #\\s*(\\w+)"]
}`), 0o600))

	got, err = LoadFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, []string{`Insured:\s*([A-Za-z\s]+?)$`}, got["name"])
	assert.Equal(t, []string{`Member ID:\s*(\w+)`, `Member #\s*(\w+)`}, got["member_id"])
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name:\n  nested: value\n"), 0o600))
	_, err = LoadFile(bad)
	assert.Error(t, err)

	badJSON := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badJSON, []byte(`{"name": 42}`), 0o600))
	_, err = LoadFile(badJSON)
	assert.Error(t, err)
}

func TestFromSettings(t *testing.T) {
	tests := []struct {
		name    string
		raw     any
		want    map[string][]string
		wantErr bool
	}{
		{
			name: "nil",
			raw:  nil,
			want: map[string][]string{},
		},
		{
			name: "viper style map",
			raw: map[string]any{
				"name":      `Insured:\s*(.+)$`,
				"insurance": []any{`Carrier:\s*(.+)$`, `Plan:\s*(.+)$`},
			},
			want: map[string][]string{
				"name":      {`Insured:\s*(.+)$`},
				"insurance": {`Carrier:\s*(.+)$`, `Plan:\s*(.+)$`},
			},
		},
		{
			name: "string map",
			raw:  map[string]string{"name": `Insured:\s*(.+)$`},
			want: map[string][]string{"name": {`Insured:\s*(.+)$`}},
		},
		{
			name:    "non string item",
			raw:     map[string]any{"name": []any{1}},
			wantErr: true,
		},
		{
			name:    "not a map",
			raw:     "name",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromSettings(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
