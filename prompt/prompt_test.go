package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mailmesh/internal/util"
)

func TestDefault(t *testing.T) {
	c := Default()

	require.NoError(t, c.Validate())
	assert.Contains(t, c.BriefDrafter, "--CONTENT BRIEF--")
	assert.Contains(t, c.Editor, "APPROVED")
	assert.Contains(t, c.Clarifier, "one question")
}

func TestDefault_RendersWithDeclaredReads(t *testing.T) {
	c := Default()

	out, err := util.RenderTemplate(c.Editor, map[string]any{"email_draft": `{"Title":"x"}`, "user_feedback": ""})
	require.NoError(t, err)
	assert.Contains(t, out, `{"Title":"x"}`)
	assert.NotContains(t, out, "The user asked for these changes")

	out, err = util.RenderTemplate(c.BriefDrafter, map[string]any{"brief_feedback": "make it shorter"})
	require.NoError(t, err)
	assert.Contains(t, out, "make it shorter")
}

func TestLoad_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("editor: |\n  Be terse. {{.email_draft}}\n"), 0o600))

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Be terse. {{.email_draft}}\n", c.Editor)
	assert.Equal(t, Default().Clarifier, c.Clarifier)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown key", content: "editr: x\n"},
		{name: "bad template", content: "editor: \"{{.x\"\n"},
		{name: "blanked entry", content: "editor: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_EmptyPath(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}
