package requests

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brettbedarf/stagefs"
)

const yamlPlan = `
- id: first
  kind: mkdir
  path: /src
- kind: writeFile
  path: /src/index.ts
  text: export {}
- kind: moveDir
  path: /src
  dest: /lib
  immediate: true
- kind: save
`

const jsonPlan = `{"steps": [
	{"id": "first", "kind": "mkdir", "path": "/src"},
	{"kind": "writeFile", "path": "/src/index.ts", "text": "export {}"},
	{"kind": "moveDir", "path": "/src", "dest": "/lib", "immediate": true},
	{"kind": "save"}
]}`

func TestUnmarshalPlan(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		format string
		data   string
	}{
		{YAMLFormat, yamlPlan},
		{JSONFormat, jsonPlan},
	} {
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()
			steps, err := UnmarshalPlan([]byte(tt.data), tt.format)
			require.NoError(t, err)
			require.Len(t, steps, 4)

			assert.Equal(t, "first", steps[0].ID)
			assert.Equal(t, stagefs.MkdirStep, steps[0].Kind)

			_, err = uuid.Parse(steps[1].ID)
			assert.NoError(t, err, "missing ids default to a uuid")
			assert.Equal(t, "export {}", steps[1].Text)

			assert.Equal(t, "/lib", steps[2].Dest)
			assert.True(t, steps[2].Immediate)

			assert.Equal(t, stagefs.SaveStep, steps[3].Kind)
			assert.Equal(t, "/", steps[3].Path)
		})
	}
}

func TestUnmarshalPlan_WrappedYAMLAndBareJSON(t *testing.T) {
	t.Parallel()

	steps, err := UnmarshalPlan([]byte("steps:\n  - kind: mkdir\n    path: /a\n"), YAMLFormat)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, "/a", steps[0].Path)

	steps, err = UnmarshalPlan([]byte(` [{"kind": "deleteFile", "path": "/a.ts"}]`), JSONFormat)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, stagefs.DeleteFileStep, steps[0].Kind)

	steps, err = UnmarshalPlan(nil, YAMLFormat)
	require.NoError(t, err)
	assert.Empty(t, steps)
}

func TestUnmarshalPlan_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{"unknown kind", `[{"kind": "rename", "path": "/a"}]`},
		{"missing kind", `[{"path": "/a"}]`},
		{"missing path", `[{"kind": "mkdir"}]`},
		{"missing dest", `[{"kind": "copyDir", "path": "/a"}]`},
		{"immediate mkdir", `[{"kind": "mkdir", "path": "/a", "immediate": true}]`},
		{"malformed", `[{"kind": `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := UnmarshalPlan([]byte(tt.data), JSONFormat)
			assert.Error(t, err)
		})
	}

	_, err := UnmarshalPlan([]byte(`[]`), "toml")
	assert.Error(t, err)
}

func TestUnmarshalStepRequest(t *testing.T) {
	t.Parallel()

	step, err := UnmarshalStepRequest([]byte(`{"id": "x", "kind": "moveFile", "path": "/a.ts", "dest": "/b.ts", "text": "t"}`))
	require.NoError(t, err)
	assert.Equal(t, &stagefs.StepRequest{
		ID:   "x",
		Kind: stagefs.MoveFileStep,
		Path: "/a.ts",
		Dest: "/b.ts",
		Text: "t",
	}, step)
}

func TestLoadPlanFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	yml := filepath.Join(dir, "plan.yml")
	require.NoError(t, os.WriteFile(yml, []byte(yamlPlan), 0o644))
	steps, err := LoadPlanFile(yml)
	require.NoError(t, err)
	assert.Len(t, steps, 4)

	js := filepath.Join(dir, "plan.json")
	require.NoError(t, os.WriteFile(js, []byte(jsonPlan), 0o644))
	steps, err = LoadPlanFile(js)
	require.NoError(t, err)
	assert.Len(t, steps, 4)

	txt := filepath.Join(dir, "plan.txt")
	require.NoError(t, os.WriteFile(txt, []byte(jsonPlan), 0o644))
	_, err = LoadPlanFile(txt)
	assert.Error(t, err)

	_, err = LoadPlanFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
