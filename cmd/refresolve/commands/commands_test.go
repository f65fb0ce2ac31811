package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/speakeasy-api/openapi-refs/document"
	"github.com/speakeasy-api/openapi-refs/jsonpointer"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSpec = `openapi: 3.1.0
paths:
  /pets:
    get:
      responses:
        "200":
          description: pets
          content:
            application/json:
              schema:
                $ref: "#/components/schemas/Pets"
components:
  schemas:
    Pets:
      type: array
      items:
        $ref: "./schemas/pet.yaml#/Pet"
    Node:
      type: object
      properties:
        next:
          $ref: "#/components/schemas/Node"
`

const testPetSchema = `Pet:
  type: object
  properties:
    owner:
      $ref: "#/Owner"
Owner:
  type: object
  properties:
    name:
      type: string
`

const testBrokenSpec = `openapi: 3.1.0
components:
  schemas:
    Pet:
      $ref: "#/components/schemas/Missing"
    Owner:
      $ref: "./missing.yaml"
`

const testSiblingSpec = `openapi: 3.1.0
components:
  schemas:
    A:
      $ref: "#/components/schemas/B"
      description: extra
    B:
      type: string
`

type testCLI struct {
	root   *cobra.Command
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestCLI(stdin string) *testCLI {
	root := &cobra.Command{Use: "refresolve", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	Apply(root)

	cli := &testCLI{root: root, stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(cli.stdout)
	root.SetErr(cli.stderr)
	return cli
}

func (c *testCLI) run(t *testing.T, args ...string) error {
	t.Helper()

	c.root.SetArgs(args)
	return c.root.ExecuteContext(t.Context())
}

func writeTestSpec(t *testing.T, spec string) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "schemas"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schemas", "pet.yaml"), []byte(testPetSchema), 0o644))

	file := filepath.Join(dir, "openapi.yaml")
	require.NoError(t, os.WriteFile(file, []byte(spec), 0o644))
	return file
}

func decodeOutput(t *testing.T, out []byte) any {
	t.Helper()

	tree, err := document.Decode(out)
	require.NoError(t, err)
	return tree
}

func valueAt(t *testing.T, tree any, pointer jsonpointer.JSONPointer) any {
	t.Helper()

	v, err := jsonpointer.GetTarget(tree, pointer)
	require.NoError(t, err)
	return v
}

func TestResolve_Success(t *testing.T) {
	t.Parallel()

	cli := newTestCLI("")
	require.NoError(t, cli.run(t, "resolve", writeTestSpec(t, testSpec)))

	out := decodeOutput(t, cli.stdout.Bytes())
	schema := "/paths/~1pets/get/responses/200/content/application~1json/schema"
	assert.Equal(t, "array", valueAt(t, out, jsonpointer.JSONPointer(schema+"/type")))
	assert.Equal(t, "object", valueAt(t, out, jsonpointer.JSONPointer(schema+"/items/type")))
	assert.Equal(t, "string", valueAt(t, out, jsonpointer.JSONPointer(schema+"/items/properties/owner/properties/name/type")))

	// recursive schemas keep their reference
	assert.Equal(t, "#/components/schemas/Node", valueAt(t, out, "/components/schemas/Node/properties/next/$ref"))
}

func TestResolve_InlineMode(t *testing.T) {
	t.Parallel()

	cli := newTestCLI("")
	require.NoError(t, cli.run(t, "resolve", "--mode", "inline", writeTestSpec(t, testSpec)))

	out := decodeOutput(t, cli.stdout.Bytes())
	schema := "/paths/~1pets/get/responses/200/content/application~1json/schema"
	assert.Equal(t, "#/components/schemas/Pets", valueAt(t, out, jsonpointer.JSONPointer(schema+"/$ref")))
	assert.Equal(t, "object", valueAt(t, out, "/components/schemas/Pets/items/type"), "external references are pulled in")
}

func TestResolve_JSONOutputFile(t *testing.T) {
	t.Parallel()

	file := writeTestSpec(t, testSpec)
	output := filepath.Join(filepath.Dir(file), "resolved.json")

	cli := newTestCLI("")
	require.NoError(t, cli.run(t, "resolve", "--format", "json", file, output))
	assert.Empty(t, cli.stdout.String())
	assert.Contains(t, cli.stderr.String(), "Resolution completed in")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
	assert.Equal(t, "object", valueAt(t, decodeOutput(t, data), "/components/schemas/Pets/items/type"))
}

func TestResolve_Stdin(t *testing.T) {
	t.Parallel()

	cli := newTestCLI(`{"a": {"$ref": "#/b"}, "b": {"type": "string"}}`)
	require.NoError(t, cli.run(t, "resolve", "-"))

	assert.True(t, json.Valid(cli.stdout.Bytes()), "JSON input is written back as JSON")
	assert.Equal(t, "string", valueAt(t, decodeOutput(t, cli.stdout.Bytes()), "/a/type"))
}

func TestResolve_Verbose(t *testing.T) {
	t.Parallel()

	cli := newTestCLI("")
	require.NoError(t, cli.run(t, "resolve", "-v", writeTestSpec(t, testSpec)))
	assert.Contains(t, cli.stderr.String(), "resolved document")
}

func TestResolve_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{name: "unresolvable reference", args: []string{"resolve"}, expected: "failed to resolve Reference '#/components/schemas/Missing'"},
		{name: "unknown mode", args: []string{"resolve", "--mode", "partial"}, expected: `unknown mode "partial"`},
		{name: "unknown format", args: []string{"resolve", "--format", "toml"}, expected: `unknown output format "toml"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cli := newTestCLI("")
			err := cli.run(t, append(tt.args, writeTestSpec(t, testBrokenSpec))...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expected)
		})
	}

	cli := newTestCLI("")
	err := cli.run(t, "resolve", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open input file")
}

func TestResolve_Lenient(t *testing.T) {
	t.Parallel()

	cli := newTestCLI("")
	require.NoError(t, cli.run(t, "resolve", "--lenient", writeTestSpec(t, testBrokenSpec)))

	assert.Contains(t, cli.stderr.String(), "2 reference errors")
	assert.Contains(t, cli.stderr.String(), "[/components/schemas/Pet]")

	out := decodeOutput(t, cli.stdout.Bytes())
	assert.Equal(t, "#/components/schemas/Missing", valueAt(t, out, "/components/schemas/Pet/$ref"))
}

func TestValidate_Success(t *testing.T) {
	t.Parallel()

	cli := newTestCLI("")
	require.NoError(t, cli.run(t, "validate", writeTestSpec(t, testSpec)))
	assert.Contains(t, cli.stdout.String(), "References are valid - 0 errors")
}

func TestValidate_Error(t *testing.T) {
	t.Parallel()

	cli := newTestCLI("")
	err := cli.run(t, "validate", writeTestSpec(t, testBrokenSpec))
	require.Error(t, err)

	out := cli.stdout.String()
	assert.Contains(t, out, "References are invalid - 2 errors")
	assert.Contains(t, out, "1. [/components/schemas/Pet]")
	assert.Contains(t, out, "2. [/components/schemas/Owner]")
	assert.Contains(t, out, "failed to fetch")
}

func TestValidate_AdditionalProperties(t *testing.T) {
	t.Parallel()

	cli := newTestCLI("")
	err := cli.run(t, "validate", writeTestSpec(t, testSiblingSpec))
	require.Error(t, err)

	out := cli.stdout.String()
	assert.Contains(t, out, "References are invalid - 1 errors")
	assert.Contains(t, out, "1. [/components/schemas/A] additional properties found for Reference Object: description")
}

func TestResolve_AdditionalPropertiesWarns(t *testing.T) {
	t.Parallel()

	cli := newTestCLI("")
	require.NoError(t, cli.run(t, "resolve", writeTestSpec(t, testSiblingSpec)))

	assert.Contains(t, cli.stderr.String(), "1 reference errors")
	assert.Equal(t, "string", valueAt(t, decodeOutput(t, cli.stdout.Bytes()), "/components/schemas/A/type"))
}

func TestFormatErrors_Success(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1. missing\n", formatErrors([]string{"missing"}))

	errs := make([]string, 10)
	for i := range errs {
		errs[i] = "err"
	}
	formatted := formatErrors(errs)
	assert.True(t, strings.HasPrefix(formatted, " 1. err\n"))
	assert.True(t, strings.HasSuffix(formatted, "10. err\n"))
}
