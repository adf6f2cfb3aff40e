package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invopop/xmlbind"
)

func testdata(name string) string {
	return filepath.Join("testdata", name)
}

// run executes the command tree with args and returns its output.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseCommand_JSON(t *testing.T) {
	out, err := run(t, "", "parse", "-s", testdata("types.yaml"), "-t", "address", testdata("address.xml"))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"street": "Milchstrasse",
		"housenumber": 23,
		"postcode": "26131",
		"city": "Oldenburg",
		"country": {"code": "de", "name": "Germany"}
	}`, out)
	assert.True(t, strings.Index(out, "street") < strings.Index(out, "country"))
}

func TestParseCommand_Stdin(t *testing.T) {
	doc := `<address><street>Milchstrasse</street></address>`
	out, err := run(t, doc, "parse", "--schema", testdata("types.yaml"), "--type", "address", "--provider", "token", "-")
	require.NoError(t, err)
	assert.JSONEq(t, `{"street": "Milchstrasse"}`, out)
}

func TestParseCommand_Dump(t *testing.T) {
	out, err := run(t, "", "parse", "-s", testdata("types.yaml"), "-t", "address", "--format", "dump", testdata("address.xml"))
	require.NoError(t, err)
	assert.Contains(t, out, `"street": (string) (len=12) "Milchstrasse"`)
	assert.Contains(t, out, `"housenumber": (int64) 23`)
}

func TestParseCommand_Verbose(t *testing.T) {
	_, err := run(t, "", "parse", "-v", "-s", testdata("types.yaml"), "-t", "address", testdata("address.xml"))
	require.NoError(t, err)
}

func TestParseCommand_Infer(t *testing.T) {
	out, err := run(t, "", "parse", "--infer", testdata("address.xml"))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"street": "Milchstrasse",
		"housenumber": "23",
		"postcode": "26131",
		"city": "Oldenburg",
		"state": "Lower Saxony",
		"country": {"code": "de", "content": "Germany"}
	}`, out)

	doc := `<value><image>a</image><image>b</image></value>`
	out, err = run(t, doc, "parse", "--infer", "--provider", "token", "-")
	require.NoError(t, err)
	assert.JSONEq(t, `{"image": ["a", "b"]}`, out)
}

func TestParseCommand_Errors(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		code  int
	}{
		{"missing flags", "", []string{"parse", testdata("address.xml")}, ExitUsage},
		{"infer with schema", "", []string{"parse", "--infer", "-s", testdata("types.yaml"), testdata("address.xml")}, ExitUsage},
		{"malformed inferred document", "<address", []string{"parse", "--infer", "-"}, ExitError},
		{"missing document argument", "", []string{"parse", "-s", testdata("types.yaml"), "-t", "address"}, ExitUsage},
		{"unknown flag", "", []string{"parse", "--bogus"}, ExitUsage},
		{"unknown format", "", []string{"parse", "-s", testdata("types.yaml"), "-t", "address", "--format", "csv", "-"}, ExitUsage},
		{"unknown provider", "", []string{"parse", "-s", testdata("types.yaml"), "-t", "address", "--provider", "sax", "-"}, ExitUsage},
		{"invalid schema", "", []string{"parse", "-s", testdata("broken.yaml"), "-t", "address", testdata("address.xml")}, ExitSchema},
		{"unknown type", "", []string{"parse", "-s", testdata("types.yaml"), "-t", "person", testdata("address.xml")}, ExitSchema},
		{"missing document", "", []string{"parse", "-s", testdata("types.yaml"), "-t", "address", testdata("missing.xml")}, ExitError},
		{"malformed document", "<address", []string{"parse", "-s", testdata("types.yaml"), "-t", "address", "-"}, ExitError},
		{"coercion", "<address><housenumber>x</housenumber></address>", []string{"parse", "-s", testdata("types.yaml"), "-t", "address", "-"}, ExitError},
		{"root not found", "<person/>", []string{"parse", "-s", testdata("types.yaml"), "-t", "address", "-"}, ExitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.stdin, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.code, ExitCodeForError(err))
		})
	}
}

func TestSchemaCommand(t *testing.T) {
	out, err := run(t, "", "schema", "-s", testdata("types.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "address <address>")
	assert.Contains(t, out, "country <country>")
	assert.Regexp(t, `element\s+housenumber\s+int64\s+single\s+housenumber`, out)
	assert.Regexp(t, `attribute\s+code\s+string\s+single\s+code`, out)

	out, err = run(t, "", "schema", "-s", testdata("types.yaml"), "-t", "country")
	require.NoError(t, err)
	assert.NotContains(t, out, "address")
	assert.Contains(t, out, "content")

	_, err = run(t, "", "schema", "-s", testdata("types.yaml"), "-t", "person")
	assert.Equal(t, ExitSchema, ExitCodeForError(err))

	_, err = run(t, "", "schema")
	assert.Equal(t, ExitUsage, ExitCodeForError(err))
}

func TestVersionCommand(t *testing.T) {
	original := version
	defer func() { version = original }()

	version = "1.2.3"
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "xmlbind 1.2.3 "), out)
}

func TestExitCodeForError(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCodeForError(nil))
	assert.Equal(t, ExitError, ExitCodeForError(errors.New("boom")))
	assert.Equal(t, ExitUsage, ExitCodeForError(fmt.Errorf("wrapped: %w", &usageError{err: errors.New("bad flag")})))
	assert.Equal(t, ExitSchema, ExitCodeForError(fmt.Errorf("load schema: %w", xmlbind.ErrSchema)))
	assert.Equal(t, ExitError, ExitCodeForError(&xmlbind.CoercionError{Err: errors.New("bad")}))
}
