package jsonpointer

import (
	"testing"

	"github.com/speakeasy-api/openapi-refs/sequencedmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func testDocument() any {
	return sequencedmap.New(
		sequencedmap.NewElem[string, any]("components", sequencedmap.New(
			sequencedmap.NewElem[string, any]("schemas", sequencedmap.New(
				sequencedmap.NewElem[string, any]("User", sequencedmap.New(
					sequencedmap.NewElem[string, any]("type", "object"),
				)),
				sequencedmap.NewElem[string, any]("a/b", "slash"),
				sequencedmap.NewElem[string, any]("m~n", "tilde"),
			)),
		)),
		sequencedmap.NewElem[string, any]("responses", sequencedmap.New(
			sequencedmap.NewElem[string, any]("200", "ok"),
		)),
		sequencedmap.NewElem[string, any]("tags", []any{"pets", "users"}),
		sequencedmap.NewElem[string, any]("nothing", nil),
		sequencedmap.NewElem[string, any]("plain", map[string]any{"key": "value"}),
		sequencedmap.NewElem[string, any]("", "empty key"),
	)
}

func TestGetTarget_Success(t *testing.T) {
	t.Parallel()

	doc := testDocument()

	tests := []struct {
		name     string
		pointer  JSONPointer
		expected any
	}{
		{
			name:     "nested mapping value",
			pointer:  "/components/schemas/User/type",
			expected: "object",
		},
		{
			name:     "escaped slash",
			pointer:  "/components/schemas/a~1b",
			expected: "slash",
		},
		{
			name:     "escaped tilde",
			pointer:  "/components/schemas/m~0n",
			expected: "tilde",
		},
		{
			name:     "numeric key in mapping",
			pointer:  "/responses/200",
			expected: "ok",
		},
		{
			name:     "sequence index",
			pointer:  "/tags/1",
			expected: "users",
		},
		{
			name:     "null value is found",
			pointer:  "/nothing",
			expected: nil,
		},
		{
			name:     "plain go map",
			pointer:  "/plain/key",
			expected: "value",
		},
		{
			name:     "empty key",
			pointer:  "/",
			expected: "empty key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			target, err := GetTarget(doc, tt.pointer)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, target)
		})
	}
}

func TestGetTarget_WholeDocument(t *testing.T) {
	t.Parallel()

	doc := testDocument()

	target, err := GetTarget(doc, "")
	require.NoError(t, err)
	assert.Same(t, doc.(*sequencedmap.Map[string, any]), target)
}

func TestGetTarget_Error(t *testing.T) {
	t.Parallel()

	doc := testDocument()

	tests := []struct {
		name    string
		pointer JSONPointer
		wantErr error
	}{
		{
			name:    "missing key",
			pointer: "/components/schemas/Pet",
			wantErr: ErrNotFound,
		},
		{
			name:    "index out of range",
			pointer: "/tags/5",
			wantErr: ErrNotFound,
		},
		{
			name:    "key into sequence",
			pointer: "/tags/first",
			wantErr: ErrInvalidPath,
		},
		{
			name:    "through scalar",
			pointer: "/components/schemas/User/type/more",
			wantErr: ErrInvalidPath,
		},
		{
			name:    "through null",
			pointer: "/nothing/more",
			wantErr: ErrNotFound,
		},
		{
			name:    "missing leading slash",
			pointer: "components",
			wantErr: ErrValidation,
		},
		{
			name:    "bad escape",
			pointer: "/components/a~2b",
			wantErr: ErrValidation,
		},
		{
			name:    "leading zero index is a key",
			pointer: "/tags/01",
			wantErr: ErrInvalidPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := GetTarget(doc, tt.pointer)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestJSONPointer_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, JSONPointer("").Validate())
	require.NoError(t, JSONPointer("/").Validate())
	require.NoError(t, JSONPointer("/a~0b/c~1d/0").Validate())
	require.ErrorIs(t, JSONPointer("a").Validate(), ErrValidation)
	require.ErrorIs(t, JSONPointer("/a~").Validate(), ErrValidation)
}

func TestJSONPointer_Parts(t *testing.T) {
	t.Parallel()

	parts, err := JSONPointer("/paths/~1users~1{id}/get").Parts()
	require.NoError(t, err)
	assert.Equal(t, []string{"paths", "/users/{id}", "get"}, parts)

	parts, err = JSONPointer("").Parts()
	require.NoError(t, err)
	assert.Empty(t, parts)
}

func TestJSONPointer_Append(t *testing.T) {
	t.Parallel()

	p := JSONPointer("").Append("paths").Append("/pets").Append("get")
	assert.Equal(t, JSONPointer("/paths/~1pets/get"), p)
}

func TestEscape_RoundTrip_Property(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		token := rapid.String().Draw(t, "token")

		if got := UnescapeString(EscapeString(token)); got != token {
			t.Fatalf("unescape(escape(%q)) = %q", token, got)
		}
	})
}

func TestPartsToJSONPointer_RoundTrip_Property(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		parts := rapid.SliceOf(rapid.String()).Draw(t, "parts")

		pointer := PartsToJSONPointer(parts)
		if err := pointer.Validate(); err != nil {
			t.Fatalf("pointer %q built from %q is invalid: %v", pointer, parts, err)
		}

		got, err := pointer.Parts()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != len(parts) {
			t.Fatalf("expected %d parts, got %d", len(parts), len(got))
		}
		for i := range parts {
			if got[i] != parts[i] {
				t.Fatalf("part %d: expected %q, got %q", i, parts[i], got[i])
			}
		}
	})
}
