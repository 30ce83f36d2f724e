package rules

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeaders(t *testing.T) {
	text := `# site headers
/example
  X-Example-Header: example.org

/subpath/{other}
  X-Header-One: h1
  X-Header-Two: h2
/wildcard/{*wildcard}
	X-Header-A: ha
	X-Header-B: hb
`
	rules, err := ParseHeaders(text)
	require.NoError(t, err)
	require.Len(t, rules, 3)

	assert.Equal(t, "/example", rules[0].Pattern.String())
	assert.Equal(t, []Header{{Name: "X-Example-Header", Value: "example.org"}}, rules[0].Headers)

	assert.Equal(t, "/subpath/{other}", rules[1].Pattern.String())
	assert.Equal(t, []Header{
		{Name: "X-Header-One", Value: "h1"},
		{Name: "X-Header-Two", Value: "h2"},
	}, rules[1].Headers)

	assert.Equal(t, "/wildcard/{*wildcard}", rules[2].Pattern.String())
	assert.Equal(t, TierWildcard, rules[2].Pattern.Tier())
	assert.Len(t, rules[2].Headers, 2)
}

func TestParseHeadersEmptyInput(t *testing.T) {
	rules, err := ParseHeaders("")
	require.NoError(t, err)
	assert.Empty(t, rules)

	rules, err = ParseHeaders("\n\n# only comments\n\n")
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestParseHeadersRuleWithNoHeaders(t *testing.T) {
	rules, err := ParseHeaders("/lonely\n/busy\n  X: 1\n")
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Empty(t, rules[0].Headers)
	assert.Len(t, rules[1].Headers, 1)
}

func TestParseHeadersValueWithColon(t *testing.T) {
	rules, err := ParseHeaders("/x\n  Link: <https://example.com>; rel=preconnect\n")
	require.NoError(t, err)
	require.Len(t, rules, 1)
	require.Len(t, rules[0].Headers, 1)
	assert.Equal(t, "Link", rules[0].Headers[0].Name)
	assert.Equal(t, "<https://example.com>; rel=preconnect", rules[0].Headers[0].Value)
}

func TestParseHeadersDuplicateHeaderNamesKeptInOrder(t *testing.T) {
	rules, err := ParseHeaders("/x\n  X-A: first\n  X-A: second\n")
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, []Header{
		{Name: "X-A", Value: "first"},
		{Name: "X-A", Value: "second"},
	}, rules[0].Headers)
}

func TestParseHeadersErrors(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantErr  error
		wantLine int
	}{
		{
			name:     "orphaned header line",
			text:     "  X-Orphan: 1\n/late\n",
			wantErr:  ErrOrphanedHeaderLine,
			wantLine: 1,
		},
		{
			name:     "missing colon",
			text:     "/x\n  NotAHeader\n",
			wantErr:  ErrMissingHeaderColon,
			wantLine: 2,
		},
		{
			name:     "bad pattern",
			text:     "/ok\n  X: 1\n/{*w}/tail\n",
			wantErr:  ErrWildcardNotTerminal,
			wantLine: 3,
		},
		{
			name:     "duplicate captures in pattern",
			text:     "/{a}/{a}\n  X: 1\n",
			wantErr:  ErrDuplicateCaptureName,
			wantLine: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHeaders(tt.text)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.wantLine, perr.Line)
		})
	}
}
