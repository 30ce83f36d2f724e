package rules

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	rs, err := Compile("/a\n  X: 1\n", "/old /new 301\n")
	require.NoError(t, err)
	require.Len(t, rs.Headers, 1)
	require.Len(t, rs.Redirects, 1)
}

func TestCompileEmptyTextsAreValid(t *testing.T) {
	rs, err := Compile("", "")
	require.NoError(t, err)
	assert.Empty(t, rs.Headers)
	assert.Empty(t, rs.Redirects)
}

func TestCompilePropagatesParseErrors(t *testing.T) {
	_, err := Compile("  X: 1\n", "")
	assert.ErrorIs(t, err, ErrOrphanedHeaderLine)

	_, err = Compile("", "/a\n")
	assert.ErrorIs(t, err, ErrMalformedRedirectLine)
}

func TestEngineResolveHeaders(t *testing.T) {
	rs, err := Compile(
		"/a\n  X: 1\n/{*any}\n  Y: 2\n",
		"",
	)
	require.NoError(t, err)
	e := NewEngine(rs)

	// The winning rule's headers are used exclusively, never merged.
	got := e.ResolveHeaders("/a")
	assert.Equal(t, []Header{{Name: "X", Value: "1"}}, got)

	got = e.ResolveHeaders("/b")
	assert.Equal(t, []Header{{Name: "Y", Value: "2"}}, got)
}

func TestEngineResolveHeadersNoMatch(t *testing.T) {
	rs, err := Compile("/only\n  X: 1\n", "")
	require.NoError(t, err)
	e := NewEngine(rs)
	assert.Empty(t, e.ResolveHeaders("/other"))
}

func TestEngineResolveRedirect(t *testing.T) {
	rs, err := Compile("", "/docs/{page} /manual/{page} 301\n/legacy/{*rest} /{rest}\n")
	require.NoError(t, err)
	e := NewEngine(rs)

	r, ok := e.ResolveRedirect("/docs/intro")
	require.True(t, ok)
	assert.Equal(t, Redirect{Location: "/manual/intro", Status: 301}, r)

	r, ok = e.ResolveRedirect("/legacy/en/docs")
	require.True(t, ok)
	assert.Equal(t, Redirect{Location: "/en/docs", Status: DefaultRedirectStatus}, r)

	_, ok = e.ResolveRedirect("/nothing/here")
	assert.False(t, ok)
}

func TestEngineNilRuleSet(t *testing.T) {
	e := NewEngine(nil)
	assert.Empty(t, e.ResolveHeaders("/x"))
	_, ok := e.ResolveRedirect("/x")
	assert.False(t, ok)
}

func TestEngineSwap(t *testing.T) {
	first, err := Compile("", "/a /b\n")
	require.NoError(t, err)
	e := NewEngine(first)

	r, ok := e.ResolveRedirect("/a")
	require.True(t, ok)
	assert.Equal(t, "/b", r.Location)

	second, err := Compile("", "/a /c\n")
	require.NoError(t, err)
	e.Swap(second)

	r, ok = e.ResolveRedirect("/a")
	require.True(t, ok)
	assert.Equal(t, "/c", r.Location)
	assert.Same(t, second, e.RuleSet())
}

func TestEngineConcurrentResolution(t *testing.T) {
	rs, err := Compile(
		"/static/{*path}\n  Cache-Control: immutable\n",
		"/go/{slug} /posts/{slug} 301\n",
	)
	require.NoError(t, err)
	e := NewEngine(rs)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				h := e.ResolveHeaders("/static/css/site.css")
				assert.Len(t, h, 1)
				r, ok := e.ResolveRedirect("/go/hello")
				assert.True(t, ok)
				assert.Equal(t, "/posts/hello", r.Location)
			}
		}()
	}
	// Reload concurrently with resolution; readers must always see a complete
	// snapshot.
	for i := 0; i < 100; i++ {
		next, err := Compile(
			"/static/{*path}\n  Cache-Control: immutable\n",
			"/go/{slug} /posts/{slug} 301\n",
		)
		require.NoError(t, err)
		e.Swap(next)
	}
	wg.Wait()
}
