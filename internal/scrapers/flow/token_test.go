package flow

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const loginPage = `<!DOCTYPE html>
<html>
<body>
<form method="post" action="/login">
	<input type="hidden" name="csrfToken" value="3f2a9c10-77de-4b1e-a3c4-0e5d9b8f6a21"/>
	<input type="email" name="email"/>
	<input type="password" name="password"/>
</form>
</body>
</html>`

const reorderedLoginPage = `<html><body><form>
<input value="9d8c7b6a-0000-1111-2222-333344445555" type="hidden" name="csrfToken">
</form></body></html>`

func TestPatternExtractor(t *testing.T) {
	table := []struct {
		name     string
		document string
		token    string
		ok       bool
	}{
		{name: "login page", document: loginPage, token: "3f2a9c10-77de-4b1e-a3c4-0e5d9b8f6a21", ok: true},
		{name: "bare attribute", document: `csrfToken" value="abc-123"`, token: "abc-123", ok: true},
		{name: "uppercase is rejected", document: `csrfToken" value="ABC"`, ok: false},
		{name: "reordered attributes", document: reorderedLoginPage, ok: false},
		{name: "no token", document: `<html></html>`, ok: false},
	}

	for _, row := range table {
		t.Run(row.name, func(t *testing.T) {
			token, ok := PatternExtractor{}.ExtractToken([]byte(row.document))
			require.Equal(t, row.ok, ok)
			require.Equal(t, row.token, token)
		})
	}
}

func TestFormInputExtractor(t *testing.T) {
	token, ok := FormInputExtractor{}.ExtractToken([]byte(reorderedLoginPage))
	require.True(t, ok)
	require.Equal(t, "9d8c7b6a-0000-1111-2222-333344445555", token)

	_, ok = FormInputExtractor{}.ExtractToken([]byte(`<input name="csrfToken" value="Not A Token">`))
	require.False(t, ok)

	_, ok = FormInputExtractor{}.ExtractToken([]byte(`<html></html>`))
	require.False(t, ok)
}

type staticExtractor struct {
	token string
	ok    bool
	calls *int
}

func (s staticExtractor) ExtractToken([]byte) (string, bool) {
	*s.calls++
	return s.token, s.ok
}

func TestFirstOf(t *testing.T) {
	var firstCalls, secondCalls int
	extractor := FirstOf(
		staticExtractor{ok: false, calls: &firstCalls},
		staticExtractor{token: "second", ok: true, calls: &secondCalls},
	)
	token, ok := extractor.ExtractToken(nil)
	require.True(t, ok)
	require.Equal(t, "second", token)
	require.Equal(t, 1, firstCalls)
	require.Equal(t, 1, secondCalls)

	_, ok = FirstOf().ExtractToken(nil)
	require.False(t, ok)
}

func TestDefaultTokenExtractor(t *testing.T) {
	for _, document := range []string{loginPage, reorderedLoginPage} {
		_, ok := DefaultTokenExtractor().ExtractToken([]byte(document))
		require.True(t, ok)
	}
}
