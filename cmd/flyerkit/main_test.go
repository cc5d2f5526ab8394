package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/flyerkit/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const offers = "OFERTAS DA SEMANA\nCoca-Cola 2L R$ 9,99\nsem preço\nArroz 5kg 24,90\n"

func runCmd(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestParseCommand(t *testing.T) {
	t.Run("reads stdin", func(t *testing.T) {
		out, err := runCmd(t, offers, "parse")
		require.NoError(t, err)

		var result domain.ParseResult
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		assert.Equal(t, []string{"OFERTAS DA SEMANA"}, result.Header)
		require.Len(t, result.Items, 2)
		assert.Equal(t, "Arroz 5kg", result.Items[1].SuggestedName)
		assert.Equal(t, 24.9, result.Items[1].Price)
		assert.Contains(t, out, "\n  \"header\"")
	})

	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ofertas.txt")
		require.NoError(t, os.WriteFile(path, []byte(offers), 0644))

		out, err := runCmd(t, "", "parse", "--compact", path)
		require.NoError(t, err)
		assert.Equal(t, 1, strings.Count(out, "\n"))
		assert.Contains(t, out, `"suggested_name":"Coca-Cola 2L"`)
	})

	t.Run("empty input", func(t *testing.T) {
		out, err := runCmd(t, "", "parse", "--compact")
		require.NoError(t, err)
		assert.JSONEq(t, `{"header":[],"items":[]}`, out)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := runCmd(t, "", "parse", filepath.Join(t.TempDir(), "nope.txt"))
		assert.Error(t, err)
	})

	t.Run("too many arguments", func(t *testing.T) {
		_, err := runCmd(t, "", "parse", "a.txt", "b.txt")
		assert.Error(t, err)
	})
}

func TestVersionCommand(t *testing.T) {
	out, err := runCmd(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "flyerkit dev\n", out)
}
