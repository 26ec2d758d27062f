package testutils_test

import (
	"os/exec"
	"strconv"
	"testing"
	"time"

	"github.com/fiffeek/inputswitcher/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPtySession_AnswersTerminalQueries(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		replyLen int
		expected string
	}{
		{name: "cursor position", query: `\033[6n`, replyLen: 6, expected: "[1;1R"},
		{name: "background color", query: `\033]11;?\033\\`, replyLen: 25, expected: "rgb:0000/0000/0000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// raw mode so the reply is readable without a trailing newline
			script := `stty raw -echo; printf '` + tt.query + `'; r=$(dd bs=1 count=` +
				strconv.Itoa(tt.replyLen) + ` 2>/dev/null); printf 'reply:%s:end' "$r"`
			// nolint:gosec
			session, err := testutils.StartPtySession(exec.Command("sh", "-c", script))
			require.NoError(t, err)

			require.NoError(t, session.WaitFor(":end", 3*time.Second))
			_, err = session.Finish(3 * time.Second)
			require.NoError(t, err)
			assert.Contains(t, string(session.Output()), "reply:")
			assert.Contains(t, string(session.Output()), tt.expected)
		})
	}
}
