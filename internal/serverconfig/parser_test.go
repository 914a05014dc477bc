package serverconfig

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRealConfig(t *testing.T) {
	text := `
	daemonize no
	port 24611
	bind 127.0.0.1
	loglevel verbose
	logfile ''
	databases 16
	unixsocket /tmp/server.sock
	`
	directives, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, directives, 7)
	require.Equal(t, "daemonize", directives[0].Name)
	require.Equal(t, []string{"no"}, directives[0].Args)
	require.Equal(t, "logfile", directives[4].Name)
	require.Equal(t, []string{""}, directives[4].Args)
}

func TestParseSkipsCommentsAndBlankLines(t *testing.T) {
	text := "# a comment\n\nport 6379\n"
	directives, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, directives, 1)
	require.Equal(t, "port", directives[0].Name)
}

func TestDecodeProducesTypedConfig(t *testing.T) {
	directives, err := Parse("port 9000\nbind 0.0.0.0\ndaemonize yes\ndatabases 4\n")
	require.NoError(t, err)
	cfg, err := Decode(directives)
	require.NoError(t, err)
	require.Equal(t, 9000, cfg.Port)
	require.Equal(t, "0.0.0.0", cfg.Bind)
	require.True(t, cfg.Daemonize)
	require.Equal(t, 4, cfg.Databases)
}

func TestDecodeIgnoresUnknownDirectives(t *testing.T) {
	directives, err := Parse("save 60 10000\nport 6379\n")
	require.NoError(t, err)
	cfg, err := Decode(directives)
	require.NoError(t, err)
	require.Equal(t, 6379, cfg.Port)
}

func TestUnterminatedQuoteErrors(t *testing.T) {
	_, err := Parse(`logfile "unterminated`)
	require.Error(t, err)
}
