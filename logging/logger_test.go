package logging

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	require.Equal(t, DefaultLevel, lvl)

	lvl, err = ParseLevel(" DEBUG ")
	require.NoError(t, err)
	require.Equal(t, zerolog.DebugLevel, lvl)

	_, err = ParseLevel("loud")
	require.Error(t, err)
}

func TestSetLevel(t *testing.T) {
	defer func(old zerolog.Logger) { RootLogger = old }(RootLogger)

	require.NoError(t, SetLevel("warn"))
	require.Equal(t, zerolog.WarnLevel, RootLogger.GetLevel())

	require.Error(t, SetLevel("loud"))
	require.Equal(t, zerolog.WarnLevel, RootLogger.GetLevel())
}
