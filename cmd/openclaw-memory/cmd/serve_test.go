package cmd

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCmd_HasTransportFlag(t *testing.T) {
	cmd := newServeCmd()
	flag := cmd.Flags().Lookup("transport")
	require.NotNil(t, flag)
	assert.Equal(t, "stdio", flag.DefValue)
}

func TestServeCmd_HasAddrFlag(t *testing.T) {
	cmd := newServeCmd()
	flag := cmd.Flags().Lookup("addr")
	require.NotNil(t, flag)
	assert.NotEmpty(t, flag.DefValue)
}

func TestServeCmd_RejectsUnknownTransport(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	projectDir := t.TempDir()
	oldDir, _ := os.Getwd()
	defer func() { _ = os.Chdir(oldDir) }()
	require.NoError(t, os.Chdir(projectDir))

	cmd := newServeCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--transport", "carrier-pigeon"})

	err := cmd.Execute()
	assert.Error(t, err)
}
