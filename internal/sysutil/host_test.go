package sysutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsLocalDevHost(t *testing.T) {
	assert.True(t, IsLocalDevHost("localhost", nil))
	assert.True(t, IsLocalDevHost("127.0.0.1:8080", nil))
	assert.True(t, IsLocalDevHost("[::1]:3000", nil))
	assert.True(t, IsLocalDevHost("", nil))
	assert.True(t, IsLocalDevHost("Dev.Haven.Test", []string{"dev.haven.test"}))

	assert.False(t, IsLocalDevHost("haven.community", nil))
	assert.False(t, IsLocalDevHost("localhost.evil.com", nil))
}

func TestInitLogger(t *testing.T) {
	assert.NoError(t, InitLogger("info"))
	assert.NotNil(t, Log)
	assert.Error(t, InitLogger("loud"))
}
