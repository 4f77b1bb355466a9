package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectNameKeepsExtension(t *testing.T) {
	name := ObjectName("Me.PNG")
	assert.Len(t, name, 36+len(".png"))
	assert.Equal(t, ".png", name[36:])
	assert.NotEqual(t, name, ObjectName("Me.PNG"))
}

func TestObjectKeyFromPublicURL(t *testing.T) {
	s := &FileStorage{bucket: "avatars", publicURL: "http://files.local/"}

	name, ok := s.objectKey("http://files.local/avatars/avatars/abc.png")
	assert.True(t, ok)
	assert.Equal(t, "avatars/abc.png", name)

	_, ok = s.objectKey("http://elsewhere/avatars/avatars/abc.png")
	assert.False(t, ok)
	_, ok = s.objectKey("http://files.local/avatars/")
	assert.False(t, ok)
}
