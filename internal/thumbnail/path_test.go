package thumbnail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThumbPath(t *testing.T) {
	tests := map[string]string{
		"profile_photos/u123/photo.jpg": "profile_photos/u123/thumb_photo.jpg",
		"a/b/pic.png":                   "a/b/thumb_pic.png",
		"photo.jpg":                     "thumb_photo.jpg",
		"deep/er/still/x.gif":           "deep/er/still/thumb_x.gif",
	}
	for in, want := range tests {
		assert.Equal(t, want, ThumbPath(in), in)
	}
}

func TestThumbPathIsDeterministicAndRecognised(t *testing.T) {
	name := "profile_photos/u1/me.png"
	assert.Equal(t, ThumbPath(name), ThumbPath(name))
	assert.True(t, IsThumbnail(ThumbPath(name)))
	assert.False(t, IsThumbnail(name))
	assert.False(t, IsThumbnail("thumb_dir/photo.png"))
}

func TestUserID(t *testing.T) {
	id, err := UserID("profile_photos/u123/photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, "u123", id)

	id, err = UserID("profile_photos/u123/albums/2024/photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, "u123", id)

	for _, name := range []string{
		"a/b/pic.png",
		"photo.jpg",
		"profile_photos/photo.jpg",
		"avatars/u123/photo.jpg",
		"profile_photos//photo.jpg",
	} {
		_, err := UserID(name)
		assert.ErrorIs(t, err, ErrNoUserID, name)
	}
}

func TestProfileKey(t *testing.T) {
	assert.Equal(t, "users/u123/profile/photo", ProfileKey("u123"))
}

func TestPathMatcher(t *testing.T) {
	m, err := NewPathMatcher("tenants/{tenant}/users/{user}")
	require.NoError(t, err)

	fields, ok := m.Match("tenants/acme/users/42")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"tenant": "acme", "user": "42"}, fields)

	_, ok = m.Match("tenants/acme/users/42/extra")
	assert.False(t, ok, "trailing segments need a ... pattern")
	_, ok = m.Match("tenants/acme/groups/42")
	assert.False(t, ok)
	_, ok = m.Match("tenants/acme")
	assert.False(t, ok)
	assert.Equal(t, "tenants/{tenant}/users/{user}", m.String())
}

func TestPathMatcherRest(t *testing.T) {
	m := MustPathMatcher("profile_photos/{userID}/...")
	for _, p := range []string{"profile_photos/u1", "profile_photos/u1/a", "profile_photos/u1/a/b"} {
		fields, ok := m.Match(p)
		require.True(t, ok, p)
		assert.Equal(t, "u1", fields["userID"])
	}
}

func TestNewPathMatcherRejectsBadPatterns(t *testing.T) {
	for _, pattern := range []string{
		"",
		"a/{}/b",
		"a/{x}/{x}",
		"a/.../b",
		"a//b",
	} {
		_, err := NewPathMatcher(pattern)
		assert.Error(t, err, pattern)
	}
	assert.Panics(t, func() { MustPathMatcher("a//b") })
}
