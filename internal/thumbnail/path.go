package thumbnail

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ThumbPrefix marks an object as a derived thumbnail. Objects carrying it are
// never processed again.
const ThumbPrefix = "thumb_"

var ErrNoUserID = errors.New("object path carries no user id")

var profilePhotos = MustPathMatcher("profile_photos/{userID}/...")

// ThumbPath returns the sibling path the thumbnail of name is written to.
func ThumbPath(name string) string {
	dir, base := path.Split(name)
	return dir + ThumbPrefix + base
}

func IsThumbnail(name string) bool {
	return strings.HasPrefix(path.Base(name), ThumbPrefix)
}

// UserID extracts the owner of a profile photo from the directory part of
// name, which must look like profile_photos/<userID>[/...].
func UserID(name string) (string, error) {
	fields, ok := profilePhotos.Match(path.Dir(name))
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoUserID, name)
	}
	return fields["userID"], nil
}

// ProfileKey is the database key the photo URLs of userID are stored under.
func ProfileKey(userID string) string {
	return "users/" + userID + "/profile/photo"
}
