package blogify

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/hashid/pkg/hashid"
)

const avatarService = "https://api.dicebear.com/9.x/initials/svg"

// AvatarURL returns the identity's profile image, falling back to a
// deterministically generated avatar seeded from the full name so the same
// user always renders the same placeholder.
func AvatarURL(user *Identity, size int) string {
	if user == nil {
		return ""
	}

	if src := strings.TrimSpace(user.ProfileImageURL); src != "" {
		return src
	}

	if size <= 0 {
		size = 64
	}

	seed := user.FullName
	if id, err := hashid.NewUUID(user.FullName); err == nil {
		seed = id.String()
	}

	return fmt.Sprintf("%s?seed=%s&size=%d", avatarService, url.QueryEscape(seed), size)
}
