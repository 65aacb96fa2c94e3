package utils

import (
	"crypto/md5"
	"fmt"
	"strings"
)

const defaultAvatarSize = 200

// GetGravatarURL generates a Gravatar URL for the given email address
// Default size is 200px if not specified
func GetGravatarURL(email string, size int) string {
	if size <= 0 {
		size = defaultAvatarSize
	}
	email = strings.ToLower(strings.TrimSpace(email))
	hash := md5.Sum([]byte(email))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?s=%d&d=mp", hash, size)
}

// AvatarURL prefers the picture synced from the payment profile and falls
// back to Gravatar. Users without either get an empty string.
func AvatarURL(avatarURL, email string) string {
	if u := strings.TrimSpace(avatarURL); u != "" {
		return u
	}
	if strings.TrimSpace(email) == "" {
		return ""
	}
	return GetGravatarURL(email, defaultAvatarSize)
}
