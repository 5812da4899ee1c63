package util

import (
	"errors"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxBioLength is the longest bio accepted, in runes.
const MaxBioLength = 300

// MaxRegionLength matches the Region columns.
const MaxRegionLength = 64

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,30}$`)

// IsValidImageFile checks if a filename has an accepted picture extension
func IsValidImageFile(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	}
	return false
}

// ValidateUsername checks a username chosen by the user.
func ValidateUsername(username string) error {
	if username == "" {
		return errors.New("username is required")
	}
	if !usernamePattern.MatchString(username) {
		return errors.New("username must be 3-30 letters, digits, '_', '-' or '.'")
	}
	return nil
}

// ValidateBio enforces MaxBioLength.
func ValidateBio(bio string) error {
	if utf8.RuneCountInString(bio) > MaxBioLength {
		return errors.New("bio must be at most 300 characters")
	}
	return nil
}

// ValidateRegion checks a region name picked by the user.
func ValidateRegion(region string) error {
	if region == "" {
		return errors.New("region is required")
	}
	if utf8.RuneCountInString(region) > MaxRegionLength {
		return errors.New("region must be at most 64 characters")
	}
	return nil
}
