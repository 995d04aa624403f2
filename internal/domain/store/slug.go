package store

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"
)

var (
	nonSlug   = regexp.MustCompile(`[^a-z0-9\-]+`)
	multiDash = regexp.MustCompile(`-+`)
)

// MakeSlug generates a URL-safe base slug from a store name.
// Example: "Loja da Maria" -> "loja-da-maria"
func MakeSlug(name string) string {
	base := strings.ToLower(strings.TrimSpace(name))
	base = strings.ReplaceAll(base, " ", "-")
	base = nonSlug.ReplaceAllString(base, "")
	base = multiDash.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")

	if base == "" {
		base = "loja"
	}
	return base
}

// EnsureProfile returns the tenant's store profile, creating one with a
// unique slug when missing. Must be called after the user has an ID.
func EnsureProfile(db *gorm.DB, userID uint, storeName string) (*Profile, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if userID == 0 {
		return nil, errors.New("user ID missing")
	}

	var profile Profile
	err := db.Where("user_id = ?", userID).First(&profile).Error
	if err == nil {
		return &profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if storeName == "" {
		storeName = fmt.Sprintf("loja-%d", userID)
	}
	profile = Profile{
		UserID: userID,
		Name:   storeName,
		Slug:   fmt.Sprintf("%s-%d", MakeSlug(storeName), userID),
	}
	if err := db.Create(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// BuildPublicURL builds the public storefront URL from a slug.
// Example: "loja-da-maria-32" -> "https://loja-da-maria-32.vitrine.app"
func BuildPublicURL(slug string) string {
	return "https://" + slug + ".vitrine.app"
}
