package handlers

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation limits for form fields.
const (
	minUsernameLen = 3
	maxUsernameLen = 30
	minPasswordLen = 8
	maxTitleLen    = 200
	maxContentLen  = 100_000
	maxCommentLen  = 2_000
	maxMetaDescLen = 160
	maxBioLen      = 500
	maxTagCount    = 10
	maxTagLen      = 40
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// validateSignup checks registration form inputs and returns the first
// error found.
func validateSignup(username, email, password, confirm string) string {
	username = strings.TrimSpace(username)
	if utf8.RuneCountInString(username) < minUsernameLen {
		return "Username must be at least 3 characters."
	}
	if utf8.RuneCountInString(username) > maxUsernameLen {
		return "Username is too long (max 30 characters)."
	}
	if !usernameRe.MatchString(username) {
		return "Username may only contain letters, digits, hyphens, and underscores."
	}
	if !strings.Contains(email, "@") {
		return "A valid email address is required."
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return "Password must be at least 8 characters."
	}
	if password != confirm {
		return "Passwords do not match."
	}
	return ""
}

// validatePost checks post form inputs and returns the first error found.
func validatePost(title, content, status, metaDesc string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "Title is required."
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "Title is too long (max 200 characters)."
	}
	if strings.TrimSpace(content) == "" {
		return "Content is required."
	}
	if utf8.RuneCountInString(content) > maxContentLen {
		return "Content is too long (max 100,000 characters)."
	}
	switch status {
	case "draft", "published", "scheduled":
	default:
		return "Invalid status."
	}
	if utf8.RuneCountInString(metaDesc) > maxMetaDescLen {
		return "Meta description is too long (max 160 characters)."
	}
	return ""
}

// validateComment checks a comment body and returns the first error found.
func validateComment(content string) string {
	if strings.TrimSpace(content) == "" {
		return "Comment cannot be empty."
	}
	if utf8.RuneCountInString(content) > maxCommentLen {
		return "Comment is too long (max 2,000 characters)."
	}
	return ""
}

// validateProfile checks profile form inputs and returns the first error found.
func validateProfile(bio, website string) string {
	if utf8.RuneCountInString(bio) > maxBioLen {
		return "Bio is too long (max 500 characters)."
	}
	if website != "" && !strings.HasPrefix(website, "http://") && !strings.HasPrefix(website, "https://") {
		return "Website must start with http:// or https://."
	}
	return ""
}

// parseTagNames splits the comma-separated tag field into trimmed,
// de-duplicated names, enforcing per-tag and total limits.
func parseTagNames(raw string) ([]string, string) {
	var names []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		if utf8.RuneCountInString(name) > maxTagLen {
			return nil, "Tag names are limited to 40 characters."
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, name)
	}
	if len(names) > maxTagCount {
		return nil, "At most 10 tags per post."
	}
	return names, ""
}
