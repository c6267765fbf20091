package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"seoroblog/internal/models"
)

// ProfileStore handles user profile persistence. Profiles are created
// lazily: the first access for a user inserts an empty row.
type ProfileStore struct {
	db *sql.DB
}

// NewProfileStore creates a new ProfileStore with the given database connection.
func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// GetOrCreate returns the profile for a user, inserting an empty one if
// none exists yet.
func (s *ProfileStore) GetOrCreate(userID uuid.UUID) (*models.Profile, error) {
	p, err := s.find(userID)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}

	p = &models.Profile{}
	err = s.db.QueryRow(`
		INSERT INTO profiles (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id, user_id, bio, avatar_url, website, github, skills, location, created_at, updated_at
	`, userID).Scan(
		&p.ID, &p.UserID, &p.Bio, &p.AvatarURL, &p.Website, &p.GitHub,
		&p.Skills, &p.Location, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return p, nil
}

// Update modifies the editable fields of a user's profile.
func (s *ProfileStore) Update(p *models.Profile) error {
	_, err := s.db.Exec(`
		UPDATE profiles SET
			bio = $1, avatar_url = $2, website = $3, github = $4,
			skills = $5, location = $6, updated_at = NOW()
		WHERE user_id = $7
	`, p.Bio, p.AvatarURL, p.Website, p.GitHub, p.Skills, p.Location, p.UserID)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// find retrieves a profile by user ID. Returns nil if not found.
func (s *ProfileStore) find(userID uuid.UUID) (*models.Profile, error) {
	p := &models.Profile{}
	err := s.db.QueryRow(`
		SELECT id, user_id, bio, avatar_url, website, github, skills, location, created_at, updated_at
		FROM profiles WHERE user_id = $1
	`, userID).Scan(
		&p.ID, &p.UserID, &p.Bio, &p.AvatarURL, &p.Website, &p.GitHub,
		&p.Skills, &p.Location, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return p, nil
}
