package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gorm.io/gorm"

	"projecthub/internal/auth"
	"projecthub/internal/models"
)

const minPasswordLength = 8

// dummyHash is verified against when the login identifier matches no user.
var dummyHash = sync.OnceValue(func() string {
	hash, err := auth.HashPassword("projecthub-no-such-user")
	if err != nil {
		panic(fmt.Sprintf("hash dummy password: %v", err))
	}
	return hash
})

// UserUpdate carries the profile fields to change; nil fields are left alone.
type UserUpdate struct {
	Email      *string
	FirstName  *string
	LastName   *string
	Bio        *string
	PictureURL *string
	Skills     *[]string
	Role       *models.Role
	Password   *string
}

// Authenticate resolves identifier (email or username) and checks the password.
// Every failure is reported as models.ErrInvalidCredentials.
func (s *Store) Authenticate(ctx context.Context, identifier, password string) (models.User, error) {
	identifier = strings.TrimSpace(identifier)
	var u models.User
	err := s.db.WithContext(ctx).
		Where("email = ? OR username = ?", strings.ToLower(identifier), identifier).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Unknown identifiers cost the same key derivation as known ones.
		_, _ = auth.VerifyPassword(dummyHash(), password)
		return models.User{}, models.ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, fmt.Errorf("find user: %w", err)
	}

	ok, err := auth.VerifyPassword(u.PasswordHash, password)
	if err != nil {
		s.logger.Sugar().Warnf("stored hash for user %d is unreadable: %v", u.ID, err)
		return models.User{}, models.ErrInvalidCredentials
	}
	if !ok {
		return models.User{}, models.ErrInvalidCredentials
	}
	return u, nil
}

// CreateUser validates and stores a new user with a freshly hashed password.
func (s *Store) CreateUser(ctx context.Context, u models.User, password string) (models.User, error) {
	if err := u.Validate(); err != nil {
		return models.User{}, err
	}
	if len(password) < minPasswordLength {
		return models.User{}, models.Invalid("password", "password must be at least %d characters", minPasswordLength)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	u.ID = 0
	u.PasswordHash = hash
	if u.Skills == nil {
		u.Skills = []string{}
	}

	err = s.tx(ctx, func(tx *gorm.DB) error {
		if err := checkUserUnique(tx, u, 0); err != nil {
			return err
		}
		if err := tx.Create(&u).Error; err != nil {
			if isDuplicate(err) {
				return models.Invalid("email", "email or username is already registered")
			}
			return fmt.Errorf("insert user: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

func checkUserUnique(tx *gorm.DB, u models.User, excludeID int64) error {
	var count int64
	q := tx.Model(&models.User{}).Where("email = ?", u.Email)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if count > 0 {
		return models.Invalid("email", "email %q is already registered", u.Email)
	}

	q = tx.Model(&models.User{}).Where("username = ?", u.Username)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if count > 0 {
		return models.Invalid("username", "username %q is already taken", u.Username)
	}
	return nil
}

// GetUser fetches a single user by id.
func (s *Store) GetUser(ctx context.Context, id int64) (models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return models.User{}, lookupErr(err, "user")
	}
	return u, nil
}

// ListUsers returns every user ordered by id.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := s.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// ListUsersByRole returns the users holding role.
func (s *Store) ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	users := []models.User{}
	if err := s.db.WithContext(ctx).Where("role = ?", role).Order("last_name, first_name, id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users by role: %w", err)
	}
	return users, nil
}

// UpdateUser applies a profile update.
func (s *Store) UpdateUser(ctx context.Context, id int64, upd UserUpdate) (models.User, error) {
	var u models.User
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&u, id).Error; err != nil {
			return lookupErr(err, "user")
		}
		if upd.Email != nil {
			u.Email = *upd.Email
		}
		if upd.FirstName != nil {
			u.FirstName = strings.TrimSpace(*upd.FirstName)
		}
		if upd.LastName != nil {
			u.LastName = strings.TrimSpace(*upd.LastName)
		}
		if upd.Bio != nil {
			u.Bio = *upd.Bio
		}
		if upd.PictureURL != nil {
			u.PictureURL = *upd.PictureURL
		}
		if upd.Skills != nil {
			u.Skills = *upd.Skills
		}
		if upd.Role != nil {
			u.Role = *upd.Role
		}
		if err := u.Validate(); err != nil {
			return err
		}
		if err := checkUserUnique(tx, u, u.ID); err != nil {
			return err
		}
		if upd.Password != nil {
			if len(*upd.Password) < minPasswordLength {
				return models.Invalid("password", "password must be at least %d characters", minPasswordLength)
			}
			hash, err := auth.HashPassword(*upd.Password)
			if err != nil {
				return err
			}
			u.PasswordHash = hash
		}
		if err := tx.Save(&u).Error; err != nil {
			if isDuplicate(err) {
				return models.Invalid("email", "email %q is already registered", u.Email)
			}
			return fmt.Errorf("update user: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

// ProjectDevelopers lists the developers on the team of a project.
func (s *Store) ProjectDevelopers(ctx context.Context, projectID int64) ([]models.User, error) {
	db := s.db.WithContext(ctx)
	if err := exists(db, &models.Project{}, projectID, "project"); err != nil {
		return nil, err
	}
	users := []models.User{}
	err := db.Joins("JOIN project_developers pd ON pd.developer_id = users.id").
		Where("pd.project_id = ?", projectID).
		Order("users.id").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list project developers: %w", err)
	}
	return users, nil
}

// AvailableDevelopers lists developers that are not yet on the project team.
func (s *Store) AvailableDevelopers(ctx context.Context, projectID int64) ([]models.User, error) {
	db := s.db.WithContext(ctx)
	if err := exists(db, &models.Project{}, projectID, "project"); err != nil {
		return nil, err
	}
	team := db.Model(&models.ProjectDeveloper{}).Select("developer_id").Where("project_id = ?", projectID)
	users := []models.User{}
	err := db.Where("role = ?", models.RoleDeveloper).
		Where("id NOT IN (?)", team).
		Order("id").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list available developers: %w", err)
	}
	return users, nil
}
