package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/Rocknpaper/Blog-site-backend/internal/apperr"
	"github.com/Rocknpaper/Blog-site-backend/internal/models"
)

const uniqueViolation = "23505"

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts user after checking that neither its username nor its
// email is taken. A concurrent insert that slips past the check is caught
// by the unique indexes.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	var existing models.User
	err := r.db.WithContext(ctx).
		Where("username = ? OR email = ?", user.Username, user.Email).
		First(&existing).Error
	if err == nil {
		if existing.Email == user.Email {
			return apperr.AlreadyExists("Email already exists")
		}
		return apperr.AlreadyExists("Username already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Database(err)
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperr.AlreadyExists("Username or email already exists")
		}
		return apperr.Database(err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.InvalidIdentifier(id, err)
	}
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *UserRepository) first(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("No User Found")
	}
	if err != nil {
		return nil, apperr.Database(err)
	}
	return &user, nil
}

// UpdatePassword stores a new digest and invalidates any pending recovery code.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, digest string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(map[string]any{
		"password":           digest,
		"recovery_code":      "",
		"recovery_issued_at": nil,
		"recovery_attempts":  0,
	})
	if res.Error != nil {
		return apperr.Database(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("No User Found")
	}
	return nil
}

func (r *UserRepository) SetRecoveryCode(ctx context.Context, id, code string, issuedAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(map[string]any{
		"recovery_code":      code,
		"recovery_issued_at": issuedAt,
		"recovery_attempts":  0,
	})
	if res.Error != nil {
		return apperr.Database(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("No User Found")
	}
	return nil
}

// RecordRecoveryMiss counts a wrong recovery code and, in the same
// statement, discards the pending code once maxAttempts misses are reached.
func (r *UserRepository) RecordRecoveryMiss(ctx context.Context, id string, maxAttempts int) error {
	reached := "recovery_attempts + 1 >= ?"
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(map[string]any{
		"recovery_attempts":  gorm.Expr("recovery_attempts + 1"),
		"recovery_code":      gorm.Expr("CASE WHEN "+reached+" THEN '' ELSE recovery_code END", maxAttempts),
		"recovery_issued_at": gorm.Expr("CASE WHEN "+reached+" THEN NULL ELSE recovery_issued_at END", maxAttempts),
	})
	if res.Error != nil {
		return apperr.Database(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("No User Found")
	}
	return nil
}
