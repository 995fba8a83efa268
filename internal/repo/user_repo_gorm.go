package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"gin-user-service/internal/domain"
	"gin-user-service/pkg/utils"
)

// userRow SQL 后端的表结构；id 与文档库同为 24 位十六进制
type userRow struct {
	ID        string `gorm:"primaryKey;type:varchar(24)"`
	Email     string `gorm:"type:varchar(255);uniqueIndex;not null"`
	Password  string `gorm:"type:varchar(255);not null"`
	FirstName string `gorm:"type:varchar(128);not null"`
	LastName  string `gorm:"type:varchar(128);not null"`
}

func (userRow) TableName() string { return "users" }

func (r *userRow) toDomain() *domain.User {
	return &domain.User{
		ID:       r.ID,
		Email:    r.Email,
		Password: r.Password,
		Name:     domain.Name{FirstName: r.FirstName, LastName: r.LastName},
	}
}

type GormUserRepo struct{ db *gorm.DB }

func NewGormUserRepo(db *gorm.DB) *GormUserRepo { return &GormUserRepo{db: db} }

// Migrate 仅在 db.autoMigrate 开启时调用
func (r *GormUserRepo) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&userRow{})
}

func (r *GormUserRepo) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	row := userRow{
		ID:        utils.NewID(),
		Email:     u.Email,
		Password:  u.Password,
		FirstName: u.Name.FirstName,
		LastName:  u.Name.LastName,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, mapGormErr(err)
	}
	return row.toDomain(), nil
}

func (r *GormUserRepo) FindAll(ctx context.Context) ([]domain.User, error) {
	var rows []userRow
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(rows))
	for i := range rows {
		users = append(users, *rows[i].toDomain())
	}
	return users, nil
}

func (r *GormUserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var row userRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, mapGormErr(err)
	}
	return row.toDomain(), nil
}

func (r *GormUserRepo) UpdateByID(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	var row userRow
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			return err
		}
		if patch.Empty() {
			return nil
		}
		cols := map[string]any{}
		if patch.Email != nil {
			cols["email"] = *patch.Email
		}
		if patch.Password != nil {
			cols["password"] = *patch.Password
		}
		if patch.Name != nil {
			cols["first_name"] = patch.Name.FirstName
			cols["last_name"] = patch.Name.LastName
		}
		if err := tx.Model(&userRow{}).Where("id = ?", id).Updates(cols).Error; err != nil {
			return err
		}
		return tx.First(&row, "id = ?", id).Error
	})
	if err != nil {
		return nil, mapGormErr(err)
	}
	return row.toDomain(), nil
}

func (r *GormUserRepo) DeleteByID(ctx context.Context, id string) (*domain.User, error) {
	var row userRow
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&userRow{}, "id = ?", id).Error
	})
	if err != nil {
		return nil, mapGormErr(err)
	}
	return row.toDomain(), nil
}

func (r *GormUserRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func mapGormErr(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case isDupKey(err):
		return domain.ErrDuplicateEmail
	}
	return err
}

func isDupKey(err error) bool {
	// 按驱动错误文本匹配，不依赖 gorm.ErrDuplicatedKey（需开启 TranslateError）
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
