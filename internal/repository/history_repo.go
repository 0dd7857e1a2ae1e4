package repository

import (
	"context"
	"errors"

	"github.com/timmy/devmeme/internal/domain"
	"gorm.io/gorm"
)

// HistoryRepository stores the session's generated memes, newest first.
type HistoryRepository struct {
	db *gorm.DB
}

// NewHistoryRepository creates a new HistoryRepository.
// Parameters:
//   - db: GORM database handle used for queries.
//
// Returns:
//   - *HistoryRepository: repository instance bound to db.
func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Prepend inserts meme at the front of the history. Its Seq is assigned
// here, one above the current maximum.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - meme: meme to store; Seq is overwritten.
//
// Returns:
//   - error: non-nil if the insert fails.
func (r *HistoryRepository) Prepend(ctx context.Context, meme *domain.GeneratedMeme) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxSeq int64
		if err := tx.Model(&domain.GeneratedMeme{}).
			Select("COALESCE(MAX(seq), 0)").
			Scan(&maxSeq).Error; err != nil {
			return err
		}
		meme.Seq = maxSeq + 1
		return tx.Create(meme).Error
	})
}

// List returns the whole history, newest first.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//
// Returns:
//   - []domain.GeneratedMeme: memes in display order.
//   - error: non-nil if the query fails.
func (r *HistoryRepository) List(ctx context.Context) ([]domain.GeneratedMeme, error) {
	var memes []domain.GeneratedMeme
	if err := r.db.WithContext(ctx).Order("seq DESC").Find(&memes).Error; err != nil {
		return nil, err
	}
	return memes, nil
}

// Latest returns the newest meme, or ErrMemeNotFound when history is empty.
func (r *HistoryRepository) Latest(ctx context.Context) (*domain.GeneratedMeme, error) {
	var meme domain.GeneratedMeme
	err := r.db.WithContext(ctx).Order("seq DESC").First(&meme).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrMemeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &meme, nil
}

// GetByID retrieves a meme by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: meme ID.
//
// Returns:
//   - *domain.GeneratedMeme: meme if found.
//   - error: domain.ErrMemeNotFound if absent.
func (r *HistoryRepository) GetByID(ctx context.Context, id string) (*domain.GeneratedMeme, error) {
	var meme domain.GeneratedMeme
	err := r.db.WithContext(ctx).First(&meme, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrMemeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &meme, nil
}

// Delete removes a meme. The relative order of the rest is unchanged.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: meme ID.
//
// Returns:
//   - error: domain.ErrMemeNotFound if no meme had that ID.
func (r *HistoryRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&domain.GeneratedMeme{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrMemeNotFound
	}
	return nil
}

// Count returns the number of memes in the history.
func (r *HistoryRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.GeneratedMeme{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
