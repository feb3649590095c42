package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"grownet-api/models"
)

type ConnectionRepository struct {
	db *gorm.DB
}

func NewConnectionRepository(db *gorm.DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

// FindByPair returns the record for the unordered pair {a, b}, or
// gorm.ErrRecordNotFound.
func (r *ConnectionRepository) FindByPair(ctx context.Context, a, b string) (*models.Connection, error) {
	var conn models.Connection
	err := r.db.WithContext(ctx).Where("pair_key = ?", models.PairKey(a, b)).First(&conn).Error
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

func (r *ConnectionRepository) FindByID(ctx context.Context, id string) (*models.Connection, error) {
	var conn models.Connection
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&conn).Error
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

// Create inserts a new record. A second record for the same pair fails with
// gorm.ErrDuplicatedKey.
func (r *ConnectionRepository) Create(ctx context.Context, conn *models.Connection) error {
	conn.PairKey = models.PairKey(conn.RequesterID, conn.ReceiverID)
	return translateDuplicate(r.db.WithContext(ctx).Create(conn).Error)
}

// UpdateStatus moves the record from one status to another only if it is still
// in the expected status. It reports whether the row changed.
func (r *ConnectionRepository) UpdateStatus(ctx context.Context, id string, from, to models.ConnectionStatus) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Connection{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// DeleteWithStatus hard-deletes the record if it is still in the given status.
func (r *ConnectionRepository) DeleteWithStatus(ctx context.Context, id string, status models.ConnectionStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, status).
		Delete(&models.Connection{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListAccepted returns accepted records touching userID with both parties loaded.
func (r *ConnectionRepository) ListAccepted(ctx context.Context, userID string) ([]models.Connection, error) {
	var conns []models.Connection
	err := r.db.WithContext(ctx).Preload("Requester").Preload("Receiver").
		Where("(requester_id = ? OR receiver_id = ?) AND status = ?", userID, userID, models.ConnectionStatusAccepted).
		Order("updated_at DESC").
		Find(&conns).Error
	return conns, err
}

// ListPendingIncoming returns pending requests addressed to userID, newest first.
func (r *ConnectionRepository) ListPendingIncoming(ctx context.Context, userID string) ([]models.Connection, error) {
	var conns []models.Connection
	err := r.db.WithContext(ctx).Preload("Requester").
		Where("receiver_id = ? AND status = ?", userID, models.ConnectionStatusPending).
		Order("created_at DESC").
		Find(&conns).Error
	return conns, err
}

// ListPendingOutgoing returns pending requests sent by userID, newest first.
func (r *ConnectionRepository) ListPendingOutgoing(ctx context.Context, userID string) ([]models.Connection, error) {
	var conns []models.Connection
	err := r.db.WithContext(ctx).Preload("Receiver").
		Where("requester_id = ? AND status = ?", userID, models.ConnectionStatusPending).
		Order("created_at DESC").
		Find(&conns).Error
	return conns, err
}
