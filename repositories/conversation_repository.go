package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"grownet-api/models"
)

type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// FindOrCreatePrivate returns the private conversation for {a, b}, creating it
// on first use. When two callers race, the loser of the insert reads the
// winner's row, so both observe the same conversation.
func (r *ConversationRepository) FindOrCreatePrivate(ctx context.Context, a, b string) (*models.Conversation, error) {
	key := models.PairKey(a, b)

	conv, err := r.findByPairKey(ctx, key)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	participants := models.StringSliceType{a, b}
	if a > b {
		participants = models.StringSliceType{b, a}
	}
	conv = &models.Conversation{
		ID:             uuid.New().String(),
		Type:           models.ConversationTypePrivate,
		PairKey:        key,
		ParticipantIDs: participants,
	}

	err = translateDuplicate(r.db.WithContext(ctx).Create(conv).Error)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return r.findByPairKey(ctx, key)
	}
	if err != nil {
		return nil, err
	}
	return conv, nil
}

func (r *ConversationRepository) findByPairKey(ctx context.Context, key string) (*models.Conversation, error) {
	var conv models.Conversation
	if err := r.db.WithContext(ctx).Where("pair_key = ?", key).First(&conv).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *ConversationRepository) FindByID(ctx context.Context, id string) (*models.Conversation, error) {
	var conv models.Conversation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&conv).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListForUser returns the user's conversations, most recently active first.
// Private conversation pair keys always contain the participant id as one of
// their two halves.
func (r *ConversationRepository) ListForUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := r.db.WithContext(ctx).
		Where("pair_key LIKE ? OR pair_key LIKE ?", userID+":%", "%:"+userID).
		Order("COALESCE(last_message_at, created_at) DESC").
		Find(&convs).Error
	if err != nil {
		return nil, err
	}

	// LIKE can over-match ids containing ':'; confirm membership.
	out := convs[:0]
	for _, c := range convs {
		if c.HasParticipant(userID) {
			out = append(out, c)
		}
	}
	return out, nil
}

// AppendMessage stores the message and bumps the conversation's activity time.
func (r *ConversationRepository) AppendMessage(ctx context.Context, msg *models.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ?", msg.ConversationID).
			Updates(map[string]interface{}{
				"last_message_at": msg.CreatedAt,
				"updated_at":      time.Now(),
			}).Error
	})
}

// ListMessages returns up to limit messages older than before, newest first.
func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID string, before *time.Time, limit int) ([]models.Message, error) {
	query := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID)
	if before != nil {
		query = query.Where("created_at < ?", *before)
	}

	var msgs []models.Message
	err := query.Order("created_at DESC").Limit(limit).Find(&msgs).Error
	return msgs, err
}
