// Package blocks implements the block composition engine: a parent's
// block set is always replaced wholesale, inside one transaction.
package blocks

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"stanza/apierr"
	"stanza/models"
)

// Descriptor is one incoming block: a type tag, an already-sanitized
// payload, and an optional explicit order.
type Descriptor struct {
	Type  string
	Data  datatypes.JSON
	Order *int
}

type Engine struct {
	db *gorm.DB
}

func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// Replace swaps the parent's entire block set for the given descriptors
// in a single transaction. Blocks carry no stable identity across a full
// save, so delete-all/insert-all beats diffing. The transaction keeps a
// parent from ending up with zero blocks when a mid-replacement write
// fails.
//
// Order resolution: an explicit Order wins; otherwise the descriptor's
// zero-based position in the input is stamped.
func (e *Engine) Replace(parentType, parentID string, descriptors []Descriptor) ([]models.Block, error) {
	var result []models.Block

	err := e.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		result, txErr = ReplaceTx(tx, parentType, parentID, descriptors)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ReplaceTx is Replace inside a caller-owned transaction, used when an
// entity save and its block replacement must commit together.
func ReplaceTx(tx *gorm.DB, parentType, parentID string, descriptors []Descriptor) ([]models.Block, error) {
	if err := checkParent(tx, parentType, parentID); err != nil {
		return nil, err
	}

	if err := tx.Where("parent_type = ? AND parent_id = ?", parentType, parentID).
		Delete(&models.Block{}).Error; err != nil {
		return nil, fmt.Errorf("delete blocks for %s %s: %w", parentType, parentID, err)
	}

	for i, d := range descriptors {
		order := i
		if d.Order != nil {
			order = *d.Order
		}

		block := models.Block{
			ID:         uuid.NewString(),
			ParentType: parentType,
			ParentID:   parentID,
			Type:       d.Type,
			Data:       d.Data,
			Order:      order,
		}
		if err := tx.Create(&block).Error; err != nil {
			return nil, fmt.Errorf("insert block %d for %s %s: %w", i, parentType, parentID, err)
		}
	}

	return ListTx(tx, parentType, parentID)
}

// ListTx re-reads a parent's blocks in render order. Equal sort_order
// values fall back to insertion (id) order.
func ListTx(tx *gorm.DB, parentType, parentID string) ([]models.Block, error) {
	var out []models.Block
	err := tx.Where("parent_type = ? AND parent_id = ?", parentType, parentID).
		Order("sort_order ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list blocks for %s %s: %w", parentType, parentID, err)
	}
	return out, nil
}

// List reads a parent's blocks outside any transaction.
func (e *Engine) List(parentType, parentID string) ([]models.Block, error) {
	return ListTx(e.db, parentType, parentID)
}

// Append inserts one block without disturbing the rest of the set. When
// no explicit order is given the block lands after the current last one.
// Returns the parent's full ordered set.
func (e *Engine) Append(parentType, parentID string, d Descriptor) ([]models.Block, error) {
	var result []models.Block

	err := e.db.Transaction(func(tx *gorm.DB) error {
		if err := checkParent(tx, parentType, parentID); err != nil {
			return err
		}

		order := 0
		if d.Order != nil {
			order = *d.Order
		} else {
			var max *int
			row := tx.Model(&models.Block{}).
				Where("parent_type = ? AND parent_id = ?", parentType, parentID).
				Select("MAX(sort_order)").Row()
			if err := row.Scan(&max); err != nil {
				return fmt.Errorf("max order for %s %s: %w", parentType, parentID, err)
			}
			// max is nil when the parent has no blocks yet.
			if max != nil {
				order = *max + 1
			}
		}

		block := models.Block{
			ID:         uuid.NewString(),
			ParentType: parentType,
			ParentID:   parentID,
			Type:       d.Type,
			Data:       d.Data,
			Order:      order,
		}
		if err := tx.Create(&block).Error; err != nil {
			return fmt.Errorf("insert block for %s %s: %w", parentType, parentID, err)
		}

		var txErr error
		result, txErr = ListTx(tx, parentType, parentID)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func checkParent(tx *gorm.DB, parentType, parentID string) error {
	var model any
	switch parentType {
	case models.ParentPage:
		model = &models.Page{}
	case models.ParentPost:
		model = &models.BlogPost{}
	case models.ParentCase:
		model = &models.CaseStudy{}
	default:
		return apierr.Invalid("parent_type", "unknown parent type")
	}

	var count int64
	if err := tx.Model(model).Where("id = ?", parentID).Count(&count).Error; err != nil {
		return fmt.Errorf("check parent %s %s: %w", parentType, parentID, err)
	}
	if count == 0 {
		return apierr.ErrNotFound
	}
	return nil
}
