// Package validation checks mutation payloads before they reach the
// store and sanitizes block payloads before persistence.
package validation

import (
	"regexp"
	"strconv"
	"time"

	"stanza/apierr"
	"stanza/common"
	"stanza/models"
	"stanza/workflow"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// ContentInput is the entity-shaped mutation body shared by all four
// content types. Blocks is nil when the caller did not touch the block
// list; an empty non-nil list clears it.
type ContentInput struct {
	Slug        string            `json:"slug"`
	Locale      string            `json:"locale"`
	Title       string            `json:"title"`
	Status      string            `json:"status"`
	ScheduledAt *time.Time        `json:"scheduled_at"`
	Seo         *models.Seo       `json:"seo"`
	Blocks      *[]BlockInput     `json:"blocks"`
}

// BlockInput is one block descriptor. Order is optional; when absent the
// descriptor's position in the list is used.
type BlockInput struct {
	Type  string         `json:"type"`
	Data  map[string]any `json:"data"`
	Order *int           `json:"order"`
}

// BlockParentInput carries the wire-level parent references of a
// standalone block create. Exactly one must be set.
type BlockParentInput struct {
	PageID string `json:"page_id"`
	PostID string `json:"post_id"`
	CaseID string `json:"case_id"`
}

// ValidateContent checks the scalar fields of a create/update body and
// normalizes defaults (locale, status). Field violations accumulate so
// the caller sees every problem at once.
func ValidateContent(in *ContentInput, now time.Time) error {
	var fields []apierr.FieldError

	if in.Slug == "" {
		fields = append(fields, apierr.FieldError{Field: "slug", Message: "required"})
	} else if !slugPattern.MatchString(in.Slug) {
		fields = append(fields, apierr.FieldError{Field: "slug", Message: "must match ^[a-z0-9-]+$"})
	}

	if in.Locale == "" {
		in.Locale = common.DefaultLocale
	} else if !common.ValidLocale(in.Locale) {
		fields = append(fields, apierr.FieldError{Field: "locale", Message: "unsupported locale"})
	}

	if in.Title == "" {
		fields = append(fields, apierr.FieldError{Field: "title", Message: "required"})
	}

	if in.Status == "" {
		in.Status = workflow.StatusDraft
	} else if !workflow.ValidStatus(in.Status) {
		fields = append(fields, apierr.FieldError{Field: "status", Message: "unknown status"})
	}

	if in.Blocks != nil {
		fields = append(fields, checkBlocks(*in.Blocks)...)
	}

	if len(fields) > 0 {
		return &apierr.ValidationError{Fields: fields}
	}

	if err := workflow.CheckSchedule(in.Status, in.ScheduledAt, now); err != nil {
		return err
	}

	return nil
}

// ValidateBlocks checks a standalone block list (block-level endpoints).
func ValidateBlocks(blocks []BlockInput) error {
	if fields := checkBlocks(blocks); len(fields) > 0 {
		return &apierr.ValidationError{Fields: fields}
	}
	return nil
}

func checkBlocks(blocks []BlockInput) []apierr.FieldError {
	var fields []apierr.FieldError
	for i, b := range blocks {
		if !KnownBlockType(b.Type) {
			fields = append(fields, apierr.FieldError{
				Field:   blockField(i, "type"),
				Message: "unknown block type",
			})
		}
		if b.Order != nil && *b.Order < 0 {
			fields = append(fields, apierr.FieldError{
				Field:   blockField(i, "order"),
				Message: "must be a non-negative integer",
			})
		}
	}
	return fields
}

func blockField(i int, name string) string {
	return "blocks[" + strconv.Itoa(i) + "]." + name
}

// ValidateBlockParent enforces exactly-one-parent on the wire format.
// Zero or multiple references is a validation failure, caught before any
// store access.
func ValidateBlockParent(in BlockParentInput) (parentType, parentID string, err error) {
	set := 0
	if in.PageID != "" {
		set++
		parentType, parentID = models.ParentPage, in.PageID
	}
	if in.PostID != "" {
		set++
		parentType, parentID = models.ParentPost, in.PostID
	}
	if in.CaseID != "" {
		set++
		parentType, parentID = models.ParentCase, in.CaseID
	}

	if set != 1 {
		return "", "", apierr.Invalid("parent", "exactly one of page_id, post_id, case_id must be set")
	}
	return parentType, parentID, nil
}
