package models

import (
	"time"

	"gorm.io/datatypes"
)

// Roles, highest first. Rank comparisons live in the auth package.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleAuthor = "author"
)

// API key permission levels, coarse scale separate from roles.
const (
	LevelRead  = "read"
	LevelWrite = "write"
	LevelAdmin = "admin"
)

type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Name      string    `json:"name"`
	Role      string    `gorm:"size:20;not null;default:author" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ApiKey stores only a bcrypt hash of the raw key plus a SHA-256
// fingerprint for lookup. The raw key is shown once, at issue time.
type ApiKey struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	UserID      string     `gorm:"size:36;not null;index" json:"user_id"`
	Name        string     `json:"name"`
	Prefix      string     `gorm:"size:12;not null" json:"prefix"`
	Fingerprint string     `gorm:"size:64;uniqueIndex;not null" json:"-"`
	Hash        string     `gorm:"not null" json:"-"`
	Level       string     `gorm:"size:10;not null;default:read" json:"level"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Seo is the optional metadata block embedded in every content table.
type Seo struct {
	SeoTitle       string `json:"seo_title,omitempty"`
	SeoDescription string `json:"seo_description,omitempty"`
	SeoNoindex     bool   `json:"seo_noindex,omitempty"`
	SeoCanonical   string `json:"seo_canonical,omitempty"`
	SeoImage       string `json:"seo_image,omitempty"`
}

// ContentMeta carries the scalar fields shared by the four content tables.
// Slug and locale stay on each table because the composite unique index
// needs a per-table name.
type ContentMeta struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	Title       string     `gorm:"not null" json:"title"`
	Status      string     `gorm:"size:20;not null;default:draft;index" json:"status"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	Seo         Seo        `gorm:"embedded" json:"seo"`
	UpdatedBy   *string    `gorm:"size:36" json:"updated_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Page struct {
	ContentMeta
	Slug   string `gorm:"size:200;not null;uniqueIndex:idx_pages_slug_locale" json:"slug"`
	Locale string `gorm:"size:5;not null;default:en;uniqueIndex:idx_pages_slug_locale" json:"locale"`
}

type BlogPost struct {
	ContentMeta
	Slug   string `gorm:"size:200;not null;uniqueIndex:idx_blog_posts_slug_locale" json:"slug"`
	Locale string `gorm:"size:5;not null;default:en;uniqueIndex:idx_blog_posts_slug_locale" json:"locale"`
}

type CaseStudy struct {
	ContentMeta
	Slug   string `gorm:"size:200;not null;uniqueIndex:idx_case_studies_slug_locale" json:"slug"`
	Locale string `gorm:"size:5;not null;uniqueIndex:idx_case_studies_slug_locale" json:"locale"`
}

type Service struct {
	ContentMeta
	Slug   string `gorm:"size:200;not null;uniqueIndex:idx_services_slug_locale" json:"slug"`
	Locale string `gorm:"size:5;not null;uniqueIndex:idx_services_slug_locale" json:"locale"`
}

// Block parent types. Services do not own blocks.
const (
	ParentPage = "page"
	ParentPost = "post"
	ParentCase = "case"
)

// Block is an ordered, typed unit of content owned by exactly one parent.
// The (parent_type, parent_id) pair keeps "exactly one parent" structural
// instead of spreading it over three nullable foreign keys.
type Block struct {
	ID         string         `gorm:"primaryKey;size:36" json:"id"`
	ParentType string         `gorm:"size:10;not null;index:idx_blocks_parent" json:"parent_type"`
	ParentID   string         `gorm:"size:36;not null;index:idx_blocks_parent" json:"parent_id"`
	Type       string         `gorm:"size:30;not null" json:"type"`
	Data       datatypes.JSON `json:"data"`
	Order      int            `gorm:"column:sort_order;not null" json:"order"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ContentRecord is the shared surface the request pipeline works against,
// implemented by all four content tables.
type ContentRecord interface {
	Meta() *ContentMeta
	GetSlug() string
	GetLocale() string
	SetSlug(slug string)
	SetLocale(locale string)
}

func (p *Page) Meta() *ContentMeta { return &p.ContentMeta }
func (p *Page) GetSlug() string    { return p.Slug }
func (p *Page) GetLocale() string  { return p.Locale }
func (p *Page) SetSlug(s string)   { p.Slug = s }
func (p *Page) SetLocale(l string) { p.Locale = l }

func (p *BlogPost) Meta() *ContentMeta { return &p.ContentMeta }
func (p *BlogPost) GetSlug() string    { return p.Slug }
func (p *BlogPost) GetLocale() string  { return p.Locale }
func (p *BlogPost) SetSlug(s string)   { p.Slug = s }
func (p *BlogPost) SetLocale(l string) { p.Locale = l }

func (c *CaseStudy) Meta() *ContentMeta { return &c.ContentMeta }
func (c *CaseStudy) GetSlug() string    { return c.Slug }
func (c *CaseStudy) GetLocale() string  { return c.Locale }
func (c *CaseStudy) SetSlug(s string)   { c.Slug = s }
func (c *CaseStudy) SetLocale(l string) { c.Locale = l }

func (s *Service) Meta() *ContentMeta { return &s.ContentMeta }
func (s *Service) GetSlug() string    { return s.Slug }
func (s *Service) GetLocale() string  { return s.Locale }
func (s *Service) SetSlug(sl string)  { s.Slug = sl }
func (s *Service) SetLocale(l string) { s.Locale = l }
