package models

import "time"

// NoticeType is the category of a notice
type NoticeType string

const (
	NoticeTypeAnnouncement NoticeType = "announcement"
	NoticeTypeExam         NoticeType = "exam"
	NoticeTypeEvent        NoticeType = "event"
	NoticeTypeEmergency    NoticeType = "emergency"
)

// IsValid reports whether t is a known notice type.
func (t NoticeType) IsValid() bool {
	switch t {
	case NoticeTypeAnnouncement, NoticeTypeExam, NoticeTypeEvent, NoticeTypeEmergency:
		return true
	}
	return false
}

// Audience selects which users receive a notice.
type Audience string

const (
	AudienceAll     Audience = "all"
	AudienceStudent Audience = "student"
	AudienceTeacher Audience = "teacher"
	AudienceAdmin   Audience = "admin"
)

// IsValid reports whether a is a known audience.
func (a Audience) IsValid() bool {
	switch a {
	case AudienceAll, AudienceStudent, AudienceTeacher, AudienceAdmin:
		return true
	}
	return false
}

// Matches reports whether a user with role r belongs to the audience.
func (a Audience) Matches(r RoleType) bool {
	return a == AudienceAll || string(a) == string(r)
}

// Notice is a published announcement
type Notice struct {
	ID             string     `json:"id" db:"id"`
	Title          string     `json:"title" db:"title"`
	Content        string     `json:"content" db:"content"`
	Type           NoticeType `json:"type" db:"type"`
	TargetAudience Audience   `json:"targetAudience" db:"target_audience"`
	AuthorID       string     `json:"authorId" db:"author_id"`
	AuthorName     string     `json:"authorName" db:"author_name"`
	IsActive       bool       `json:"isActive" db:"is_active"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty" db:"expires_at"`
	Attachments    []string   `json:"attachments" db:"attachments"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time  `json:"updatedAt" db:"updated_at"`
}

// NoticeChanges is a partial notice update. Nil fields are left untouched.
type NoticeChanges struct {
	Title          *string
	Content        *string
	Type           *NoticeType
	TargetAudience *Audience
	ExpiresAt      *time.Time
	IsActive       *bool
	Attachments    []string
}

// IsEmpty reports whether no field is set.
func (c NoticeChanges) IsEmpty() bool {
	return c.Title == nil && c.Content == nil && c.Type == nil && c.TargetAudience == nil &&
		c.ExpiresAt == nil && c.IsActive == nil && c.Attachments == nil
}

// Apply copies the set fields onto n.
func (c NoticeChanges) Apply(n *Notice) {
	if c.Title != nil {
		n.Title = *c.Title
	}
	if c.Content != nil {
		n.Content = *c.Content
	}
	if c.Type != nil {
		n.Type = *c.Type
	}
	if c.TargetAudience != nil {
		n.TargetAudience = *c.TargetAudience
	}
	if c.ExpiresAt != nil {
		n.ExpiresAt = c.ExpiresAt
	}
	if c.IsActive != nil {
		n.IsActive = *c.IsActive
	}
	if c.Attachments != nil {
		n.Attachments = c.Attachments
	}
}

// NoticeFilter narrows notice listings.
type NoticeFilter struct {
	Type           *NoticeType
	TargetAudience *Audience
	ActiveOnly     bool
	Limit          int
}
