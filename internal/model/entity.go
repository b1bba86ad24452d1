package model

import (
	"time"
)

// User 계정
type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Whiteboards []WhiteboardParticipant `gorm:"foreignKey:UserID" json:"whiteboards,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// Whiteboard 보드 문서
type Whiteboard struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Title     string    `gorm:"type:varchar(200);not null" json:"title"`
	OwnerID   int64     `gorm:"not null" json:"owner_id"`
	Content   string    `gorm:"type:jsonb;not null;default:'[]'" json:"content"` // JSON array of elements
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Owner        User                    `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Participants []WhiteboardParticipant `gorm:"foreignKey:WhiteboardID" json:"participants,omitempty"`
	Invitations  []InvitationCode        `gorm:"foreignKey:WhiteboardID" json:"invitations,omitempty"`
}

func (Whiteboard) TableName() string {
	return "whiteboards"
}

// WhiteboardParticipant 보드 참가자
type WhiteboardParticipant struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	WhiteboardID string    `gorm:"type:uuid;not null;index:idx_board_user,unique" json:"whiteboard_id"`
	UserID       int64     `gorm:"not null;index:idx_board_user,unique" json:"user_id"`
	JoinedAt     time.Time `gorm:"autoCreateTime" json:"joined_at"`

	// Relations
	Whiteboard Whiteboard `gorm:"foreignKey:WhiteboardID" json:"whiteboard,omitempty"`
	User       User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (WhiteboardParticipant) TableName() string {
	return "whiteboard_participants"
}

// InvitationCode 보드 초대 코드 (이메일 바인딩)
type InvitationCode struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	WhiteboardID string    `gorm:"type:uuid;not null;index" json:"whiteboard_id"`
	Code         string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"`
	Email        string    `gorm:"type:varchar(255);not null" json:"email"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Whiteboard Whiteboard `gorm:"foreignKey:WhiteboardID" json:"whiteboard,omitempty"`
}

func (InvitationCode) TableName() string {
	return "invitation_codes"
}
