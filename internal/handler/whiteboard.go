package handler

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"collabboard/internal/auth"
	"collabboard/internal/board"
	"collabboard/internal/model"
)

// WhiteboardHandler 보드 CRUD/공유 핸들러
type WhiteboardHandler struct {
	db  *gorm.DB
	hub *board.Hub
}

// NewWhiteboardHandler WhiteboardHandler 생성
func NewWhiteboardHandler(db *gorm.DB, hub *board.Hub) *WhiteboardHandler {
	return &WhiteboardHandler{db: db, hub: hub}
}

// CreateWhiteboardRequest 보드 생성 요청
type CreateWhiteboardRequest struct {
	Title string `json:"title"`
}

// SaveContentRequest 전체 요소 배열 저장 요청
type SaveContentRequest struct {
	Content []model.Element `json:"content"`
}

// ShareRequest 초대 코드 발급 요청
type ShareRequest struct {
	RecipientEmail string `json:"recipientEmail"`
}

// JoinRequest 초대 코드로 참가 요청
type JoinRequest struct {
	ShareCode string `json:"shareCode"`
}

// Create 새 보드 생성 (생성자가 소유자 겸 첫 참가자)
func (h *WhiteboardHandler) Create(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*auth.Claims)

	var req CreateWhiteboardRequest
	if err := c.BodyParser(&req); err != nil || req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "title is required",
		})
	}

	whiteboard := model.Whiteboard{
		ID:      uuid.NewString(),
		Title:   req.Title,
		OwnerID: claims.UserID,
		Content: "[]",
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&whiteboard).Error; err != nil {
			return err
		}
		participant := model.WhiteboardParticipant{
			WhiteboardID: whiteboard.ID,
			UserID:       claims.UserID,
		}
		return tx.Create(&participant).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create whiteboard",
		})
	}

	return c.JSON(whiteboard)
}

// Get 보드 요소 조회 (초기 로드). 활성 방이 있으면 라이브 상태를,
// 없으면 저장소 상태를 돌려준다.
func (h *WhiteboardHandler) Get(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*auth.Claims)
	id := c.Params("id")

	whiteboard, err := h.findBoard(id)
	if err != nil {
		return h.boardError(c, err)
	}

	if !h.isParticipant(id, claims.UserID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Access denied",
		})
	}

	// Live room state includes operations not yet flushed to the store.
	if elements, ok := h.hub.Elements(id); ok {
		return c.JSON(elements)
	}

	elements := make([]model.Element, 0)
	if whiteboard.Content != "" {
		if err := json.Unmarshal([]byte(whiteboard.Content), &elements); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "corrupt whiteboard content",
			})
		}
	}
	return c.JSON(elements)
}

// Save 전체 요소 배열 저장
func (h *WhiteboardHandler) Save(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*auth.Claims)
	id := c.Params("id")

	if _, err := h.findBoard(id); err != nil {
		return h.boardError(c, err)
	}
	if !h.isParticipant(id, claims.UserID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Access denied",
		})
	}

	var req SaveContentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.Content == nil {
		req.Content = []model.Element{}
	}

	data, err := json.Marshal(req.Content)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid content",
		})
	}

	if err := h.db.Model(&model.Whiteboard{}).Where("id = ?", id).
		Update("content", string(data)).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to save whiteboard",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}

// GetAllForUser 사용자의 보드 목록 조회 (본인만)
func (h *WhiteboardHandler) GetAllForUser(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*auth.Claims)
	username := c.Params("username")

	if username != claims.Username {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Access denied",
		})
	}

	var boards []model.Whiteboard
	err := h.db.
		Joins("JOIN whiteboard_participants ON whiteboard_participants.whiteboard_id = whiteboards.id").
		Where("whiteboard_participants.user_id = ?", claims.UserID).
		Preload("Owner").
		Find(&boards).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list whiteboards",
		})
	}

	return c.JSON(boards)
}

// Share 초대 코드 발급 (소유자만, 이메일에 바인딩)
func (h *WhiteboardHandler) Share(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*auth.Claims)
	id := c.Params("id")

	var req ShareRequest
	if err := c.BodyParser(&req); err != nil || req.RecipientEmail == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "recipientEmail is required",
		})
	}
	if req.RecipientEmail == claims.Email {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You can't invite yourself",
		})
	}

	whiteboard, err := h.findBoard(id)
	if err != nil {
		return h.boardError(c, err)
	}
	if whiteboard.OwnerID != claims.UserID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Access denied",
		})
	}

	shareCode, err := generateShareCode()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to generate share code",
		})
	}

	invitation := model.InvitationCode{
		WhiteboardID: whiteboard.ID,
		Code:         shareCode,
		Email:        req.RecipientEmail,
	}
	if err := h.db.Create(&invitation).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to save share code",
		})
	}

	return c.JSON(fiber.Map{
		"shareCode": shareCode,
		"message":   "Share this code/link with the intended user to join the whiteboard",
	})
}

// Join 초대 코드로 기존 보드 참가
func (h *WhiteboardHandler) Join(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*auth.Claims)

	var req JoinRequest
	if err := c.BodyParser(&req); err != nil || req.ShareCode == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "shareCode is required",
		})
	}

	var invitation model.InvitationCode
	err := h.db.Where("code = ?", req.ShareCode).First(&invitation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Invalid invitation code",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "database error",
		})
	}

	if invitation.Email != claims.Email {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "This invitation is not intended for you",
		})
	}

	if h.isParticipant(invitation.WhiteboardID, claims.UserID) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"msg": "User is already a participant",
		})
	}

	participant := model.WhiteboardParticipant{
		WhiteboardID: invitation.WhiteboardID,
		UserID:       claims.UserID,
	}
	if err := h.db.Create(&participant).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to join whiteboard",
		})
	}

	whiteboard, err := h.findBoard(invitation.WhiteboardID)
	if err != nil {
		return h.boardError(c, err)
	}
	return c.JSON(whiteboard)
}

// Delete 보드 삭제 (소유자만)
func (h *WhiteboardHandler) Delete(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*auth.Claims)
	id := c.Params("id")

	whiteboard, err := h.findBoard(id)
	if err != nil {
		return h.boardError(c, err)
	}
	if whiteboard.OwnerID != claims.UserID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"msg": "Access denied",
		})
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("whiteboard_id = ?", id).Delete(&model.WhiteboardParticipant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("whiteboard_id = ?", id).Delete(&model.InvitationCode{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Whiteboard{}, "id = ?", id).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to delete whiteboard",
		})
	}

	return c.JSON(fiber.Map{"message": "Whiteboard deleted successfully"})
}

func (h *WhiteboardHandler) findBoard(id string) (*model.Whiteboard, error) {
	var whiteboard model.Whiteboard
	if err := h.db.Where("id = ?", id).First(&whiteboard).Error; err != nil {
		return nil, err
	}
	return &whiteboard, nil
}

func (h *WhiteboardHandler) boardError(c *fiber.Ctx, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Whiteboard not found",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "database error",
	})
}

func (h *WhiteboardHandler) isParticipant(whiteboardID string, userID int64) bool {
	var count int64
	h.db.Model(&model.WhiteboardParticipant{}).
		Where("whiteboard_id = ? AND user_id = ?", whiteboardID, userID).
		Count(&count)
	return count > 0
}

// generateShareCode 20바이트 난수 hex 코드
func generateShareCode() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
