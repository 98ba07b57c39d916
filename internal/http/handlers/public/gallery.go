package public

import (
	"github.com/framestock/internal/gallery"
	"github.com/framestock/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GalleryAccessView 图库访问状态
type GalleryAccessView struct {
	Decision gallery.Decision `json:"decision"`
	GatePath string           `json:"gate_path,omitempty"`
	Ticket   *gallery.Ticket  `json:"ticket,omitempty"`
}

// GetGalleryAccess 查询当前会话的图库访问判定
func (h *Handler) GetGalleryAccess(c *gin.Context) {
	sessionID, ok := getSessionID(c)
	if !ok {
		return
	}
	view := GalleryAccessView{Decision: h.GalleryGate.Check(c.Request.Context(), sessionID)}
	if view.Decision == gallery.DecisionAllow {
		ticket, err := h.GalleryGate.Current(c.Request.Context(), sessionID)
		if err != nil {
			respondError(c, response.CodeInternal, "gallery access unavailable", err)
			return
		}
		view.Ticket = ticket
	} else {
		view.GatePath = h.Config.Gallery.GatePath
	}
	response.Success(c, view)
}

// StoreGalleryAccess 保存外部接口签发的访问凭证
func (h *Handler) StoreGalleryAccess(c *gin.Context) {
	sessionID, ok := getSessionID(c)
	if !ok {
		return
	}
	var ticket gallery.Ticket
	if err := c.ShouldBindJSON(&ticket); err != nil {
		respondError(c, response.CodeBadRequest, "invalid access ticket", err)
		return
	}
	if err := h.GalleryGate.Store(c.Request.Context(), sessionID, ticket); err != nil {
		respondWithMappedError(c, err, galleryErrorRules, response.CodeInternal, "gallery access save failed")
		return
	}
	response.Success(c, GalleryAccessView{Decision: gallery.DecisionAllow, Ticket: &ticket})
}

// ClearGalleryAccess 清除访问凭证
func (h *Handler) ClearGalleryAccess(c *gin.Context) {
	sessionID, ok := getSessionID(c)
	if !ok {
		return
	}
	if err := h.GalleryGate.Clear(c.Request.Context(), sessionID); err != nil {
		respondError(c, response.CodeInternal, "gallery access clear failed", err)
		return
	}
	response.Success(c, gin.H{"cleared": true})
}

// ListGalleryItems 私享图库入口，仅在凭证有效时可达；内容由外部目录接口提供
func (h *Handler) ListGalleryItems(c *gin.Context) {
	sessionID, ok := getSessionID(c)
	if !ok {
		return
	}
	ticket, err := h.GalleryGate.Current(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, response.CodeInternal, "gallery access unavailable", err)
		return
	}
	data := gin.H{"items": []interface{}{}}
	if ticket != nil {
		data["expires_at"] = ticket.ExpiresAt
	}
	response.Success(c, data)
}
