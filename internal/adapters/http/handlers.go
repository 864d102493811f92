package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/danielavelez12/crosstalk/internal/domain"
	"github.com/danielavelez12/crosstalk/internal/store"
	"github.com/danielavelez12/crosstalk/internal/tts"
)

// maxSampleBytes caps the uploaded voice sample.
const maxSampleBytes = 16 << 20

type Handlers struct {
	Store  *store.Store
	Cloner tts.VoiceCloner
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handlers) Signup(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Language string `json:"language"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	user, err := domain.NewUser(req.Username, req.Language)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Store.CreateUser(c.Request.Context(), user); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("signup failed")
		c.JSON(http.StatusConflict, gin.H{"error": "username taken"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// Login is a plain lookup; there is no credential model.
func (h *Handlers) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
	}
	if err := c.BindJSON(&req); err != nil || req.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	user, err := h.Store.GetUserByName(c.Request.Context(), req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown user"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handlers) UpdateLanguage(c *gin.Context) {
	id := domain.UserID(c.Param("id"))
	var req struct {
		Language string `json:"language"`
	}
	if err := c.BindJSON(&req); err != nil || req.Language == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if err := h.Store.UpdateLanguage(c.Request.Context(), id, req.Language); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown user"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateVoice clones a voice from an uploaded sample and stores the
// engine's id for the user.
func (h *Handlers) CreateVoice(c *gin.Context) {
	userID := domain.UserID(c.PostForm("user_id"))
	name := c.PostForm("name")
	if userID == "" || name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user_id or name"})
		return
	}
	if _, err := h.Store.GetUser(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown user"})
		return
	}

	file, header, err := c.Request.FormFile("sample")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing sample"})
		return
	}
	defer file.Close()
	if header.Size > maxSampleBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "sample too large"})
		return
	}

	engineID, err := h.Cloner.CreateVoice(c.Request.Context(), name, file, header.Filename)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("user", string(userID)).Msg("voice clone failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "voice clone failed"})
		return
	}

	voice := domain.NewVoice(userID, name, engineID)
	if err := h.Store.CreateVoice(c.Request.Context(), voice); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("voice persist failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "voice persist failed"})
		return
	}
	c.JSON(http.StatusOK, voice)
}

func (h *Handlers) GetVoice(c *gin.Context) {
	id := domain.UserID(c.Param("id"))
	voice, err := h.Store.VoiceForUser(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no voice"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, voice)
}
