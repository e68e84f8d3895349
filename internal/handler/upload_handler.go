package handler

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
)

const maxUploadSize = 10 << 20

var imageExtensions = map[string]string{
	"jpeg": ".jpg",
	"png":  ".png",
	"gif":  ".gif",
	"webp": ".webp",
}

// UploadImage 保存文章配图，返回访问地址与尺寸。
func (a *API) UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, codeBadRequest, "image file is required")
		return
	}
	if file.Size > maxUploadSize {
		respondError(c, http.StatusBadRequest, codeBadRequest, "image exceeds 10MB limit")
		return
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, codeBadRequest, "unable to read upload")
		return
	}
	config, format, err := image.DecodeConfig(src)
	src.Close()
	if err != nil {
		respondError(c, http.StatusBadRequest, codeBadRequest, "only jpeg, png, gif and webp images are allowed")
		return
	}
	ext, ok := imageExtensions[format]
	if !ok {
		respondError(c, http.StatusBadRequest, codeBadRequest, "unsupported image format "+format)
		return
	}

	if err := os.MkdirAll(a.uploadDir, 0o755); err != nil {
		a.respondServiceError(c, fmt.Errorf("create upload dir: %w", err))
		return
	}

	filename := fmt.Sprintf("%s-%s%s", time.Now().Format("20060102"), uuid.New().String(), ext)
	if err := c.SaveUploadedFile(file, filepath.Join(a.uploadDir, filename)); err != nil {
		a.respondServiceError(c, fmt.Errorf("save upload: %w", err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"data": gin.H{
			"url":      path.Join(a.uploadURL, filename),
			"filename": filename,
			"width":    config.Width,
			"height":   config.Height,
			"format":   format,
		},
	})
}
