package controllers

import (
	"bytes"
	"io"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vnkhanh/survey-collector/utils"
)

const maxUploadSize = 10 << 20

// UploadFile stores one multipart file and returns the object a
// FILE_UPLOAD answer carries: {fileName, fileUrl, size, mimeType}.
func UploadFile(store utils.FileStorage) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "El almacenamiento de archivos no está configurado"})
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize+1<<20)
		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No se recibió ningún archivo"})
			return
		}
		if fileHeader.Size > maxUploadSize {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "El archivo supera los 10 MB"})
			return
		}

		f, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No se pudo leer el archivo"})
			return
		}
		defer f.Close()

		head := make([]byte, 512)
		n, err := io.ReadFull(f, head)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No se pudo leer el archivo"})
			return
		}
		head = head[:n]
		if n == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "El archivo está vacío"})
			return
		}
		mimeType := http.DetectContentType(head)

		name := filepath.Base(fileHeader.Filename)
		objectPath := utils.ObjectPath("answers", uuid.NewString(), name)
		url, err := store.Upload(objectPath, io.MultiReader(bytes.NewReader(head), f), mimeType)
		if err != nil {
			utils.Logger.WithField("object", objectPath).WithError(err).Error("upload failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": "No se pudo subir el archivo"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"fileName": name,
			"fileUrl":  url,
			"size":     fileHeader.Size,
			"mimeType": mimeType,
		})
	}
}
