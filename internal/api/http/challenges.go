package http

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/GriffinCanCode/Playground/backend/internal/domain/challenge"
	"github.com/GriffinCanCode/Playground/backend/internal/domain/playground"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/playground.html"))

type pageData struct {
	Challenge   challenge.Challenge
	Description template.HTML
	Kinds       []playground.EditorView
	Active      playground.Kind
	StreamPath  string
}

// ListChallenges lists the catalog, default challenge first
func (h *Handlers) ListChallenges(c *gin.Context) {
	catalog := h.sessions.Catalog()
	c.JSON(http.StatusOK, gin.H{
		"challenges": catalog.List(),
		"total":      catalog.Len(),
	})
}

// ChallengePage serves the editor page of :challengeId. Unknown IDs get the
// default challenge.
func (h *Handlers) ChallengePage(c *gin.Context) {
	ch := h.sessions.Catalog().Resolve(c.Param("challengeId"))

	data := pageData{
		Challenge: ch,
		// sanitized by the catalog on insertion
		Description: template.HTML(ch.Description),
		Active:      playground.DefaultKind,
		StreamPath:  "/sessions/stream?challenge=" + template.URLQueryEscaper(ch.ID),
	}
	placeholders := ch.Placeholders()
	for _, kind := range playground.Kinds() {
		text, ok := placeholders[kind]
		if !ok {
			text = kind.Placeholder()
		}
		data.Kinds = append(data.Kinds, playground.EditorView{
			Kind:     kind,
			Language: kind.Language(),
			FileName: kind.FileName(),
			Text:     text,
		})
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := pageTemplate.Execute(c.Writer, data); err != nil {
		h.logger.Error("Failed to render challenge page",
			zap.String("challenge", ch.ID),
			zap.Error(err),
		)
	}
}
