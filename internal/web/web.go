// Package web serves the embedded single-page map browser.
package web

import (
	"bytes"
	_ "embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed index.html
var indexHTML string

var indexTmpl = template.Must(template.New("index").Parse(indexHTML))

// View is the initial map view handed to the page.
type View struct {
	CenterLat           float64
	CenterLng           float64
	Zoom                int
	NarrowViewportWidth int
}

// Register mounts the page at /. The template is rendered once.
func Register(r *gin.Engine, v View) error {
	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, v); err != nil {
		return err
	}
	page := buf.Bytes()

	r.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", page)
	})
	return nil
}
