package api

import (
	"embed"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
)

// Embedded UI assets.
//
// The build process copies the dashboard production build output into
// internal/api/dist/ before compiling Go. Without a dashboard build the
// checked-in placeholder page is served instead.
//
// Example layout after build:
// internal/api/dist/
//
//	browser/
//	  index.html
//	  assets/
//	    ...
//	  *.js, *.css
//
//go:embed dist/browser/*
var embeddedUI embed.FS

func getEmbedFs() static.ServeFileSystem {
	fs, err := static.EmbedFolder(embeddedUI, "dist/browser")
	if err != nil {
		panic("failed to get embedded UI filesystem: " + err.Error())
	}
	return fs
}

// MountSPA serves the embedded dashboard at the root path. Unknown
// non-API routes fall back to index.html so client-side routing works.
func MountSPA(r *gin.Engine, logger *slog.Logger) {
	distFS := getEmbedFs()
	r.Use(static.Serve("/", distFS))

	r.NoRoute(func(c *gin.Context) {
		// Only serve index.html for non-API routes
		if !strings.HasPrefix(c.Request.RequestURI, "/api") {
			index, err := distFS.Open("index.html")
			if err != nil {
				logger.Error("failed to open index.html", "error", err)
				c.Status(http.StatusNotFound)
				return
			}
			defer index.Close()
			stat, _ := index.Stat()
			http.ServeContent(c.Writer, c.Request, "index.html", stat.ModTime(), index)
		}
	})
}
