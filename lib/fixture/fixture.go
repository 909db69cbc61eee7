// Package fixture serves a reference calculator page, the harness can test it when no
// other calculator is available.
package fixture

import (
	"embed"
	"io/fs"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-rod/calce2e/lib/utils"
)

//go:embed app
var app embed.FS

// Index page of the calculator
func Index() []byte {
	b, err := app.ReadFile("app/index.html")
	utils.E(err)
	return b
}

// Handler of the calculator app
func Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)

	static, err := fs.Sub(app, "app/static")
	utils.E(err)

	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/", func(ctx *gin.Context) {
		ctx.Data(http.StatusOK, "text/html; charset=utf-8", Index())
	})
	engine.StaticFS("/static", http.FS(static))
	engine.GET("/healthz", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "ok")
	})

	return engine
}

// Server of the calculator app
type Server struct {
	// URL such as "http://127.0.0.1:8000"
	URL string

	srv *http.Server
}

// Serve the app on the address in background, if the address is empty a random port is used
func Serve(addr string) (*Server, error) {
	if addr == "" {
		addr = "127.0.0.1:0"
	}

	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{Handler: Handler()}
	go func() { _ = srv.Serve(l) }()

	return &Server{
		URL: "http://" + l.Addr().String(),
		srv: srv,
	}, nil
}

// MustServe is similar to Serve
func MustServe(addr string) *Server {
	s, err := Serve(addr)
	utils.E(err)
	return s
}

// Close the server
func (s *Server) Close() error {
	return s.srv.Close()
}
