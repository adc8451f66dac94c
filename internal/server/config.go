package server

import (
	"github.com/raysh454/pagewatch/internal/app"
	"github.com/raysh454/pagewatch/internal/interfaces"
)

// Config configures the HTTP server.
type Config struct {
	// ListenAddr is the address for ListenAndServe, e.g. ":8080".
	ListenAddr string

	// AppConfig configures the embedded application. Nil means defaults.
	AppConfig *app.Config

	// Logger is optional; a stdout logger is used when nil.
	Logger interfaces.Logger
}
