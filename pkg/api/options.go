package api

import (
	"crypto/tls"
	"time"

	"go.uber.org/zap"

	"github.com/voidshard/pms/pkg/api/ws"
)

const (
	defAddress = "localhost:8080"
)

// Options passed to the client on creation
type Options struct {
	// Address of the orchestrator as host:port
	Address string

	// TLSConfig to connect with, if the orchestrator serves wss (optional)
	TLSConfig *tls.Config

	// HandshakeTimeout bounds connecting only. There is never a timeout on replies.
	HandshakeTimeout time.Duration

	// Verbose logs every reply from the server (at info level), save for job submissions.
	Verbose bool

	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// OptionsDefault connects to a local orchestrator over plain ws.
func OptionsDefault() *Options {
	return &Options{
		Address: defAddress,
		Logger:  zap.NewNop(),
	}
}

func (o *Options) SetDefaults() {
	if o.Address == "" {
		o.Address = defAddress
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

func (o *Options) wsOptions() *ws.Options {
	return &ws.Options{
		Address:          o.Address,
		TLSConfig:        o.TLSConfig,
		HandshakeTimeout: o.HandshakeTimeout,
		Logger:           o.Logger,
	}
}
