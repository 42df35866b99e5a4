package ws

import (
	"crypto/tls"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/voidshard/pms/pkg/api/common"
)

// Options are options for the orchestrator connection.
type Options struct {
	// Address of the orchestrator as host:port
	Address string

	// Scheme is "ws" or "wss". Defaults to "wss" if TLSConfig is set, otherwise "ws".
	Scheme string

	// TLSConfig needed to connect to the orchestrator (optional).
	TLSConfig *tls.Config

	// HandshakeTimeout bounds the opening handshake only. Zero means no timeout.
	// Nb. there is never a timeout on awaiting a reply.
	HandshakeTimeout time.Duration

	// Logger for connection events. Defaults to a no-op logger.
	Logger *zap.Logger
}

func (o *Options) SetDefaults() {
	if o.Scheme == "" {
		if o.TLSConfig != nil {
			o.Scheme = common.SCHEME_TLS
		} else {
			o.Scheme = common.SCHEME
		}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// URL of the orchestrator's command socket.
func (o *Options) URL() *url.URL {
	return &url.URL{Scheme: o.Scheme, Host: o.Address, Path: common.ENDPOINT}
}
