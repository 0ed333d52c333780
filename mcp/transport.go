package mcp

// Transport is a bidirectional, ordered stream of protocol messages.
// Implementations frame discrete messages over the underlying byte stream.
// Send may be called concurrently; Receive must be driven from a single
// goroutine (the Session's read loop). Close unblocks a pending Receive.
type Transport interface {
	// Connect establishes the connection.
	Connect() error

	// Send writes one message. A failure is fatal to the connection.
	Send(msg *Message) error

	// Receive blocks for the next message. It returns io.EOF when the peer
	// closes the connection and a *ProtocolError when framing is corrupted.
	Receive() (*Message, error)

	// Close tears down the connection and releases resources.
	Close() error
}

// NewTransport creates a Transport for the given ServerConfig.
// Returns ErrInvalidConfig if the config is not valid.
func NewTransport(cfg ServerConfig) (Transport, error) {
	switch cfg.Transport {
	case TransportStdio:
		return NewStdioTransport(cfg)
	default:
		if cfg.Command != "" {
			return NewStdioTransport(cfg)
		}
		return nil, ErrInvalidConfig
	}
}
