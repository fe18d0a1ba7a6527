package client

import (
	"errors"
	"net"
	"time"
)

// ErrConnExpired is returned by a pooled connection past its max lifetime.
var ErrConnExpired = errors.New("connection expired")

// timedConn closes itself on first use after maxLifetime so the transport redials.
type timedConn struct {
	net.Conn
	createdAt   time.Time
	maxLifetime time.Duration
}

func (c *timedConn) isExpired() bool {
	return time.Since(c.createdAt) > c.maxLifetime
}

func (c *timedConn) Read(b []byte) (int, error) {
	if c.isExpired() {
		_ = c.Close()
		return 0, ErrConnExpired
	}
	return c.Conn.Read(b)
}

func (c *timedConn) Write(b []byte) (int, error) {
	if c.isExpired() {
		_ = c.Close()
		return 0, ErrConnExpired
	}
	return c.Conn.Write(b)
}
