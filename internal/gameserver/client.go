package gameserver

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// PacketHeaderSize is the length prefix of every frame (uint16 LE, header included).
const PacketHeaderSize = 2

// MaxFrameSize is the largest frame the uint16 header can describe.
const MaxFrameSize = 1<<16 - 1

// Default write queue / timeout constants.
// Overridden by config values when available.
const (
	defaultSendQueueSize = 256
	defaultWriteTimeout  = 5 * time.Second
)

var (
	// ErrClientClosed is returned when sending to a closed client.
	ErrClientClosed = errors.New("client closed")
	// ErrSendQueueFull is returned when a slow client's outbox overflows.
	ErrSendQueueFull = errors.New("send queue full")
)

// GameClient represents one client connection with an async outbox.
// Packets are framed on SendPacket and written by a dedicated write pump.
type GameClient struct {
	conn net.Conn
	ip   string

	closed atomic.Bool

	// Per-client write queue
	// Pattern: Gorilla Chat write pump + net.Buffers batching
	sendCh    chan []byte
	closeCh   chan struct{}
	closeOnce sync.Once
	pumpDone  chan struct{}

	writePool    *BytePool
	writeTimeout time.Duration
}

// NewGameClient creates client state for conn. Call Start to begin writing.
func NewGameClient(conn net.Conn, writePool *BytePool, sendQueueSize int, writeTimeout time.Duration) (*GameClient, error) {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		// net.Pipe и unix sockets не имеют host:port
		host = conn.RemoteAddr().String()
	}
	if sendQueueSize <= 0 {
		sendQueueSize = defaultSendQueueSize
	}
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	if writePool == nil {
		writePool = NewBytePool(256)
	}

	return &GameClient{
		conn:         conn,
		ip:           host,
		sendCh:       make(chan []byte, sendQueueSize),
		closeCh:      make(chan struct{}),
		pumpDone:     make(chan struct{}),
		writePool:    writePool,
		writeTimeout: writeTimeout,
	}, nil
}

// Start launches the write pump.
func (c *GameClient) Start() {
	go c.writePump()
}

// SendPacket frames payload and queues it. Implements model.PacketSender.
// payload is copied, so callers may share it across clients.
func (c *GameClient) SendPacket(payload []byte) error {
	total := PacketHeaderSize + len(payload)
	if total > MaxFrameSize {
		return fmt.Errorf("packet of %d bytes exceeds frame limit", len(payload))
	}
	if c.closed.Load() {
		return ErrClientClosed
	}
	frame := c.writePool.Get(total)
	binary.LittleEndian.PutUint16(frame, uint16(total))
	copy(frame[PacketHeaderSize:], payload)
	return c.Send(frame)
}

// Send queues a framed packet for async delivery.
// Non-blocking: a full queue means a slow client, which is disconnected.
// OWNERSHIP: takes ownership of frame (pool buffer).
func (c *GameClient) Send(frame []byte) error {
	select {
	case <-c.closeCh:
		c.writePool.Put(frame)
		return ErrClientClosed
	default:
	}

	select {
	case c.sendCh <- frame:
		return nil
	default:
		c.writePool.Put(frame)
		slog.Warn("send queue full, disconnecting slow client", "client", c.ip)
		c.CloseAsync()
		return ErrSendQueueFull
	}
}

// writePump drains sendCh into the connection, batching queued frames into
// one writev call.
func (c *GameClient) writePump() {
	defer close(c.pumpDone)

	bufs := make(net.Buffers, 0, 64)
	poolBufs := make([][]byte, 0, 64)

	defer func() {
		// Drain remaining packets and return to pool
		for {
			select {
			case pkt := <-c.sendCh:
				c.writePool.Put(pkt)
			default:
				return
			}
		}
	}()

	for {
		select {
		case pkt := <-c.sendCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
				c.logWriteError("set write deadline failed", err)
				c.writePool.Put(pkt)
				c.CloseAsync()
				return
			}

			bufs = append(bufs[:0], pkt)
			poolBufs = append(poolBufs[:0], pkt)
			for range len(c.sendCh) {
				p := <-c.sendCh
				bufs = append(bufs, p)
				poolBufs = append(poolBufs, p)
			}

			_, err := bufs.WriteTo(c.conn)
			for _, b := range poolBufs {
				c.writePool.Put(b)
			}
			if err != nil {
				c.logWriteError("write failed", err)
				c.CloseAsync()
				return
			}

		case <-c.closeCh:
			return
		}
	}
}

// logWriteError reports a pump failure. After Close the connection error is
// expected, so it is only a Debug line.
func (c *GameClient) logWriteError(msg string, err error) {
	if c.closed.Load() {
		slog.Debug(msg, "client", c.ip, "error", err, "closed", true)
		return
	}
	slog.Warn(msg, "client", c.ip, "error", err)
}

// CloseAsync signals the writePump to stop without blocking.
// Safe to call multiple times.
func (c *GameClient) CloseAsync() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.closeCh)
	})
}

// Close stops the write pump and closes the connection.
func (c *GameClient) Close() error {
	c.CloseAsync()
	return c.conn.Close()
}

// IsClosed reports whether the client was closed.
func (c *GameClient) IsClosed() bool {
	return c.closed.Load()
}
