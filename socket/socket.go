// Package socket provides the UDP endpoint shared by the relay server and the
// client library: a receive loop plus one ordered outbound writer.
package socket

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"
)

const (
	defaultReadBufferSize = 1024
	defaultQueueSize      = 32
)

// ErrClosed is returned by Send after Stop.
var ErrClosed = errors.New("socket closed")

// Handler receives one datagram. b is owned by the handler.
type Handler func(ctx context.Context, b []byte, addr *net.UDPAddr)

// Config configures a Socket.
type Config struct {
	ListenAddr *net.UDPAddr
	Logger     general_i.Logger
}

// Option tweaks optional Socket settings.
type Option func(*Socket)

// WithReadBufferSize sets the size of the receive buffer in bytes.
func WithReadBufferSize(n int) Option {
	return func(s *Socket) {
		if n > 0 {
			s.readBufferSize = n
		}
	}
}

// WithQueueSize sets the capacity of the outbound queue.
func WithQueueSize(n int) Option {
	return func(s *Socket) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

type datagram struct {
	b    []byte
	addr *net.UDPAddr
}

// Socket is a bound UDP endpoint.
type Socket struct {
	conn           *net.UDPConn
	logger         general_i.Logger
	readBufferSize int
	queueSize      int

	out      chan datagram
	done     chan struct{}
	writerWg sync.WaitGroup
	stopOnce sync.Once
}

// New binds a UDP socket and starts its outbound writer.
func New(c Config, opts ...Option) (*Socket, error) {
	if c.Logger == nil {
		return nil, errors.New("socket logger is required")
	}
	conn, err := net.ListenUDP("udp", c.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("listening udp: %w", err)
	}

	s := &Socket{
		conn:           conn,
		logger:         c.Logger,
		readBufferSize: defaultReadBufferSize,
		queueSize:      defaultQueueSize,
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.out = make(chan datagram, s.queueSize)

	s.writerWg.Add(1)
	go s.writeLoop()
	return s, nil
}

// Addr returns the bound local address.
func (s *Socket) Addr() *net.UDPAddr {
	return s.conn.LocalAddr().(*net.UDPAddr)
}

// Serve receives datagrams until ctx is cancelled or the socket is stopped.
// Receive errors are logged and do not end the loop.
func (s *Socket) Serve(ctx context.Context, h Handler) {
	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.done:
		}
	}()

	buf := make([]byte, s.readBufferSize)
	for {
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if s.closed() || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Error(fmt.Sprintf("receiving data: %v", err))
			continue
		}
		b := make([]byte, n)
		copy(b, buf[:n])
		h(ctx, b, addr)
	}
}

// Send queues b for addr. It blocks while the outbound queue is full.
func (s *Socket) Send(b []byte, addr *net.UDPAddr) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	select {
	case s.out <- datagram{b: b, addr: addr}:
		return nil
	case <-s.done:
		return ErrClosed
	}
}

// Stop flushes datagrams already queued, then closes the socket.
func (s *Socket) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.writerWg.Wait()
		_ = s.conn.Close()
	})
}

func (s *Socket) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *Socket) writeLoop() {
	defer s.writerWg.Done()
	for {
		select {
		case <-s.done:
			for {
				select {
				case d := <-s.out:
					s.write(d)
				default:
					return
				}
			}
		case d := <-s.out:
			s.write(d)
		}
	}
}

func (s *Socket) write(d datagram) {
	if _, err := s.conn.WriteToUDP(d.b, d.addr); err != nil {
		s.logger.Warning(fmt.Sprintf("sending to %s: %v", d.addr, err))
	}
}
