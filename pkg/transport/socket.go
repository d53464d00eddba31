package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"syscall"
	"time"
)

// BindOptions configure Bind.
type BindOptions struct {
	// LocalOnly binds to the IPv4 loopback address instead of all interfaces.
	// A dual-stack socket cannot be bound to loopback for both families.
	LocalOnly bool

	// BasePort is the first port tried.
	BasePort int

	// PortRange is how many ports after BasePort are tried.
	PortRange int

	// DisableIPv6 skips the IPv6 attempt.
	DisableIPv6 bool

	// Logger receives bind diagnostics. Default: slog.Default().
	Logger *slog.Logger
}

// Socket is a bound UDP endpoint.
type Socket struct {
	conn   *net.UDPConn
	family Family
	local  Address
}

// Bind creates a UDP socket on the first free port in
// [BasePort, BasePort+PortRange]. It prefers a dual-stack IPv6 socket and
// falls back to IPv4 when IPv6 or IPV6_V6ONLY=0 is unavailable.
func Bind(ctx context.Context, opts BindOptions) (*Socket, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "transport")

	if opts.BasePort < 0 || opts.BasePort > 65535 || opts.PortRange < 0 {
		return nil, &BindError{BasePort: opts.BasePort, PortRange: opts.PortRange, Err: fmt.Errorf("invalid port range")}
	}

	last := opts.BasePort + opts.PortRange
	if last > 65535 {
		last = 65535
	}

	useIPv6 := !opts.LocalOnly && !opts.DisableIPv6
	var lastErr error

	for port := opts.BasePort; port <= last; port++ {
		if useIPv6 {
			conn, err := listenUDP(ctx, FamilyIPv6, "::", port)
			if err == nil {
				return newSocket(conn, FamilyIPv6), nil
			}
			if !isAddrInUse(err) {
				logger.Debug("ipv6 unavailable, falling back to ipv4", "error", err)
				useIPv6 = false
			} else {
				lastErr = err
				continue
			}
		}

		host := "0.0.0.0"
		if opts.LocalOnly {
			host = "127.0.0.1"
		}
		conn, err := listenUDP(ctx, FamilyIPv4, host, port)
		if err == nil {
			return newSocket(conn, FamilyIPv4), nil
		}
		lastErr = err
		logger.Debug("bind failed", "port", port, "error", err)
	}

	err := &BindError{
		BasePort:  opts.BasePort,
		PortRange: opts.PortRange,
		Err:       errors.Join(ErrPortRangeExhausted, lastErr),
	}
	logger.Error("unable to bind event server socket",
		"base_port", opts.BasePort,
		"port_range", opts.PortRange,
		"error", lastErr)
	return nil, err
}

// ListenEphemeral binds a socket on an ephemeral port for sending to
// addresses of the given family.
func ListenEphemeral(ctx context.Context, family Family) (*Socket, error) {
	host := "0.0.0.0"
	if family == FamilyIPv6 {
		host = "::"
	}
	conn, err := listenUDP(ctx, family, host, 0)
	if err != nil {
		return nil, err
	}
	return newSocket(conn, family), nil
}

func listenUDP(ctx context.Context, family Family, host string, port int) (*net.UDPConn, error) {
	network := "udp4"
	if family == FamilyIPv6 {
		network = "udp6"
	}
	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var optErr error
			err := c.Control(func(fd uintptr) {
				optErr = setSocketOptions(fd, family == FamilyIPv6)
			})
			if err != nil {
				return err
			}
			return optErr
		},
	}
	pc, err := lc.ListenPacket(ctx, network, net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}
	return pc.(*net.UDPConn), nil
}

func isAddrInUse(err error) bool {
	return errors.Is(err, syscall.EADDRINUSE)
}

func newSocket(conn *net.UDPConn, family Family) *Socket {
	local := Address{}
	if ua, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		local = AddressFrom(ua.AddrPort())
		// Keep the socket's family even for the unspecified address.
		local.family = family
	}
	return &Socket{conn: conn, family: family, local: local}
}

// Read blocks until a datagram arrives and copies it into buf. Datagrams
// larger than buf are truncated.
func (s *Socket) Read(buf []byte) (Address, int, error) {
	n, ap, err := s.conn.ReadFromUDPAddrPort(buf)
	if err != nil {
		return Address{}, 0, err
	}
	return AddressFrom(ap), n, nil
}

// SendTo sends buf to addr. IPv4 destinations are reachable from a
// dual-stack IPv6 socket; IPv6 destinations are not reachable from IPv4.
func (s *Socket) SendTo(addr Address, buf []byte) error {
	if s.family == FamilyIPv4 && addr.Family() == FamilyIPv6 {
		return ErrFamilyMismatch
	}
	_, err := s.conn.WriteToUDPAddrPort(buf, addr.AddrPort())
	return err
}

// SetReadDeadline sets the deadline for future Read calls.
func (s *Socket) SetReadDeadline(t time.Time) error {
	return s.conn.SetReadDeadline(t)
}

// Family returns the socket's address family.
func (s *Socket) Family() Family {
	return s.family
}

// LocalAddr returns the bound address.
func (s *Socket) LocalAddr() Address {
	return s.local
}

// Port returns the bound port.
func (s *Socket) Port() int {
	return int(s.local.Port())
}

// Close closes the socket. Pending Reads return net.ErrClosed.
func (s *Socket) Close() error {
	return s.conn.Close()
}
