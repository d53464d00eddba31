//go:build !unix

package transport

// The runtime already enables address reuse and dual-stack wildcard
// sockets on these platforms.
func setSocketOptions(fd uintptr, ipv6 bool) error {
	return nil
}
