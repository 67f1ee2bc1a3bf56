package gopher

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

const urlScheme = "gopher://"

var ErrInvalidLocator = errors.New("locator: invalid address")

// Locator addresses a Gopher resource.
type Locator struct {
	Host     string
	Port     int
	Type     EntityType
	Selector string
}

// ParseLocator reads an address typed by a user.
//
// Two forms are understood:
//
//   - host[:port][/T/selector], where T is a type character. The type is only
//     recognized when it is followed by a slash: "host/1/docs" is a menu at
//     "/docs" while "host/docs" is a menu at "/docs".
//   - gopher://host[:port][/Tselector], as RFC 4266 describes it.
//
// The type defaults to a menu, the selector to "/" and the port to 70.
func ParseLocator(address string) (Locator, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Locator{}, fmt.Errorf("%w: empty", ErrInvalidLocator)
	}

	isURL := false
	if len(address) >= len(urlScheme) && strings.EqualFold(address[:len(urlScheme)], urlScheme) {
		isURL = true
		address = address[len(urlScheme):]
	}

	hostPort, path := address, ""
	if idx := strings.IndexByte(address, '/'); idx >= 0 {
		hostPort, path = address[:idx], address[idx:]
	}

	loc := Locator{Port: DefaultPort, Type: TypeMenu}
	if err := loc.setHostPort(hostPort); err != nil {
		return Locator{}, err
	}

	switch {
	case isURL:
		loc.Selector = ""
		if len(path) >= 2 {
			loc.Type = EntityType(path[1])
			loc.Selector = path[2:]
		}
	case len(path) >= 3 && path[2] == '/':
		loc.Type = EntityType(path[1])
		loc.Selector = path[2:]
	case path == "":
		loc.Selector = DefaultSelector
	default:
		loc.Selector = path
	}

	return loc, nil
}

func (l *Locator) setHostPort(hostPort string) error {
	if hostPort == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidLocator)
	}

	// Bare hosts and IPv6 literals without a port.
	if !strings.Contains(hostPort, ":") ||
		(strings.HasPrefix(hostPort, "[") && strings.HasSuffix(hostPort, "]")) {
		l.Host = strings.Trim(hostPort, "[]")
		return nil
	}

	host, portText, err := net.SplitHostPort(hostPort)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLocator, err)
	}
	if host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidLocator)
	}

	port, err := strconv.Atoi(portText)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("%w: bad port %q", ErrInvalidLocator, portText)
	}

	l.Host = host
	l.Port = port
	return nil
}

func (l Locator) hostPort() string {
	if l.Port == DefaultPort {
		if strings.Contains(l.Host, ":") {
			return "[" + l.Host + "]"
		}
		return l.Host
	}
	return net.JoinHostPort(l.Host, strconv.Itoa(l.Port))
}

// String returns the bare form, host[:port]/T/selector. The bare form
// cannot tell "docs" from "/docs", so selectors not starting with a slash
// are rendered in the URL form. Either way ParseLocator reads it back.
func (l Locator) String() string {
	if !strings.HasPrefix(l.Selector, "/") {
		return l.URL()
	}
	return l.hostPort() + "/" + string([]byte{l.typeChar()}) + l.Selector
}

// URL returns the gopher:// form.
func (l Locator) URL() string {
	return urlScheme + l.hostPort() + "/" + string([]byte{l.typeChar()}) + l.Selector
}

func (l Locator) typeChar() byte {
	if l.Type == TypeUnknown {
		return byte(TypeMenu)
	}
	return byte(l.Type)
}
