package rower

import (
	"fmt"
	"net/netip"

	"google.golang.org/protobuf/encoding/protowire"
)

// Snapshot wire format, protobuf compatible:
//
//	message Snapshot { repeated Entry entries = 1; }
//	message Entry    { string hostname = 1; bytes addr_port = 2; }
//
// addr_port is the netip.AddrPort binary encoding.
const (
	snapshotEntryField    protowire.Number = 1
	snapshotHostnameField protowire.Number = 1
	snapshotAddrPortField protowire.Number = 2
)

// MarshalBinary encodes every entry, shadowed ones included, so that a
// restored cache answers lookups the same way.
func (c *AddressCache) MarshalBinary() ([]byte, error) {
	c.lk.Lock()
	defer c.lk.Unlock()

	var out []byte
	for _, entry := range c.entries {
		addr, err := entry.Addr.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCacheSnapshot, err)
		}

		var msg []byte
		msg = protowire.AppendTag(msg, snapshotHostnameField, protowire.BytesType)
		msg = protowire.AppendString(msg, entry.Hostname.String())
		msg = protowire.AppendTag(msg, snapshotAddrPortField, protowire.BytesType)
		msg = protowire.AppendBytes(msg, addr)

		out = protowire.AppendTag(out, snapshotEntryField, protowire.BytesType)
		out = protowire.AppendBytes(out, msg)
	}
	return out, nil
}

// UnmarshalBinary appends the entries of a snapshot after the existing
// ones. Nothing is added when the snapshot is malformed.
func (c *AddressCache) UnmarshalBinary(data []byte) error {
	type decoded struct {
		host string
		addr netip.AddrPort
	}
	var entries []decoded

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("%w: %w", ErrCacheSnapshot, protowire.ParseError(n))
		}
		data = data[n:]

		if num != snapshotEntryField || typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return fmt.Errorf("%w: %w", ErrCacheSnapshot, protowire.ParseError(n))
			}
			data = data[n:]
			continue
		}

		msg, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return fmt.Errorf("%w: %w", ErrCacheSnapshot, protowire.ParseError(n))
		}
		data = data[n:]

		host, addr, err := unmarshalSnapshotEntry(msg)
		if err != nil {
			return err
		}
		entries = append(entries, decoded{host: host, addr: addr})
	}

	c.lk.Lock()
	defer c.lk.Unlock()
	for _, entry := range entries {
		c.add(entry.host, entry.addr)
	}
	return nil
}

func unmarshalSnapshotEntry(msg []byte) (string, netip.AddrPort, error) {
	var (
		host    string
		addr    netip.AddrPort
		hasAddr bool
	)

	for len(msg) > 0 {
		num, typ, n := protowire.ConsumeTag(msg)
		if n < 0 {
			return "", addr, fmt.Errorf("%w: %w", ErrCacheSnapshot, protowire.ParseError(n))
		}
		msg = msg[n:]

		switch {
		case num == snapshotHostnameField && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(msg)
			if n < 0 {
				return "", addr, fmt.Errorf("%w: %w", ErrCacheSnapshot, protowire.ParseError(n))
			}
			host = string(v)
			msg = msg[n:]
		case num == snapshotAddrPortField && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(msg)
			if n < 0 {
				return "", addr, fmt.Errorf("%w: %w", ErrCacheSnapshot, protowire.ParseError(n))
			}
			if err := addr.UnmarshalBinary(v); err != nil {
				return "", addr, fmt.Errorf("%w: %w", ErrCacheSnapshot, err)
			}
			hasAddr = true
			msg = msg[n:]
		default:
			n = protowire.ConsumeFieldValue(num, typ, msg)
			if n < 0 {
				return "", addr, fmt.Errorf("%w: %w", ErrCacheSnapshot, protowire.ParseError(n))
			}
			msg = msg[n:]
		}
	}

	if host == "" || !hasAddr {
		return "", addr, fmt.Errorf("%w: incomplete entry", ErrCacheSnapshot)
	}
	return host, addr, nil
}
