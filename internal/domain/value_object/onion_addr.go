package value_object

import (
	"net"
	"strconv"
)

// FamilyOnion is reported as the network of a published onion address.
const FamilyOnion = "Onion"

// OnionAddress is the externally reachable address of a published service.
type OnionAddress struct {
	address string
	port    uint16
}

var _ net.Addr = OnionAddress{}

func NewOnionAddress(id ServiceID, port uint16) OnionAddress {
	return OnionAddress{address: id.Hostname(), port: port}
}

// Address returns the "<name>.onion" host part.
func (a OnionAddress) Address() string { return a.address }
func (a OnionAddress) Port() uint16    { return a.port }
func (a OnionAddress) Family() string  { return FamilyOnion }
func (a OnionAddress) IsZero() bool    { return a.address == "" }

// Network is part of the net.Addr interface.
func (a OnionAddress) Network() string { return FamilyOnion }

// String is part of the net.Addr interface.
func (a OnionAddress) String() string {
	return net.JoinHostPort(a.address, strconv.Itoa(int(a.port)))
}

// ServiceID returns the name without the ".onion" suffix.
func (a OnionAddress) ServiceID() ServiceID { return ServiceIDFromString(a.address) }
