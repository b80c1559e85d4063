package net

// Transport provides an interface for network transports to allow a session
// node to exchange input packets with its peers.
type Transport interface {

	// Listen starts the transport listening.
	Listen() error

	// Consumer returns a channel that can be used to consume and respond to
	// RPC requests.
	Consumer() <-chan RPC

	// LocalAddr is used to return our local address.
	LocalAddr() string

	// AdvertiseAddr is used to return the address where other peers can reach
	// us.
	AdvertiseAddr() string

	// Hello sends an identification request to the target peer.
	Hello(target string, args *HelloRequest, resp *HelloResponse) error

	// SendInput sends one frame of input to the target peer.
	SendInput(target string, args *InputRequest, resp *InputResponse) error

	// Close permanently closes a transport, stopping any associated
	// goroutines and freeing other resources.
	Close() error
}
