// Package nsca implements the NSCA (Nagios Service Check Acceptor)
// wire protocol: a Client that submits host/service check results to
// a monitoring host, and a Server that accepts them.
//
// The protocol engine — packet framing, the handshake, the keyed
// stream cipher, and the send/accept loops — lives in this package and
// its internal/wire and cipher subpackages. Config-file parsing and
// the send_nsca/nsca_server command-line collaborators live in the
// sibling config and cmd packages.
package nsca
