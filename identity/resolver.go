package identity

import (
	"net"
	"strings"

	"admission-gate-service/domain"
)

const unknownAddress = "unknown"

// Resolve picks the subject quota is tracked under. An authenticated
// principal always wins, anonymous callers are tracked by address.
//
// Forwarded headers are attacker controllable unless the request comes
// through a trusted reverse proxy. The gate does not verify that chain,
// it belongs to the deployment in front of it.
func Resolve(principal *domain.Principal, forwardedFor string, realIp string, peerAddress string) domain.Identity {
	if principal != nil && principal.Id != "" {
		return domain.UserIdentity(principal.Id, principal.Staff)
	}

	address := firstForwardedHop(forwardedFor)
	if address == "" {
		address = strings.TrimSpace(realIp)
	}
	if address == "" {
		address = peerHost(peerAddress)
	}
	if address == "" {
		address = unknownAddress
	}
	return domain.IpIdentity(address)
}

func firstForwardedHop(forwardedFor string) string {
	first, _, _ := strings.Cut(forwardedFor, ",")
	return strings.TrimSpace(first)
}

func peerHost(peerAddress string) string {
	host, _, err := net.SplitHostPort(peerAddress)
	if err != nil {
		return strings.TrimSpace(peerAddress)
	}
	return host
}
