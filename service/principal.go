package service

import (
	"context"
	"net/http"
	"strings"

	"admission-gate-service/domain"
)

const (
	defaultUserIdHeader = "x-auth-user-id"
	defaultStaffHeader  = "x-auth-user-staff"
)

// HeaderPrincipal trusts identity headers set by an authentication
// layer in front of the gate. Enable it only when that layer strips
// the same headers from client traffic.
type HeaderPrincipal struct {
	enabled      bool
	userIdHeader string
	staffHeader  string
}

func NewHeaderPrincipal(enabled bool, userIdHeader string, staffHeader string) HeaderPrincipal {
	if userIdHeader == "" {
		userIdHeader = defaultUserIdHeader
	}
	if staffHeader == "" {
		staffHeader = defaultStaffHeader
	}
	return HeaderPrincipal{
		enabled:      enabled,
		userIdHeader: userIdHeader,
		staffHeader:  staffHeader,
	}
}

func (s HeaderPrincipal) Resolve(_ context.Context, request *http.Request) (*domain.Principal, error) {
	if !s.enabled {
		return nil, nil
	}
	userId := strings.TrimSpace(request.Header.Get(s.userIdHeader))
	if userId == "" {
		return nil, nil
	}
	staffValue := strings.TrimSpace(request.Header.Get(s.staffHeader))
	staff := strings.EqualFold(staffValue, "true") || staffValue == "1"
	return &domain.Principal{Id: userId, Staff: staff}, nil
}
