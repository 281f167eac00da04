package session

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"

	"feathermart/internal/domain"
	anonymoussvc "feathermart/internal/service/anonymous"
	customersvc "feathermart/internal/service/customer"
)

// AccountLookup resolves an access token to a registered user.
type AccountLookup interface {
	LookupByToken(ctx context.Context, token string) (*domain.Customer, error)
}

// AnonymousLookup resolves an anonymous session token to its anonymous id.
type AnonymousLookup interface {
	LookupByToken(ctx context.Context, token string) (string, error)
}

// AuthEvent is published once per successful login.
type AuthEvent struct {
	UserID      string
	AnonymousID string
}

type Listener func(ctx context.Context, event AuthEvent)

// Resolver determines who is acting on a request and fans out login events.
type Resolver struct {
	accounts  AccountLookup
	anonymous AnonymousLookup
	logger    *log.Logger

	mu        sync.RWMutex
	listeners []Listener
}

func NewResolver(accounts AccountLookup, anonymous AnonymousLookup, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Resolver{accounts: accounts, anonymous: anonymous, logger: logger}
}

// ResolveActor never fails: any problem with the access token falls back to an
// anonymous actor. Lookup failures other than a rejected token are logged.
func (r *Resolver) ResolveActor(ctx context.Context, accessToken, anonymousToken string) domain.Actor {
	if accessToken = strings.TrimSpace(accessToken); accessToken != "" && r.accounts != nil {
		user, err := r.accounts.LookupByToken(ctx, accessToken)
		switch {
		case err == nil && user != nil:
			return domain.AuthenticatedActor(user.ID)
		case err != nil && !errors.Is(err, customersvc.ErrInvalidToken):
			r.logger.Printf("session: resolve access token error=%v", err)
		}
	}
	return domain.AnonymousActor(r.AnonymousID(ctx, anonymousToken))
}

// AnonymousID returns the id carried by a valid anonymous token, or "".
func (r *Resolver) AnonymousID(ctx context.Context, anonymousToken string) string {
	anonymousToken = strings.TrimSpace(anonymousToken)
	if anonymousToken == "" || r.anonymous == nil {
		return ""
	}
	id, err := r.anonymous.LookupByToken(ctx, anonymousToken)
	if err != nil {
		if !errors.Is(err, anonymoussvc.ErrInvalidToken) {
			r.logger.Printf("session: resolve anonymous token error=%v", err)
		}
		return ""
	}
	return id
}

// OnAuthStateChange registers a listener for login events.
func (r *Resolver) OnAuthStateChange(l Listener) {
	r.mu.Lock()
	r.listeners = append(r.listeners, l)
	r.mu.Unlock()
}

// NotifyLogin delivers the login event to every listener synchronously.
func (r *Resolver) NotifyLogin(ctx context.Context, userID, anonymousID string) {
	r.mu.RLock()
	listeners := make([]Listener, len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.RUnlock()

	event := AuthEvent{UserID: userID, AnonymousID: anonymousID}
	r.logger.Printf("session: login user_id=%s anonymous_id=%s listeners=%d", userID, anonymousID, len(listeners))
	for _, l := range listeners {
		l(ctx, event)
	}
}
