package domain

// Actor is the identity a cart or order operation runs as.
// An anonymous actor may have no AnonymousID until a token is issued.
type Actor struct {
	Authenticated bool
	UserID        string
	AnonymousID   string
}

func AuthenticatedActor(userID string) Actor {
	return Actor{Authenticated: true, UserID: userID}
}

func AnonymousActor(anonymousID string) Actor {
	return Actor{AnonymousID: anonymousID}
}
