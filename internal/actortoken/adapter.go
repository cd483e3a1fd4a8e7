package actortoken

import (
	authmw "reliefledger/pkg/platform/middleware/auth"
)

// MiddlewareAdapter exposes Service as an auth middleware validator.
type MiddlewareAdapter struct {
	service *Service
}

func NewMiddlewareAdapter(service *Service) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service}
}

func (a *MiddlewareAdapter) ValidateToken(token string) (*authmw.ActorClaims, error) {
	claims, err := a.service.Validate(token)
	if err != nil {
		return nil, err
	}
	return &authmw.ActorClaims{Actor: claims.Actor(), JTI: claims.ID}, nil
}
