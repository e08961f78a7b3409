package service

import (
	"context"
	"fmt"

	"pos-backend/internal/apperr"
	"pos-backend/internal/session"
)

// NavigationService is the state machine between screens: a session is either
// logged out (no entry in the registry) or viewing one module. A route change
// is allowed only when the target is among the role's visible modules;
// refusal leaves the current state untouched.
type NavigationService interface {
	Navigate(ctx context.Context, sess *session.Session, moduleName string) error
}

type navigationService struct {
	modules  ModuleService
	sessions *session.Manager
}

func NewNavigationService(modules ModuleService, sessions *session.Manager) NavigationService {
	return &navigationService{modules: modules, sessions: sessions}
}

func (s *navigationService) Navigate(ctx context.Context, sess *session.Session, moduleName string) error {
	if sess == nil {
		return apperr.ErrAccessDenied
	}

	visible, err := s.modules.VisibleModules(ctx, sess.RoleID)
	if err != nil {
		return err
	}

	for _, m := range visible {
		if m.Name == moduleName {
			if !s.sessions.SetModule(sess.ID, moduleName) {
				return apperr.ErrAccessDenied
			}
			return nil
		}
	}

	return fmt.Errorf("module %q: %w", moduleName, apperr.ErrAccessDenied)
}
