package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// PermissionInvalidator drops cached permission sets.
type PermissionInvalidator interface {
	Invalidate(userID int64)
	InvalidateAll()
}

// ProfileService manages access profiles, their grants and membership. Every
// mutation invalidates cached permissions before returning, and membership
// changes keep the stored coarse role in sync.
type ProfileService struct {
	profiles    repository.ProfileRepository
	users       repository.UserRepository
	invalidator PermissionInvalidator
	dispatcher  events.Dispatcher
	now         Clock
	logger      *zap.Logger
}

// ProfileDependencies bundles collaborators for the profile service.
type ProfileDependencies struct {
	ProfileRepo repository.ProfileRepository
	UserRepo    repository.UserRepository
	Invalidator PermissionInvalidator
	Dispatcher  events.Dispatcher
	Clock       Clock
	Logger      *zap.Logger
}

// ProfileInput carries editable profile fields.
type ProfileInput struct {
	Name        string
	Description string
}

// ProfileDetail is a profile together with its grants, pages and members.
type ProfileDetail struct {
	Profile   domain.AccessProfile
	Grants    []domain.Grant
	PageIDs   []int64
	MemberIDs []int64
}

// NewProfileService constructs the service.
func NewProfileService(deps ProfileDependencies) *ProfileService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{
		profiles:    deps.ProfileRepo,
		users:       deps.UserRepo,
		invalidator: deps.Invalidator,
		dispatcher:  deps.Dispatcher,
		now:         clockOrNow(deps.Clock),
		logger:      logger,
	}
}

// List returns every profile ordered by name.
func (s *ProfileService) List(ctx context.Context) ([]domain.AccessProfile, error) {
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	return profiles, nil
}

// Get returns a profile with its grants, pages and members.
func (s *ProfileService) Get(ctx context.Context, id int64) (*ProfileDetail, error) {
	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "profile", map[string]any{"id": id})
	}
	grants, err := s.profiles.ListGrants(ctx, id)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	pages, err := s.profiles.ListPages(ctx, id)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	members, err := s.profiles.ListMemberIDs(ctx, id)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	return &ProfileDetail{Profile: *profile, Grants: grants, PageIDs: pages, MemberIDs: members}, nil
}

// Create adds a profile.
func (s *ProfileService) Create(ctx context.Context, actorID int64, input ProfileInput) (*domain.AccessProfile, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errorutil.NewValidationError("name is required", nil)
	}
	profile := &domain.AccessProfile{Name: name, Description: strings.TrimSpace(input.Description)}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, repoError(err, "profile", map[string]any{"name": name})
	}
	s.publish(ctx, actorID, profile.ID, "created", nil)
	return profile, nil
}

// Update renames or redescribes a profile. Renaming to or from a reserved
// name resyncs the coarse role of every member.
func (s *ProfileService) Update(ctx context.Context, actorID, id int64, input ProfileInput) (*domain.AccessProfile, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errorutil.NewValidationError("name is required", nil)
	}
	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "profile", map[string]any{"id": id})
	}
	oldName := profile.Name
	profile.Name = name
	profile.Description = strings.TrimSpace(input.Description)
	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, repoError(err, "profile", map[string]any{"id": id, "name": name})
	}
	defer s.invalidator.InvalidateAll()

	if oldName != name && (isReservedProfile(oldName) || isReservedProfile(name)) {
		members, err := s.profiles.ListMemberIDs(ctx, id)
		if err != nil {
			return nil, errorutil.NewInternalError(err)
		}
		for _, userID := range members {
			if err := s.recomputeRole(ctx, userID); err != nil {
				return nil, err
			}
		}
	}
	s.publish(ctx, actorID, id, "updated", nil)
	return profile, nil
}

// Delete removes a profile and recomputes the role of its former members.
func (s *ProfileService) Delete(ctx context.Context, actorID, id int64) error {
	members, err := s.profiles.ListMemberIDs(ctx, id)
	if err != nil {
		return errorutil.NewInternalError(err)
	}
	if err := s.profiles.Delete(ctx, id); err != nil {
		return repoError(err, "profile", map[string]any{"id": id})
	}
	defer s.invalidator.InvalidateAll()
	for _, userID := range members {
		if err := s.recomputeRole(ctx, userID); err != nil {
			return err
		}
	}
	s.publish(ctx, actorID, id, "deleted", nil)
	return nil
}

// AddGrant attaches a "resource:action" permission. Existing grants are ignored.
func (s *ProfileService) AddGrant(ctx context.Context, actorID, profileID int64, permission string) error {
	grant, err := s.parseGrant(ctx, profileID, permission)
	if err != nil {
		return err
	}
	if err := s.profiles.AddGrant(ctx, grant); err != nil {
		return errorutil.NewInternalError(err)
	}
	s.invalidator.InvalidateAll()
	s.publish(ctx, actorID, profileID, "grant_added", nil)
	return nil
}

// RemoveGrant detaches a permission. Removing an absent grant is a no-op.
func (s *ProfileService) RemoveGrant(ctx context.Context, actorID, profileID int64, permission string) error {
	grant, err := s.parseGrant(ctx, profileID, permission)
	if err != nil {
		return err
	}
	if err := s.profiles.RemoveGrant(ctx, grant); err != nil {
		return errorutil.NewInternalError(err)
	}
	s.invalidator.InvalidateAll()
	s.publish(ctx, actorID, profileID, "grant_removed", nil)
	return nil
}

// ReplaceGrants sets the profile's grants to exactly permissions.
func (s *ProfileService) ReplaceGrants(ctx context.Context, actorID, profileID int64, permissions []string) ([]domain.Grant, error) {
	if _, err := s.profiles.GetByID(ctx, profileID); err != nil {
		return nil, repoError(err, "profile", map[string]any{"id": profileID})
	}
	grants := make([]domain.Grant, 0, len(permissions))
	for _, raw := range permissions {
		perm, err := domain.ParsePermission(raw)
		if err != nil {
			return nil, errorutil.NewValidationError(err.Error(), map[string]any{"permission": raw})
		}
		resource, action := perm.Parse()
		grants = append(grants, domain.Grant{ProfileID: profileID, Resource: resource, Action: action})
	}
	if err := s.profiles.ReplaceGrants(ctx, profileID, grants); err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	s.invalidator.InvalidateAll()
	s.publish(ctx, actorID, profileID, "grants_replaced", nil)

	stored, err := s.profiles.ListGrants(ctx, profileID)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	return stored, nil
}

// SetPages replaces the profile's page allowlist.
func (s *ProfileService) SetPages(ctx context.Context, actorID, profileID int64, pageIDs []int64) error {
	if _, err := s.profiles.GetByID(ctx, profileID); err != nil {
		return repoError(err, "profile", map[string]any{"id": profileID})
	}
	for _, id := range pageIDs {
		if id <= 0 {
			return errorutil.NewValidationError("page ids must be positive", map[string]any{"page_id": id})
		}
	}
	if err := s.profiles.ReplacePages(ctx, profileID, pageIDs); err != nil {
		return errorutil.NewInternalError(err)
	}
	s.invalidator.InvalidateAll()
	s.publish(ctx, actorID, profileID, "pages_replaced", nil)
	return nil
}

// LinkUser adds a user to a profile. Linking the admin profile promotes the
// user to admin; linking the agent profile promotes a non-admin to agent.
func (s *ProfileService) LinkUser(ctx context.Context, actorID, profileID, userID int64) error {
	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return repoError(err, "profile", map[string]any{"id": profileID})
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return repoError(err, "user", map[string]any{"id": userID})
	}
	if err := s.profiles.LinkUser(ctx, userID, profileID); err != nil {
		return errorutil.NewInternalError(err)
	}
	defer s.invalidator.Invalidate(userID)

	role := user.Role
	switch profile.Name {
	case domain.AdminProfileName:
		role = domain.RoleAdmin
	case domain.AgentProfileName:
		if role != domain.RoleAdmin {
			role = domain.RoleAgent
		}
	}
	if role != user.Role {
		if err := s.users.UpdateRole(ctx, userID, role); err != nil {
			return repoError(err, "user", map[string]any{"id": userID})
		}
	}
	s.publish(ctx, actorID, profileID, "user_linked", &userID)
	return nil
}

// UnlinkUser removes a user from a profile and recomputes the coarse role
// from the profiles that remain.
func (s *ProfileService) UnlinkUser(ctx context.Context, actorID, profileID, userID int64) error {
	if err := s.profiles.UnlinkUser(ctx, userID, profileID); err != nil {
		return repoError(err, "membership", map[string]any{"profile_id": profileID, "user_id": userID})
	}
	defer s.invalidator.Invalidate(userID)
	if err := s.recomputeRole(ctx, userID); err != nil {
		return err
	}
	s.publish(ctx, actorID, profileID, "user_unlinked", &userID)
	return nil
}

// ProfilesForUser lists the profiles a user belongs to.
func (s *ProfileService) ProfilesForUser(ctx context.Context, userID int64) ([]domain.AccessProfile, error) {
	profiles, err := s.profiles.ListForUser(ctx, userID)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	return profiles, nil
}

func (s *ProfileService) recomputeRole(ctx context.Context, userID int64) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return repoError(err, "user", map[string]any{"id": userID})
	}
	profiles, err := s.profiles.ListForUser(ctx, userID)
	if err != nil {
		return errorutil.NewInternalError(err)
	}
	role := domain.RoleForProfiles(profiles)
	if role == user.Role {
		return nil
	}
	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		return repoError(err, "user", map[string]any{"id": userID})
	}
	s.logger.Info("coarse role resynced",
		zap.Int64("user_id", userID),
		zap.String("from", string(user.Role)),
		zap.String("to", string(role)),
	)
	return nil
}

func (s *ProfileService) parseGrant(ctx context.Context, profileID int64, permission string) (domain.Grant, error) {
	perm, err := domain.ParsePermission(permission)
	if err != nil {
		return domain.Grant{}, errorutil.NewValidationError(err.Error(), map[string]any{"permission": permission})
	}
	if _, err := s.profiles.GetByID(ctx, profileID); err != nil {
		return domain.Grant{}, repoError(err, "profile", map[string]any{"id": profileID})
	}
	resource, action := perm.Parse()
	return domain.Grant{ProfileID: profileID, Resource: resource, Action: action}, nil
}

func (s *ProfileService) publish(ctx context.Context, actorID, profileID int64, change string, userID *int64) {
	if s.dispatcher == nil {
		return
	}
	event := events.NewProfileEvent(profileID, &actorID, s.now(), events.ProfileChangedPayload{Change: change, UserID: userID})
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func isReservedProfile(name string) bool {
	return name == domain.AdminProfileName || name == domain.AgentProfileName
}
