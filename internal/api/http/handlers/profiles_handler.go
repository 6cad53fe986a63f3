package handlers

import (
	"net/http"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// ProfilesHandler manages access profiles, their grants, page allowlists and
// membership.
type ProfilesHandler struct {
	profiles *service.ProfileService
}

// NewProfilesHandler constructs handler.
func NewProfilesHandler(profiles *service.ProfileService) *ProfilesHandler {
	return &ProfilesHandler{profiles: profiles}
}

// List GET /profiles.
func (h *ProfilesHandler) List(c *fiber.Ctx) error {
	profiles, err := h.profiles.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": profileResponses(profiles)})
}

// Get GET /profiles/:id.
func (h *ProfilesHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	detail, err := h.profiles.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": profileDetailResponse(detail)})
}

// Create POST /profiles.
func (h *ProfilesHandler) Create(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	profile, err := h.profiles.Create(c.UserContext(), principal.UserID, service.ProfileInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": profileResponse(profile)})
}

// Update PUT /profiles/:id.
func (h *ProfilesHandler) Update(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.ProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	profile, err := h.profiles.Update(c.UserContext(), principal.UserID, id, service.ProfileInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": profileResponse(profile)})
}

// Delete DELETE /profiles/:id.
func (h *ProfilesHandler) Delete(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.profiles.Delete(c.UserContext(), principal.UserID, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// AddGrant POST /profiles/:id/grants.
func (h *ProfilesHandler) AddGrant(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.GrantRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.profiles.AddGrant(c.UserContext(), principal.UserID, id, req.Permission); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// RemoveGrant DELETE /profiles/:id/grants/:permission.
func (h *ProfilesHandler) RemoveGrant(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	permission, err := url.PathUnescape(c.Params("permission"))
	if err != nil {
		return apperrors.NewValidationError("invalid permission", nil)
	}
	if err := h.profiles.RemoveGrant(c.UserContext(), principal.UserID, id, permission); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ReplaceGrants PUT /profiles/:id/grants.
func (h *ProfilesHandler) ReplaceGrants(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.ReplaceGrantsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	grants, err := h.profiles.ReplaceGrants(c.UserContext(), principal.UserID, id, req.Permissions)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": grantNames(grants)})
}

// SetPages PUT /profiles/:id/pages.
func (h *ProfilesHandler) SetPages(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.PagesRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.profiles.SetPages(c.UserContext(), principal.UserID, id, req.PageIDs); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// LinkUser POST /profiles/:id/members/:userId.
func (h *ProfilesHandler) LinkUser(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	userID, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	if err := h.profiles.LinkUser(c.UserContext(), principal.UserID, id, userID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// UnlinkUser DELETE /profiles/:id/members/:userId.
func (h *ProfilesHandler) UnlinkUser(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	userID, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	if err := h.profiles.UnlinkUser(c.UserContext(), principal.UserID, id, userID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ForUser GET /users/:userId/profiles.
func (h *ProfilesHandler) ForUser(c *fiber.Ctx) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	profiles, err := h.profiles.ProfilesForUser(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": profileResponses(profiles)})
}

func profileResponse(p *domain.AccessProfile) dto.ProfileResponse {
	return dto.ProfileResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func profileResponses(profiles []domain.AccessProfile) []dto.ProfileResponse {
	resp := make([]dto.ProfileResponse, 0, len(profiles))
	for i := range profiles {
		resp = append(resp, profileResponse(&profiles[i]))
	}
	return resp
}

func profileDetailResponse(detail *service.ProfileDetail) dto.ProfileDetailResponse {
	pages := detail.PageIDs
	if pages == nil {
		pages = []int64{}
	}
	members := detail.MemberIDs
	if members == nil {
		members = []int64{}
	}
	return dto.ProfileDetailResponse{
		ProfileResponse: profileResponse(&detail.Profile),
		Permissions:     grantNames(detail.Grants),
		PageIDs:         pages,
		MemberIDs:       members,
	}
}

func grantNames(grants []domain.Grant) []string {
	names := make([]string, 0, len(grants))
	for _, g := range grants {
		names = append(names, string(g.Permission()))
	}
	return names
}
