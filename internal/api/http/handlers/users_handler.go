package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-io/helpdesk/internal/api/dto"
	"github.com/helpdesk-io/helpdesk/internal/domain"
	"github.com/helpdesk-io/helpdesk/internal/repository"
	"github.com/helpdesk-io/helpdesk/internal/service"
)

// UsersHandler exposes account administration.
type UsersHandler struct {
	service *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{service: userService}
}

// List GET /admin/users?role=agent,admin&active=true&search=.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}
	filter := repository.UserFilter{Search: c.Query("search")}
	for _, role := range splitList(c.Query("role")) {
		filter.Roles = append(filter.Roles, domain.Role(role))
	}
	if active := c.Query("active"); active != "" {
		v := parseBool(active)
		filter.Active = &v
	}
	filter.Limit, filter.Offset = pagination(c, 50)
	users, err := h.service.List(c.UserContext(), user, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserList(users)})
}

// Agents GET /agents.
func (h *UsersHandler) Agents(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}
	agents, err := h.service.ListAgents(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserList(agents)})
}

// Create POST /admin/users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	created, err := h.service.Create(c.UserContext(), user, service.UserCreateInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		Role:       req.Role,
		Department: req.Department,
	}, c.IP())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(created)})
}

// Update PATCH /admin/users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}
	var req dto.UpdateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	updated, err := h.service.Update(c.UserContext(), user, c.Params("id"), service.UserUpdateInput{
		Name:       req.Name,
		Role:       req.Role,
		Department: req.Department,
		Active:     req.Active,
		Password:   req.Password,
	}, c.IP())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(updated)})
}

// Delete DELETE /admin/users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), user, c.Params("id"), c.IP()); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
