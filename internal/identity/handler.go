package identity

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes identity endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an identity HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type registerRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	TCKN      string `json:"tckn"`
}

type userResponse struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toResponse(u User) userResponse {
	return userResponse{UserID: u.ID, Username: u.Username, Role: u.Role, FirstName: u.FirstName, LastName: u.LastName, CreatedAt: u.CreatedAt}
}

// RegisterCustomer handles customer onboarding.
func (h *Handler) RegisterCustomer(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.service.RegisterCustomer(c.UserContext(), CustomerInput{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		TCKN:      req.TCKN,
	})
	if err != nil {
		return registrationError(err)
	}
	return c.Status(http.StatusCreated).JSON(toResponse(user))
}

// RegisterEmployee creates a back-office account. Routes guard it to employees.
func (h *Handler) RegisterEmployee(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.service.RegisterEmployee(c.UserContext(), Credentials{Username: req.Username, Password: req.Password})
	if err != nil {
		return registrationError(err)
	}
	return c.Status(http.StatusCreated).JSON(toResponse(user))
}

func registrationError(err error) error {
	switch {
	case errors.Is(err, ErrUserExists):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrWeakPassword), errors.Is(err, ErrInvalidTCKN), errors.Is(err, ErrInvalidUsername):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		return err
	}
}
