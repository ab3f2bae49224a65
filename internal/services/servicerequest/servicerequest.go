// Package services принимает заявки пользователей на обслуживание.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/storefront/internal/models"
)

// Repository сохраняет заявки.
type Repository interface {
	CreateServiceRequest(ctx context.Context, req models.ServiceRequest) error
}

// ServiceRequestService создаёт заявки со статусом Pending.
type ServiceRequestService struct {
	repo Repository
	log  *slog.Logger
}

// NewServiceRequestService создает новый экземпляр ServiceRequestService.
func NewServiceRequestService(repo Repository, log *slog.Logger) *ServiceRequestService {
	return &ServiceRequestService{repo: repo, log: log}
}

// Create сохраняет новую заявку пользователя.
func (s *ServiceRequestService) Create(ctx context.Context, username, requestType, description string) (*models.ServiceRequest, error) {
	const op = "services.ServiceRequestService.Create"
	req := models.ServiceRequest{
		ID:          uuid.NewString(),
		Username:    username,
		Type:        strings.TrimSpace(requestType),
		Description: strings.TrimSpace(description),
		Status:      models.ServiceRequestPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.CreateServiceRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("service request created", slog.String("id", req.ID), slog.String("type", req.Type))
	return &req, nil
}
