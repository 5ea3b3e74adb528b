package service

import (
	"context"
	"strings"

	"github.com/helpdesk-io/helpdesk/internal/auth"
	"github.com/helpdesk-io/helpdesk/internal/domain"
	"github.com/helpdesk-io/helpdesk/internal/repository"
	apperrors "github.com/helpdesk-io/helpdesk/pkg/util/errorutil"
)

// CatalogService manages lookups, FAQs and canned responses.
// Route middleware gates access by module; this layer validates content.
type CatalogService struct {
	lookups repository.LookupRepository
	faqs    repository.FAQRepository
	canned  repository.CannedResponseRepository
}

// NewCatalogService builds the service.
func NewCatalogService(lookups repository.LookupRepository, faqs repository.FAQRepository, canned repository.CannedResponseRepository) *CatalogService {
	return &CatalogService{lookups: lookups, faqs: faqs, canned: canned}
}

// LookupInput creates or patches a lookup entry.
type LookupInput struct {
	Name        *string
	Description *string
	Active      *bool
}

func (s *CatalogService) ListLookups(ctx context.Context, kind domain.LookupKind, activeOnly bool) ([]domain.LookupItem, error) {
	items, err := s.lookups.List(ctx, kind, activeOnly)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

func (s *CatalogService) CreateLookup(ctx context.Context, kind domain.LookupKind, input LookupInput) (*domain.LookupItem, error) {
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	item := &domain.LookupItem{Kind: kind, Name: strings.TrimSpace(*input.Name), Active: true}
	if input.Description != nil {
		item.Description = strings.TrimSpace(*input.Description)
	}
	if input.Active != nil {
		item.Active = *input.Active
	}
	if err := s.lookups.Create(ctx, item); err != nil {
		return nil, apperrors.MapError(err)
	}
	return item, nil
}

func (s *CatalogService) UpdateLookup(ctx context.Context, kind domain.LookupKind, id string, input LookupInput) (*domain.LookupItem, error) {
	item, err := s.lookups.GetByID(ctx, kind, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, string(kind), map[string]any{"id": id})
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("name cannot be empty", nil)
		}
		item.Name = name
	}
	if input.Description != nil {
		item.Description = strings.TrimSpace(*input.Description)
	}
	if input.Active != nil {
		item.Active = *input.Active
	}
	if err := s.lookups.Update(ctx, item); err != nil {
		return nil, apperrors.NotFoundOr(err, string(kind), map[string]any{"id": id})
	}
	return item, nil
}

func (s *CatalogService) DeleteLookup(ctx context.Context, kind domain.LookupKind, id string) error {
	return apperrors.NotFoundOr(s.lookups.Delete(ctx, kind, id), string(kind), map[string]any{"id": id})
}

// FAQInput creates or patches an FAQ.
type FAQInput struct {
	Question   *string
	Answer     *string
	CategoryID *string
	Published  *bool
}

// ListFAQs returns published entries only unless includeDrafts.
func (s *CatalogService) ListFAQs(ctx context.Context, includeDrafts bool) ([]domain.FAQ, error) {
	items, err := s.faqs.List(ctx, !includeDrafts)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

func (s *CatalogService) CreateFAQ(ctx context.Context, input FAQInput) (*domain.FAQ, error) {
	if input.Question == nil || input.Answer == nil ||
		strings.TrimSpace(*input.Question) == "" || strings.TrimSpace(*input.Answer) == "" {
		return nil, apperrors.NewValidationError("question and answer are required", nil)
	}
	faq := &domain.FAQ{
		Question:   strings.TrimSpace(*input.Question),
		Answer:     strings.TrimSpace(*input.Answer),
		CategoryID: input.CategoryID,
		Published:  input.Published == nil || *input.Published,
	}
	if err := s.checkCategory(ctx, faq.CategoryID); err != nil {
		return nil, err
	}
	if err := s.faqs.Create(ctx, faq); err != nil {
		return nil, apperrors.MapError(err)
	}
	return faq, nil
}

func (s *CatalogService) UpdateFAQ(ctx context.Context, id string, input FAQInput) (*domain.FAQ, error) {
	faq, err := s.faqs.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "faq", map[string]any{"id": id})
	}
	if input.Question != nil {
		if strings.TrimSpace(*input.Question) == "" {
			return nil, apperrors.NewValidationError("question cannot be empty", nil)
		}
		faq.Question = strings.TrimSpace(*input.Question)
	}
	if input.Answer != nil {
		if strings.TrimSpace(*input.Answer) == "" {
			return nil, apperrors.NewValidationError("answer cannot be empty", nil)
		}
		faq.Answer = strings.TrimSpace(*input.Answer)
	}
	if input.CategoryID != nil {
		if err := s.checkCategory(ctx, input.CategoryID); err != nil {
			return nil, err
		}
		faq.CategoryID = input.CategoryID
	}
	if input.Published != nil {
		faq.Published = *input.Published
	}
	if err := s.faqs.Update(ctx, faq); err != nil {
		return nil, apperrors.NotFoundOr(err, "faq", map[string]any{"id": id})
	}
	return faq, nil
}

func (s *CatalogService) DeleteFAQ(ctx context.Context, id string) error {
	return apperrors.NotFoundOr(s.faqs.Delete(ctx, id), "faq", map[string]any{"id": id})
}

// CannedResponseInput creates or patches a canned response.
type CannedResponseInput struct {
	Title *string
	Body  *string
}

func (s *CatalogService) ListCannedResponses(ctx context.Context) ([]domain.CannedResponse, error) {
	items, err := s.canned.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

func (s *CatalogService) CreateCannedResponse(ctx context.Context, actor *domain.User, input CannedResponseInput) (*domain.CannedResponse, error) {
	if input.Title == nil || input.Body == nil ||
		strings.TrimSpace(*input.Title) == "" || strings.TrimSpace(*input.Body) == "" {
		return nil, apperrors.NewValidationError("title and body are required", nil)
	}
	response := &domain.CannedResponse{
		Title:    strings.TrimSpace(*input.Title),
		Body:     strings.TrimSpace(*input.Body),
		AuthorID: actorID(actor),
	}
	if err := s.canned.Create(ctx, response); err != nil {
		return nil, apperrors.MapError(err)
	}
	return response, nil
}

// UpdateCannedResponse lets the author or an admin edit a response.
func (s *CatalogService) UpdateCannedResponse(ctx context.Context, actor *domain.User, id string, input CannedResponseInput) (*domain.CannedResponse, error) {
	response, err := s.ownedResponse(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, apperrors.NewValidationError("title cannot be empty", nil)
		}
		response.Title = strings.TrimSpace(*input.Title)
	}
	if input.Body != nil {
		if strings.TrimSpace(*input.Body) == "" {
			return nil, apperrors.NewValidationError("body cannot be empty", nil)
		}
		response.Body = strings.TrimSpace(*input.Body)
	}
	if err := s.canned.Update(ctx, response); err != nil {
		return nil, apperrors.NotFoundOr(err, "canned_response", map[string]any{"id": id})
	}
	return response, nil
}

func (s *CatalogService) DeleteCannedResponse(ctx context.Context, actor *domain.User, id string) error {
	if _, err := s.ownedResponse(ctx, actor, id); err != nil {
		return err
	}
	return apperrors.NotFoundOr(s.canned.Delete(ctx, id), "canned_response", map[string]any{"id": id})
}

func (s *CatalogService) ownedResponse(ctx context.Context, actor *domain.User, id string) (*domain.CannedResponse, error) {
	response, err := s.canned.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "canned_response", map[string]any{"id": id})
	}
	if !auth.IsAdmin(actor) && (actor == nil || response.AuthorID == nil || *response.AuthorID != actor.ID) {
		return nil, apperrors.NewForbidden("only the author or an administrator may change this response")
	}
	return response, nil
}

func (s *CatalogService) checkCategory(ctx context.Context, id *string) error {
	if id == nil {
		return nil
	}
	if _, err := s.lookups.GetByID(ctx, domain.LookupCategory, *id); err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewValidationError("unknown category", map[string]any{"id": *id})
		}
		return apperrors.MapError(err)
	}
	return nil
}
