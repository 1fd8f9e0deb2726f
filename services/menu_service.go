package services

import (
	"context"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/entity"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/events"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/apperr"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/dto"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/repository"
)

type MenuService struct {
	Repo   *repository.MenuRepository
	Events events.Publisher
}

func NewMenuService(repo *repository.MenuRepository, pub events.Publisher) *MenuService {
	return &MenuService{Repo: repo, Events: pub}
}

func (s *MenuService) List(tenantID uint) ([]dto.MenuItem, error) {
	items, err := s.Repo.ListForTenant(tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MenuItem, 0, len(items))
	for i := range items {
		out = append(out, MenuView(&items[i]))
	}
	return out, nil
}

// SetAvailability เปลี่ยนสถานะเมนู; cart ที่มีเมนูนี้จะเห็นผลตอน fetch ครั้งถัดไป
func (s *MenuService) SetAvailability(ctx context.Context, tenantID, id uint, raw string) error {
	a, ok := entity.ParseAvailability(raw)
	if !ok {
		return apperr.Validation("unknown availability %q", raw)
	}
	found, err := s.Repo.SetAvailability(tenantID, id, a)
	if err != nil {
		return err
	}
	if !found {
		return apperr.ErrNotFound
	}
	s.Events.Publish(ctx, events.Event{
		Type: events.MenuUpdated, TenantID: tenantID,
		Payload: map[string]any{"menuItemId": id, "availability": a},
	})
	return nil
}
