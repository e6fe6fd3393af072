package service

import (
	"net/url"

	"github.com/cleberrangel/delivery-board/internal/model"
)

// Paginate devolve o prefixo visível da lista
func Paginate(list []model.Delivery, visibleCount int) []model.Delivery {
	if visibleCount <= 0 {
		return []model.Delivery{}
	}
	if len(list) <= visibleCount {
		return list
	}
	return list[:visibleCount]
}

// BuildCards monta os dados de renderização
func BuildCards(list []model.Delivery) []model.Card {
	cards := make([]model.Card, len(list))
	for i, d := range list {
		progress := d.Progress()
		cards[i] = model.Card{
			Delivery:      d,
			Progress:      progress,
			ProgressLabel: model.FormatNumber(progress),
			Tier:          model.TierFor(progress),
			Link:          DetailLink(d.DelCode),
		}
	}
	return cards
}

// DetailLink monta o link da tela de detalhe
func DetailLink(delCode string) string {
	return "/delivery/" + url.PathEscape(delCode)
}
