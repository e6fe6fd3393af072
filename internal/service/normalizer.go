package service

import (
	"context"

	"github.com/cleberrangel/delivery-board/internal/logger"
	"github.com/cleberrangel/delivery-board/internal/model"
)

// Normalizer transforma os grupos do feed na lista de entregas exibida
type Normalizer struct {
	formatter *Formatter
}

// NewNormalizer cria um normalizer
func NewNormalizer(formatter *Formatter) *Normalizer {
	if formatter == nil {
		formatter = NewFormatter(nil, "")
	}
	return &Normalizer{formatter: formatter}
}

// Normalize achata os grupos, mantém só as entregas principais (Step_ID 0) e monta o view-model
func (n *Normalizer) Normalize(ctx context.Context, groups []model.Group) []model.Delivery {
	log := logger.Get(ctx)

	records := 0
	deliveries := make([]model.Delivery, 0)
	seen := make(map[string]bool)

	for _, group := range groups {
		for _, rec := range group.Records {
			records++
			if !rec.IsTopLevel() {
				continue
			}

			d := n.mapRecord(rec)
			if seen[d.DelCode] {
				log.Warn().
					Str("del_code", d.DelCode).
					Str("group", group.Key).
					Msg("delCode duplicado no feed")
			}
			seen[d.DelCode] = true

			deliveries = append(deliveries, d)
		}
	}

	log.Debug().
		Int("groups", len(groups)).
		Int("records", records).
		Int("deliveries", len(deliveries)).
		Msg("Feed normalizado")

	return deliveries
}

func (n *Normalizer) mapRecord(rec model.RawRecord) model.Delivery {
	return model.Delivery{
		DelCode:      model.Text(rec.DelCode),
		Client:       model.Text(rec.ShortDescription) + " for " + model.Text(rec.Client),
		Initiated:    n.formatter.FormatTimestamp(rec.PlannedStart),
		Deadline:     n.formatter.CalculateDeadline(rec.PlannedDelivery, rec.PlannedStart),
		TasksPlanned: model.Count(rec.PlannedTasks),
		TasksTotal:   model.Count(rec.TotalTasks),
	}
}

// CountRecords devolve o total de registros após o achatamento
func CountRecords(groups []model.Group) int {
	total := 0
	for _, g := range groups {
		total += len(g.Records)
	}
	return total
}
