package model

import (
	"encoding/json"
	"fmt"
)

// RawRecord representa um item de entrega como recebido do feed.
// Os escalares ficam em JSON bruto para que as conversões de exibição sejam exatas.
type RawRecord struct {
	Key              json.RawMessage `json:"Key"`
	StepID           json.RawMessage `json:"Step_ID"`
	DelCode          json.RawMessage `json:"DelCode_w_o__"`
	ShortDescription json.RawMessage `json:"Short_description"`
	Client           json.RawMessage `json:"Client"`
	PlannedTasks     json.RawMessage `json:"Planned_Tasks"`
	TotalTasks       json.RawMessage `json:"Total_Tasks"`
	PlannedStart     Timestamp       `json:"Planned_Start_Timestamp"`
	PlannedDelivery  Timestamp       `json:"Planned_Delivery_Timestamp"`
}

// UnmarshalJSON casa as chaves exatamente (o decoder padrão ignora maiúsculas/minúsculas)
func (r *RawRecord) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}

	rec := RawRecord{
		Key:              fields["Key"],
		StepID:           fields["Step_ID"],
		DelCode:          fields["DelCode_w_o__"],
		ShortDescription: fields["Short_description"],
		Client:           fields["Client"],
		PlannedTasks:     fields["Planned_Tasks"],
		TotalTasks:       fields["Total_Tasks"],
	}
	if raw, ok := fields["Planned_Start_Timestamp"]; ok {
		if err := rec.PlannedStart.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("Planned_Start_Timestamp: %w", err)
		}
	}
	if raw, ok := fields["Planned_Delivery_Timestamp"]; ok {
		if err := rec.PlannedDelivery.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("Planned_Delivery_Timestamp: %w", err)
		}
	}

	*r = rec
	return nil
}

// IsTopLevel indica se o registro é uma entrega principal (Step_ID numérico igual a 0)
func (r RawRecord) IsTopLevel() bool {
	n, ok := JSNumber(r.StepID)
	return ok && n == 0
}

// Group agrupa os registros de uma chave do feed
type Group struct {
	Key     string
	Records []RawRecord
}

// Delivery é o view-model de uma entrega pronto para exibição
type Delivery struct {
	DelCode      string  `json:"delCode"`
	Client       string  `json:"client"`
	Initiated    string  `json:"initiated"`
	Deadline     string  `json:"deadline"`
	TasksPlanned float64 `json:"tasksPlanned"`
	TasksTotal   float64 `json:"tasksTotal"`
}

// Tier classifica o progresso para a barra
type Tier string

const (
	TierHigh   Tier = "success"
	TierMedium Tier = "warning"
	TierLow    Tier = "danger"
)

// Progress retorna o percentual planejado; 0 quando não há tarefas. Não é limitado a 100.
func (d Delivery) Progress() float64 {
	if d.TasksTotal == 0 {
		return 0
	}
	return d.TasksPlanned / d.TasksTotal * 100
}

// PlannedLabel e TotalLabel formatam os contadores para exibição
func (d Delivery) PlannedLabel() string { return FormatNumber(d.TasksPlanned) }

func (d Delivery) TotalLabel() string { return FormatNumber(d.TasksTotal) }

// TierFor classifica um percentual de progresso
func TierFor(progress float64) Tier {
	switch {
	case progress > 50:
		return TierHigh
	case progress > 20:
		return TierMedium
	default:
		return TierLow
	}
}

// Card contém os dados de renderização de uma entrega
type Card struct {
	Delivery
	Progress      float64 `json:"progress"`
	ProgressLabel string  `json:"progressLabel"`
	Tier          Tier    `json:"tier"`
	Link          string  `json:"link"`
}

// Page é a fatia visível da lista filtrada
type Page struct {
	Term         string `json:"term"`
	Total        int    `json:"total"`
	VisibleCount int    `json:"visibleCount"`
	Cards        []Card `json:"cards"`
	Loaded       bool   `json:"loaded"`
}
