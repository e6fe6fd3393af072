package service

import (
	"strings"

	"github.com/cleberrangel/delivery-board/internal/model"
)

// FilterByClient filtra por substring do cliente sem diferenciar maiúsculas; termo vazio devolve tudo
func FilterByClient(list []model.Delivery, term string) []model.Delivery {
	if term == "" {
		return list
	}

	needle := strings.ToLower(term)
	result := make([]model.Delivery, 0, len(list))
	for _, d := range list {
		if strings.Contains(strings.ToLower(d.Client), needle) {
			result = append(result, d)
		}
	}
	return result
}
