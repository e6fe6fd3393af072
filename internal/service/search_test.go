package service

import (
	"strings"
	"testing"

	"github.com/cleberrangel/delivery-board/internal/model"
	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func deliveriesFor(clients ...string) []model.Delivery {
	list := make([]model.Delivery, len(clients))
	for i, c := range clients {
		list[i] = model.Delivery{DelCode: c, Client: c}
	}
	return list
}

func TestFilterByClient(t *testing.T) {
	list := deliveriesFor("Parts for Acme", "Bolts for Globex", "Gears for ACME Corp")

	tests := []struct {
		term string
		want []string
	}{
		{"", []string{"Parts for Acme", "Bolts for Globex", "Gears for ACME Corp"}},
		{"acme", []string{"Parts for Acme", "Gears for ACME Corp"}},
		{"ACME", []string{"Parts for Acme", "Gears for ACME Corp"}},
		{" for ", []string{"Parts for Acme", "Bolts for Globex", "Gears for ACME Corp"}},
		{"initech", nil},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			var got []string
			for _, d := range FilterByClient(list, tt.term) {
				got = append(got, d.Client)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FilterByClient(%q) mismatch (-want +got):\n%s", tt.term, diff)
			}
		})
	}
}

// TestSearchProperties verifica as propriedades da busca por cliente
func TestSearchProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.MaxSize = 20

	properties := gopter.NewProperties(parameters)

	// Termo vazio devolve a lista inalterada
	properties.Property("empty term is identity", prop.ForAll(
		func(clients []string) bool {
			list := deliveriesFor(clients...)
			return cmp.Equal(list, FilterByClient(list, ""))
		},
		gen.SliceOf(gen.AnyString()),
	))

	// O resultado é uma subsequência da entrada e todo item contém o termo
	properties.Property("result is an ordered matching subsequence", prop.ForAll(
		func(clients []string, term string) bool {
			list := deliveriesFor(clients...)
			result := FilterByClient(list, term)

			i := 0
			for _, d := range result {
				if !strings.Contains(strings.ToLower(d.Client), strings.ToLower(term)) {
					return false
				}
				for i < len(list) && list[i].DelCode != d.DelCode {
					i++
				}
				if i == len(list) {
					return false
				}
				i++
			}
			return true
		},
		gen.SliceOf(gen.Identifier()),
		gen.AlphaString(),
	))

	// A busca não diferencia maiúsculas de minúsculas
	properties.Property("search is case-insensitive", prop.ForAll(
		func(clients []string, term string) bool {
			list := deliveriesFor(clients...)
			return cmp.Equal(
				FilterByClient(list, strings.ToUpper(term)),
				FilterByClient(list, strings.ToLower(term)),
			)
		},
		gen.SliceOf(gen.Identifier()),
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
