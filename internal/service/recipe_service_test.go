package service

import (
	"errors"
	"testing"

	"bakerypos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestComputeRecipeUsage(t *testing.T) {
	flour, sugar, ube, box := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	dough := model.Preparation{
		ID: uuid.New(), Kind: model.PrepDough, Name: "Sweet dough", BatchWeight: dec("1000"),
		Lines: []model.PreparationLine{
			{IngredientID: flour, Quantity: dec("600")},
			{IngredientID: sugar, Quantity: dec("100")},
		},
	}
	filling := model.Preparation{
		ID: uuid.New(), Kind: model.PrepFilling, Name: "Ube halaya", BatchWeight: dec("500"),
		Lines: []model.PreparationLine{{IngredientID: ube, Quantity: dec("400")}},
	}
	preps := map[uuid.UUID]model.Preparation{dough.ID: dough, filling.ID: filling}

	product := uuid.New()
	components := []model.RecipeComponent{
		{ProductID: product, ComponentType: model.ComponentPackaging, ReferenceID: box, Amount: dec("1")},
		{ProductID: product, ComponentType: model.ComponentPreparation, ReferenceID: filling.ID, Amount: dec("25")},
		{ProductID: product, ComponentType: model.ComponentIngredient, ReferenceID: sugar, Amount: dec("2")},
		{ProductID: product, ComponentType: model.ComponentPreparation, ReferenceID: dough.ID, Amount: dec("50")},
	}

	usage, err := ComputeRecipeUsage([]StockLine{{ProductID: product, Quantity: 4}}, components, preps)
	if err != nil {
		t.Fatalf("ComputeRecipeUsage: %v", err)
	}

	expect := map[uuid.UUID]string{
		flour: "120", // 600 × 50/1000 × 4
		sugar: "28",  // 100 × 50/1000 × 4 + 2 × 4
		ube:   "80",  // 400 × 25/500 × 4
	}
	for id, want := range expect {
		if got := usage.Ingredients[id]; !got.Equal(dec(want)) {
			t.Errorf("ingredient usage expected %s, got %s", want, got)
		}
	}
	if got := usage.Packaging[box]; !got.Equal(dec("4")) {
		t.Fatalf("expected 4 boxes, got %s", got)
	}

	// Dough first, then filling, direct ingredients and packaging last.
	order := []string{}
	for _, st := range usage.Steps {
		via := st.Via
		if via == "" {
			via = st.ComponentType
		}
		if len(order) == 0 || order[len(order)-1] != via {
			order = append(order, via)
		}
	}
	want := []string{"dough:Sweet dough", "filling:Ube halaya", model.ComponentIngredient, model.ComponentPackaging}
	if len(order) != len(want) {
		t.Fatalf("unexpected step order %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("unexpected step order %v", order)
		}
	}
}

func TestComputeRecipeUsageErrors(t *testing.T) {
	product := uuid.New()
	missing := []model.RecipeComponent{{ProductID: product, ComponentType: model.ComponentPreparation, ReferenceID: uuid.New(), Amount: dec("10")}}
	if _, err := ComputeRecipeUsage([]StockLine{{ProductID: product, Quantity: 1}}, missing, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing preparation, got %v", err)
	}

	prep := model.Preparation{ID: uuid.New(), Kind: model.PrepTopping, Name: "Streusel", BatchWeight: decimal.Zero}
	zero := []model.RecipeComponent{{ProductID: product, ComponentType: model.ComponentPreparation, ReferenceID: prep.ID, Amount: dec("10")}}
	if _, err := ComputeRecipeUsage([]StockLine{{ProductID: product, Quantity: 1}}, zero, map[uuid.UUID]model.Preparation{prep.ID: prep}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero batch weight, got %v", err)
	}

	usage, err := ComputeRecipeUsage([]StockLine{{ProductID: uuid.New(), Quantity: 3}}, nil, nil)
	if err != nil || len(usage.Ingredients) != 0 {
		t.Fatalf("product without recipe should consume nothing, got %+v %v", usage, err)
	}
}
