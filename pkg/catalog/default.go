package catalog

import "github.com/safehands/guide/pkg/models"

// FoodOrderWorkflow is the built-in food delivery ordering procedure.
const FoodOrderWorkflow = "food_order"

func foodOrderDefinition() Definition {
	return Definition{
		Type:           FoodOrderWorkflow,
		Name:           "Order food on Swiggy",
		TriggerPhrases: []string{"swiggy", "order food", "food delivery"},
		Steps: []models.StepDescriptor{
			{Text: "Open the Swiggy app on your phone", ExpectedConfirmations: []string{"opened", "app is open"}},
			{Text: "Search for the food you want to order", ExpectedConfirmations: []string{"searched", "found it"}},
			{Text: "Select a restaurant from the results", ExpectedConfirmations: []string{"selected", "picked"}},
			{Text: "Choose the items you want to order", ExpectedConfirmations: []string{"chosen", "chose"}},
			{Text: "Add items to your cart", ExpectedConfirmations: []string{"added"}},
			{Text: "Review your order and proceed to checkout", ExpectedConfirmations: []string{"reviewed", "at checkout"}},
			{Text: "Enter your delivery address", ExpectedConfirmations: []string{"entered", "address is set"}},
			{Text: "Select payment method and place order", ExpectedConfirmations: []string{"placed", "paid"}},
		},
	}
}

// Default returns a catalog containing the built-in workflows.
func Default() *Catalog {
	c, err := New(foodOrderDefinition())
	if err != nil {
		panic(err)
	}

	return c
}
