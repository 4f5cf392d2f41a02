package tools

import (
	"context"
	"fmt"

	"github.com/ticketflow/conductor/domain"
	"github.com/ticketflow/conductor/store"
)

// ByAgentType returns the tool set a specialist of agentType may call,
// backed by st. question is registered separately by the caller for agent
// types where domain.AgentType.CanAskQuestions is true, since it needs a
// ticket-scoped QuestionAsker rather than the store.
func ByAgentType(st store.Store, agentType domain.AgentType) []Spec {
	switch agentType {
	case domain.AgentOrderSpecialist:
		return []Spec{getOrderTool(st), getCustomerOrdersTool(st), searchKnowledgeBaseTool(st)}
	case domain.AgentRefundSpecialist:
		return []Spec{getOrderTool(st), getReturnPolicyTool(st), createAlterationRequestTool(st)}
	case domain.AgentTechnicalSpecialist:
		return []Spec{searchKnowledgeBaseTool(st), searchFAQTool(st)}
	case domain.AgentMaleSpecialist, domain.AgentFemaleSpecialist:
		return []Spec{
			searchProductsTool(st), getProductTool(st),
			saveMeasurementsTool(st), getCustomerMeasurementsTool(st),
		}
	case domain.AgentBilling:
		return []Spec{getPurchaseTool(st), createPurchaseTool(st), saveBillingTool(st)}
	case domain.AgentDelivery:
		return []Spec{getPurchaseTool(st), scheduleDeliveryTool(st)}
	case domain.AgentAlteration:
		return []Spec{getPurchaseTool(st), createAlterationRequestTool(st)}
	case domain.AgentGeneralSupport:
		return []Spec{searchKnowledgeBaseTool(st), searchFAQTool(st), getReturnPolicyTool(st)}
	default:
		return nil
	}
}

func strArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func getOrderTool(st store.Store) Spec {
	return Spec{
		Name:        "get_order",
		Description: "Look up a single order by id.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"order_id": map[string]any{"type": "string"}},
			"required":   []string{"order_id"},
		},
		Invoke: func(ctx context.Context, args map[string]any) (any, error) {
			o, found, err := st.GetOrder(ctx, strArg(args, "order_id"))
			if err != nil {
				return nil, err
			}
			if !found {
				return map[string]any{"found": false}, nil
			}
			return o, nil
		},
	}
}

func getCustomerOrdersTool(st store.Store) Spec {
	return Spec{
		Name:        "get_customer_orders",
		Description: "List every order placed by a customer.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"customer_id": map[string]any{"type": "string"}},
			"required":   []string{"customer_id"},
		},
		Invoke: func(ctx context.Context, args map[string]any) (any, error) {
			return st.GetCustomerOrders(ctx, strArg(args, "customer_id"))
		},
	}
}

func searchKnowledgeBaseTool(st store.Store) Spec {
	return Spec{
		Name:        "search_knowledge_base",
		Description: "Search knowledge-base articles by keyword.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"query": map[string]any{"type": "string"}},
			"required":   []string{"query"},
		},
		Invoke: func(ctx context.Context, args map[string]any) (any, error) {
			return st.SearchKnowledgeBase(ctx, strArg(args, "query"))
		},
	}
}

func searchFAQTool(st store.Store) Spec {
	return Spec{
		Name:        "search_faq",
		Description: "Search frequently asked questions by keyword.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"query": map[string]any{"type": "string"}},
			"required":   []string{"query"},
		},
		Invoke: func(ctx context.Context, args map[string]any) (any, error) {
			return st.SearchFAQ(ctx, strArg(args, "query"))
		},
	}
}

func getReturnPolicyTool(st store.Store) Spec {
	return Spec{
		Name:        "get_return_policy",
		Description: "Fetch the current return policy text.",
		InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
		Invoke: func(ctx context.Context, _ map[string]any) (any, error) {
			text, err := st.GetReturnPolicy(ctx)
			return map[string]any{"policy": text}, err
		},
	}
}

func searchProductsTool(st store.Store) Spec {
	return Spec{
		Name:        "search_products",
		Description: "Search the catalog, optionally filtered by gender and/or category.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"gender":   map[string]any{"type": "string"},
				"category": map[string]any{"type": "string"},
			},
		},
		Invoke: func(ctx context.Context, args map[string]any) (any, error) {
			return st.SearchProducts(ctx, strArg(args, "gender"), strArg(args, "category"))
		},
	}
}

func getProductTool(st store.Store) Spec {
	return Spec{
		Name:        "get_product",
		Description: "Look up a single catalog product by id.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"product_id": map[string]any{"type": "string"}},
			"required":   []string{"product_id"},
		},
		Invoke: func(ctx context.Context, args map[string]any) (any, error) {
			p, found, err := st.GetProduct(ctx, strArg(args, "product_id"))
			if err != nil {
				return nil, err
			}
			if !found {
				return map[string]any{"found": false}, nil
			}
			return p, nil
		},
	}
}

func saveMeasurementsTool(st store.Store) Spec {
	return Spec{
		Name:        "save_measurements",
		Description: "Record a customer's body measurements for a given gender fit profile.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"customer_id": map[string]any{"type": "string"},
				"gender":      map[string]any{"type": "string"},
				"data":        map[string]any{"type": "object"},
			},
			"required": []string{"customer_id", "gender", "data"},
		},
		Invoke: func(ctx context.Context, args map[string]any) (any, error) {
			data, _ := args["data"].(map[string]any)
			err := st.SaveMeasurements(ctx, strArg(args, "customer_id"), strArg(args, "gender"), data)
			return map[string]any{"saved": err == nil}, err
		},
	}
}

func getCustomerMeasurementsTool(st store.Store) Spec {
	return Spec{
		Name:        "get_customer_measurements",
		Description: "Fetch a customer's previously recorded measurements for a gender fit profile.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"customer_id": map[string]any{"type": "string"},
				"gender":      map[string]any{"type": "string"},
			},
			"required": []string{"customer_id", "gender"},
		},
		Invoke: func(ctx context.Context, args map[string]any) (any, error) {
			data, found, err := st.GetCustomerMeasurements(ctx, strArg(args, "customer_id"), strArg(args, "gender"))
			if err != nil {
				return nil, err
			}
			if !found {
				return map[string]any{"found": false}, nil
			}
			return map[string]any{"found": true, "data": data}, nil
		},
	}
}

func createPurchaseTool(st store.Store) Spec {
	return Spec{
		Name:        "create_purchase",
		Description: "Create a purchase record for a customer from a list of line items.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"customer_id": map[string]any{"type": "string"},
				"items": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"product_id": map[string]any{"type": "string"},
							"size":       map[string]any{"type": "string"},
							"quantity":   map[string]any{"type": "integer"},
							"price":      map[string]any{"type": "number"},
						},
						"required": []string{"product_id", "quantity", "price"},
					},
				},
			},
			"required": []string{"customer_id", "items"},
		},
		Invoke: func(ctx context.Context, args map[string]any) (any, error) {
			raw, _ := args["items"].([]any)
			items := make([]store.PurchaseItem, 0, len(raw))
			for _, r := range raw {
				m, ok := r.(map[string]any)
				if !ok {
					continue
				}
				items = append(items, store.PurchaseItem{
					ProductID: strArg(m, "product_id"),
					Size:      strArg(m, "size"),
					Quantity:  intArg(m, "quantity"),
					Price:     floatArg(m, "price"),
				})
			}
			id, err := st.CreatePurchase(ctx, strArg(args, "customer_id"), items)
			return map[string]any{"purchase_id": id}, err
		},
	}
}

func getPurchaseTool(st store.Store) Spec {
	return Spec{
		Name:        "get_purchase",
		Description: "Look up a purchase by id.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"purchase_id": map[string]any{"type": "string"}},
			"required":   []string{"purchase_id"},
		},
		Invoke: func(ctx context.Context, args map[string]any) (any, error) {
			p, found, err := st.GetPurchase(ctx, strArg(args, "purchase_id"))
			if err != nil {
				return nil, err
			}
			if !found {
				return map[string]any{"found": false}, nil
			}
			return p, nil
		},
	}
}

func saveBillingTool(st store.Store) Spec {
	return Spec{
		Name:        "save_billing",
		Description: "Attach billing details to a purchase.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"purchase_id": map[string]any{"type": "string"},
				"data":        map[string]any{"type": "object"},
			},
			"required": []string{"purchase_id", "data"},
		},
		Invoke: func(ctx context.Context, args map[string]any) (any, error) {
			data, _ := args["data"].(map[string]any)
			err := st.SaveBilling(ctx, strArg(args, "purchase_id"), data)
			return map[string]any{"saved": err == nil}, err
		},
	}
}

func scheduleDeliveryTool(st store.Store) Spec {
	return Spec{
		Name:        "schedule_delivery",
		Description: "Schedule delivery for a purchase with a delivery option and address.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"purchase_id": map[string]any{"type": "string"},
				"option":      map[string]any{"type": "string"},
				"address":     map[string]any{"type": "string"},
			},
			"required": []string{"purchase_id", "option", "address"},
		},
		Invoke: func(ctx context.Context, args map[string]any) (any, error) {
			err := st.ScheduleDelivery(ctx, strArg(args, "purchase_id"), strArg(args, "option"), strArg(args, "address"))
			return map[string]any{"scheduled": err == nil}, err
		},
	}
}

func createAlterationRequestTool(st store.Store) Spec {
	return Spec{
		Name:        "create_alteration_request",
		Description: "File an alteration request against a purchase.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"purchase_id": map[string]any{"type": "string"},
				"details":     map[string]any{"type": "object"},
			},
			"required": []string{"purchase_id", "details"},
		},
		Invoke: func(ctx context.Context, args map[string]any) (any, error) {
			details, _ := args["details"].(map[string]any)
			id, err := st.CreateAlterationRequest(ctx, strArg(args, "purchase_id"), details)
			if err != nil {
				return nil, fmt.Errorf("create alteration request: %w", err)
			}
			return map[string]any{"alteration_id": id}, nil
		},
	}
}

func floatArg(args map[string]any, key string) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}
