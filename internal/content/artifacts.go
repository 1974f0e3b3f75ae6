package content

import (
	"contentkit/internal/tablestore"
)

// BaseCore is the base alias holding the application content tables.
const BaseCore = "core"

var (
	advicePolicy = policy{
		namespace: "adviceModules",
		idField:   "advice_id",
		translatable: []string{
			"title", "short_title", "goal", "explanations", "user_gain_details", "static_explanations",
		},
		literals: []literal{
			{field: "user_gain_callout", kind: literalString},
			{field: "emoji", kind: literalString},
			{field: "resource_theme", kind: literalString},
			{field: "is_ready_for_prod", kind: literalBool},
		},
	}
	emailTemplatePolicy = policy{
		namespace:    "emailTemplates",
		translatable: []string{"title", "reason", "content"},
		literals: []literal{
			{field: "url", kind: literalString},
			{field: "filters", kind: literalList},
		},
	}
	strategyPolicy = policy{
		namespace:    "strategies",
		idField:      "strategy_id",
		translatable: []string{"title", "header"},
		literals: []literal{
			{field: "score", kind: literalInt},
			{field: "is_secondary", kind: literalBool},
		},
	}
	strategyGoalPolicy = policy{
		namespace:    "strategies",
		idField:      "goal_id",
		translatable: []string{"content", "step_title"},
	}
	categoryPolicy = policy{
		namespace:    "categories",
		idField:      "category_id",
		translatable: []string{"title", "description"},
		literals: []literal{
			{field: "metric_title", kind: literalString},
			{field: "are_strategies_for_alpha_only", kind: literalBool},
		},
	}
	testimonialPolicy = policy{
		namespace: "testimonials",
		bareField: "content",
		literals: []literal{
			{field: "author_name", kind: literalString},
			{field: "author_job", kind: literalString},
			{field: "rating", kind: literalInt},
			{field: "preferred_job_group_ids", kind: literalList},
		},
	}
)

// DefaultRegistry returns the artifacts built by `contentkit import`.
func DefaultRegistry() *Registry {
	return NewRegistry(
		Artifact{
			Name:      "adviceModules",
			Path:      "advice_modules.json",
			Namespace: advicePolicy.namespace,
			Sources:   []Source{{Base: BaseCore, Table: "advice_modules"}},
			Transform: transformAdviceModules,
		},
		Artifact{
			Name:      "emailTemplates",
			Path:      "email_templates.json",
			Namespace: emailTemplatePolicy.namespace,
			Sources:   []Source{{Base: BaseCore, Table: "email_templates"}},
			Transform: transformEmailTemplates,
		},
		Artifact{
			Name:      "strategies",
			Path:      "strategies.json",
			Namespace: strategyPolicy.namespace,
			Sources: []Source{
				{Base: BaseCore, Table: "strategies"},
				{Base: BaseCore, Table: "strategy_goals"},
			},
			Transform: transformStrategies,
		},
		Artifact{
			Name:      "diagnosticCategories",
			Path:      "diagnostic_categories.json",
			Namespace: categoryPolicy.namespace,
			Sources:   []Source{{Base: BaseCore, Table: "diagnostic_categories"}},
			Transform: transformDiagnosticCategories,
		},
		Artifact{
			Name:      "testimonials",
			Path:      "testimonials.json",
			Namespace: testimonialPolicy.namespace,
			Sources:   []Source{{Base: BaseCore, Table: "testimonials"}},
			Transform: transformTestimonials,
		},
	)
}

// transformAdviceModules builds a map keyed by advice id.
func transformAdviceModules(tables [][]tablestore.Row) Result {
	return keyedMap("advice_modules", advicePolicy, tables[0])
}

// transformTestimonials builds a map keyed by record id.
func transformTestimonials(tables [][]tablestore.Row) Result {
	return keyedMap("testimonials", testimonialPolicy, tables[0])
}

func keyedMap(table string, p policy, rows []tablestore.Row) Result {
	var res Result
	content := map[string]any{}
	for _, row := range sortedRows(rows) {
		key := p.recordKey(row)
		if _, dup := content[key]; dup {
			res.Drops = append(res.Drops, Drop{Table: table, RowID: row.ID, Reason: "duplicate record key " + key})
			continue
		}
		content[key] = p.build(row, key, &res.Keys)
	}
	res.Content = content
	return res
}

// transformEmailTemplates groups templates under every advice id they list.
// A template listing several advice ids appears in each group.
func transformEmailTemplates(tables [][]tablestore.Row) Result {
	var res Result
	groups := map[string][]any{}
	for _, row := range sortedRows(tables[0]) {
		adviceIDs := row.Strings("advice_ids")
		if len(adviceIDs) == 0 {
			res.Drops = append(res.Drops, Drop{Table: "email_templates", RowID: row.ID, Reason: "missing advice_ids"})
			continue
		}
		template := emailTemplatePolicy.build(row, row.ID, &res.Keys)
		seen := map[string]bool{}
		for _, adviceID := range adviceIDs {
			if seen[adviceID] {
				continue
			}
			seen[adviceID] = true
			groups[adviceID] = append(groups[adviceID], template)
		}
	}
	content := make(map[string]any, len(groups))
	for adviceID, templates := range groups {
		content[adviceID] = templates
	}
	res.Content = content
	return res
}

// transformStrategies joins each strategy with the goal rows its goals field
// references, both sorted by their order field.
func transformStrategies(tables [][]tablestore.Row) Result {
	var res Result

	goalsByRowID := make(map[string]tablestore.Row, len(tables[1]))
	for _, goal := range tables[1] {
		goalsByRowID[goal.ID] = goal
	}

	items := make([]orderedItem, 0, len(tables[0]))
	for _, row := range sortedRows(tables[0]) {
		key := strategyPolicy.recordKey(row)
		strategy := strategyPolicy.build(row, key, &res.Keys)
		strategy["strategyId"] = key

		var goals []orderedItem
		for _, goalID := range row.Strings("goals") {
			goal, ok := goalsByRowID[goalID]
			if !ok {
				res.Drops = append(res.Drops, Drop{Table: "strategy_goals", RowID: goalID, Reason: "referenced by strategy " + key + " but not found"})
				continue
			}
			goalKey := strategyGoalPolicy.recordKey(goal)
			value := strategyGoalPolicy.build(goal, goalKey, &res.Keys)
			value["goalId"] = goalKey
			goals = append(goals, newOrderedItem(goal, "order", goalKey, value))
		}
		strategy["goals"] = sortOrdered(goals)
		items = append(items, newOrderedItem(row, "order", key, strategy))
	}
	res.Content = sortOrdered(items)
	return res
}

// transformDiagnosticCategories builds an array sorted by the order field.
func transformDiagnosticCategories(tables [][]tablestore.Row) Result {
	var res Result
	items := make([]orderedItem, 0, len(tables[0]))
	for _, row := range sortedRows(tables[0]) {
		key := categoryPolicy.recordKey(row)
		value := categoryPolicy.build(row, key, &res.Keys)
		value["categoryId"] = key
		items = append(items, newOrderedItem(row, "order", key, value))
	}
	res.Content = sortOrdered(items)
	return res
}
