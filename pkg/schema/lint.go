package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Severity levels reported by Lint.
const (
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Issue is one schema defect found by Lint.
type Issue struct {
	Severity string `json:"severity"`
	Page     string `json:"page,omitempty"`
	Field    string `json:"field,omitempty"`
	Rule     string `json:"rule"`
	Message  string `json:"message"`
}

func (i Issue) String() string {
	location := strings.Trim(i.Page+"."+i.Field, ".")
	if location == "" {
		return fmt.Sprintf("[%s] %s", i.Rule, i.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", i.Rule, location, i.Message)
}

// LintResult lists every issue found. Clean is true when there are no warnings.
type LintResult struct {
	Clean  bool    `json:"clean"`
	Issues []Issue `json:"issues"`
}

// ValidatorKnown reports whether a validator id resolves in the registry in
// use. Lint stays independent of the registry package through it.
type ValidatorKnown func(id string) bool

// Lint statically checks a catalog for the defects the runtime degrades
// around: unknown validator ids, show_if references to unknown names,
// duplicate names, selects without options and unknown option lists. Loader
// defects are reported too. Lint never fails; every finding is a warning.
func Lint(c *Catalog, known ValidatorKnown) *LintResult {
	result := &LintResult{Clean: true, Issues: make([]Issue, 0)}
	if c == nil {
		return result
	}

	for _, defect := range c.Defects {
		result.add(Issue{
			Severity: SeverityWarning,
			Page:     defect.Page,
			Field:    defect.Field,
			Rule:     "malformed",
			Message:  defect.Message,
		})
	}

	global := make(map[string]string)
	c.Walk(func(page Page, field Field, parent string) {
		if parent != "" || field.Name == "" || field.Kind == KindLabel {
			return
		}
		if prev, dup := global[field.Name]; dup {
			result.add(Issue{
				Severity: SeverityWarning,
				Page:     page.Key,
				Field:    field.Name,
				Rule:     "duplicate-name",
				Message:  fmt.Sprintf("name already declared on page %s", prev),
			})
			return
		}
		global[field.Name] = page.Key
	})

	for _, page := range c.Pages {
		lintFields(c, page, page.Fields(), global, known, result)
	}

	sort.SliceStable(result.Issues, func(i, j int) bool {
		return pageOrder(c, result.Issues[i].Page) < pageOrder(c, result.Issues[j].Page)
	})
	return result
}

func lintFields(c *Catalog, page Page, fields []Field, scope map[string]string, known ValidatorKnown, result *LintResult) {
	for _, field := range fields {
		if field.ShowIf != nil {
			for _, ref := range field.ShowIf.Fields() {
				if _, ok := scope[ref]; !ok {
					result.add(Issue{
						Severity: SeverityWarning,
						Page:     page.Key,
						Field:    field.Name,
						Rule:     "unknown-reference",
						Message:  fmt.Sprintf("show_if references unknown field %q", ref),
					})
				}
			}
		}

		if field.Validator != "" && known != nil && !known(field.Validator) {
			result.add(Issue{
				Severity: SeverityWarning,
				Page:     page.Key,
				Field:    field.Name,
				Rule:     "unknown-validator",
				Message:  fmt.Sprintf("validator %q is not registered", field.Validator),
			})
		}

		switch field.Kind {
		case KindSelect, KindRadio:
			if field.Options.Empty() {
				result.add(Issue{
					Severity: SeverityWarning,
					Page:     page.Key,
					Field:    field.Name,
					Rule:     "empty-options",
					Message:  fmt.Sprintf("%s has no options", field.Kind),
				})
			} else if ref := field.Options.Ref; ref != "" {
				if _, ok := c.OptionLists[ref]; !ok {
					result.add(Issue{
						Severity: SeverityWarning,
						Page:     page.Key,
						Field:    field.Name,
						Rule:     "unknown-option-list",
						Message:  fmt.Sprintf("option list %q is not defined", ref),
					})
				}
			}
		case KindGroup:
			lintFields(c, page, field.Fields, scope, known, result)
		case KindRepeatingGroup:
			// Item sub-fields resolve show_if against the item itself.
			itemScope := make(map[string]string, len(field.Fields))
			seen := make(map[string]struct{}, len(field.Fields))
			for _, sub := range field.Fields {
				if sub.Name == "" {
					continue
				}
				if _, dup := seen[sub.Name]; dup {
					result.add(Issue{
						Severity: SeverityWarning,
						Page:     page.Key,
						Field:    field.Name + "." + sub.Name,
						Rule:     "duplicate-name",
						Message:  "name already declared in item template",
					})
				}
				seen[sub.Name] = struct{}{}
				itemScope[sub.Name] = page.Key
			}
			lintFields(c, page, field.Fields, itemScope, known, result)
		case KindText, KindNumber, KindDate, KindTextArea, KindCheckbox, KindLabel:
		}
	}
}

func (r *LintResult) add(issue Issue) {
	r.Issues = append(r.Issues, issue)
	if issue.Severity == SeverityWarning {
		r.Clean = false
	}
}

func pageOrder(c *Catalog, key string) int {
	if idx, ok := c.PageIndex(key); ok {
		return idx
	}
	return -1
}
