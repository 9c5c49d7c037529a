package projection

import (
	"github.com/angelmondragon/civreg-backend/pkg/types"
)

// variantKeys maps list-of-variant declaration fields to the discriminator
// key used for the upsert merge. Names carry one entry per use (official,
// maiden, ...), addresses one entry per type (birth, residence, ...).
var variantKeys = map[string]string{
	"names":     "use",
	"addresses": "type",
}

// mergeDeclaration folds an action's partial declaration into the
// accumulated one. Scalar fields overwrite, variant lists are merged by
// discriminator, everything else overwrites. The input maps are never
// mutated.
func mergeDeclaration(current types.Declaration, incoming types.Declaration) types.Declaration {
	if len(incoming) == 0 {
		return current
	}
	merged := current.Clone()
	if merged == nil {
		merged = types.Declaration{}
	}
	for field, value := range incoming {
		key, isVariant := variantKeys[field]
		if !isVariant {
			merged[field] = value
			continue
		}
		existing, _ := merged[field].([]any)
		update, ok := value.([]any)
		if !ok {
			merged[field] = value
			continue
		}
		merged[field] = upsertVariants(existing, update, key)
	}
	return merged
}

// upsertVariants merges each incoming variant into the entry sharing its
// discriminator value, appending when no match exists. Variants without a
// usable discriminator are appended as-is.
func upsertVariants(existing []any, incoming []any, key string) []any {
	out := make([]any, len(existing))
	copy(out, existing)

	for _, raw := range incoming {
		variant, ok := raw.(map[string]any)
		if !ok {
			out = append(out, raw)
			continue
		}
		discriminator, ok := variant[key].(string)
		if !ok || discriminator == "" {
			out = append(out, raw)
			continue
		}

		matched := false
		for i, existingRaw := range out {
			candidate, ok := existingRaw.(map[string]any)
			if !ok {
				continue
			}
			if current, _ := candidate[key].(string); current == discriminator {
				out[i] = mergeVariant(candidate, variant)
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, variant)
		}
	}
	return out
}

func mergeVariant(current map[string]any, update map[string]any) map[string]any {
	merged := make(map[string]any, len(current)+len(update))
	for k, v := range current {
		merged[k] = v
	}
	for k, v := range update {
		merged[k] = v
	}
	return merged
}
