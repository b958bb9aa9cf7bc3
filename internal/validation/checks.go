package validation

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// dateLayouts are accepted date/datetime encodings, tried in order.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC3339,
}

// String requires a string value of at most max characters (0 = no limit).
func String(max int) Check {
	return func(v *Validator, field string) bool {
		raw, _ := v.Raw(field)
		s, ok := raw.(string)
		if !ok {
			v.Fail(field, "The "+fieldName(field)+" must be a string.")
			return false
		}
		if max > 0 && len(s) > max {
			v.Fail(field, fmt.Sprintf("The %s must not be greater than %d characters.", fieldName(field), max))
			return false
		}
		v.Set(field, s)
		return true
	}
}

// MinLen requires at least n characters.
func MinLen(n int) Check {
	return func(v *Validator, field string) bool {
		raw, _ := v.Raw(field)
		s, ok := raw.(string)
		if !ok || len(s) < n {
			v.Fail(field, fmt.Sprintf("The %s must be at least %d characters.", fieldName(field), n))
			return false
		}
		v.Set(field, s)
		return true
	}
}

// Boolean accepts JSON booleans plus the 0/1/"true"/"false" encodings form
// posts produce.
func Boolean() Check {
	return func(v *Validator, field string) bool {
		raw, _ := v.Raw(field)
		switch val := raw.(type) {
		case bool:
			v.Set(field, val)
			return true
		case float64:
			if val == 0 || val == 1 {
				v.Set(field, val == 1)
				return true
			}
		case string:
			switch strings.ToLower(val) {
			case "1", "true":
				v.Set(field, true)
				return true
			case "0", "false":
				v.Set(field, false)
				return true
			}
		}
		v.Fail(field, "The "+fieldName(field)+" field must be true or false.")
		return false
	}
}

// JSONDocument accepts an already-parsed object/array or a JSON-encoded
// string and normalizes to the raw document bytes.
func JSONDocument() Check {
	return func(v *Validator, field string) bool {
		raw, _ := v.Raw(field)
		switch val := raw.(type) {
		case map[string]any, []any:
			buf, err := json.Marshal(val)
			if err != nil {
				break
			}
			v.Set(field, datatypes.JSON(buf))
			return true
		case string:
			if json.Valid([]byte(val)) {
				v.Set(field, datatypes.JSON(val))
				return true
			}
		}
		v.Fail(field, "The "+fieldName(field)+" must be a valid JSON string.")
		return false
	}
}

// Date parses a date or datetime string.
func Date() Check {
	return func(v *Validator, field string) bool {
		raw, _ := v.Raw(field)
		s, ok := raw.(string)
		if ok {
			for _, layout := range dateLayouts {
				if t, err := time.Parse(layout, s); err == nil {
					v.Set(field, t)
					return true
				}
			}
		}
		v.Fail(field, "The "+fieldName(field)+" is not a valid date.")
		return false
	}
}

// AfterOrEqual requires the field's date to not precede another date field.
// The other field must appear earlier in the rule table; the constraint is
// skipped when the other field is absent.
func AfterOrEqual(other string) Check {
	return func(v *Validator, field string) bool {
		this, ok := v.Normalized(field)
		if !ok {
			return true
		}
		that, ok := v.Normalized(other)
		if !ok {
			return true
		}
		if this.(time.Time).Before(that.(time.Time)) {
			v.Fail(field, "The "+fieldName(field)+" must be a date after or equal to "+fieldName(other)+".")
			return false
		}
		return true
	}
}

// In requires the value to be one of the allowed strings.
func In(allowed ...string) Check {
	return func(v *Validator, field string) bool {
		raw, _ := v.Raw(field)
		s, ok := raw.(string)
		if ok {
			for _, a := range allowed {
				if s == a {
					v.Set(field, s)
					return true
				}
			}
		}
		v.Fail(field, "The selected "+fieldName(field)+" is invalid.")
		return false
	}
}

// Email requires an RFC 5322 address.
func Email() Check {
	return func(v *Validator, field string) bool {
		raw, _ := v.Raw(field)
		s, ok := raw.(string)
		if !ok {
			v.Fail(field, "The "+fieldName(field)+" must be a string.")
			return false
		}
		if _, err := mail.ParseAddress(s); err != nil {
			v.Fail(field, "The "+fieldName(field)+" must be a valid email address.")
			return false
		}
		v.Set(field, s)
		return true
	}
}

// Confirmed requires a matching <field>_confirmation input.
func Confirmed() Check {
	return func(v *Validator, field string) bool {
		raw, _ := v.Raw(field)
		confirm, _ := v.Raw(field + "_confirmation")
		if rs, ok := raw.(string); ok {
			if cs, ok := confirm.(string); ok && rs == cs {
				return true
			}
		}
		v.Fail(field, "The "+fieldName(field)+" confirmation does not match.")
		return false
	}
}

// ExistsID requires a numeric id referencing an existing row of model. Soft
// deleted rows do not count.
func ExistsID(model any) Check {
	return func(v *Validator, field string) bool {
		raw, _ := v.Raw(field)
		id, ok := toUint(raw)
		if ok {
			var count int64
			if err := v.db.Model(model).Where("id = ?", id).Count(&count).Error; err == nil && count > 0 {
				v.Set(field, id)
				return true
			}
		}
		v.Fail(field, "The selected "+fieldName(field)+" is invalid.")
		return false
	}
}

// IDList requires an array of ids that all reference existing rows of model.
func IDList(model any) Check {
	return func(v *Validator, field string) bool {
		raw, _ := v.Raw(field)
		items, ok := raw.([]any)
		if !ok {
			v.Fail(field, "The "+fieldName(field)+" must be an array.")
			return false
		}
		ids := make([]uint, 0, len(items))
		for _, item := range items {
			id, ok := toUint(item)
			if !ok {
				v.Fail(field, "The selected "+fieldName(field)+" is invalid.")
				return false
			}
			ids = append(ids, id)
		}
		if len(ids) > 0 {
			var count int64
			if err := v.db.Model(model).Where("id IN ?", ids).Count(&count).Error; err != nil || count != int64(len(ids)) {
				v.Fail(field, "The selected "+fieldName(field)+" is invalid.")
				return false
			}
		}
		v.Set(field, ids)
		return true
	}
}

// Unique requires no other row of model to hold the same column value.
// ignoreID excludes the record being updated from the check.
func Unique(model any, column string, ignoreID uint) Check {
	return func(v *Validator, field string) bool {
		raw, _ := v.Raw(field)
		s, ok := raw.(string)
		if !ok {
			v.Fail(field, "The "+fieldName(field)+" must be a string.")
			return false
		}
		q := v.db.Model(model).Where(column+" = ?", s)
		if ignoreID != 0 {
			q = q.Where("id <> ?", ignoreID)
		}
		var count int64
		if err := q.Count(&count).Error; err != nil || count > 0 {
			v.Fail(field, "The "+fieldName(field)+" has already been taken.")
			return false
		}
		v.Set(field, s)
		return true
	}
}

func toUint(raw any) (uint, bool) {
	switch val := raw.(type) {
	case float64:
		if val >= 0 && val == float64(uint(val)) {
			return uint(val), true
		}
	case string:
		if n, err := strconv.ParseUint(val, 10, 64); err == nil {
			return uint(n), true
		}
	}
	return 0, false
}
