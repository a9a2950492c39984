package directory

import "strings"

// AllDepartments is the department selector value that disables the
// department facet.
const AllDepartments = "all"

// Criteria are the active directory facets. Zero-value fields do not narrow.
type Criteria struct {
	Text       string
	Department string
	Province   string
	City       string
}

// WithProvince returns c with the province replaced. A city that does not
// belong to the new province is reset.
func (c Criteria) WithProvince(province string) Criteria {
	c.Province = province
	if c.City != "" && !CityInProvince(province, c.City) {
		c.City = ""
	}
	return c
}

// Normalize trims the text facet and drops a city that is inconsistent with
// the selected province.
func (c Criteria) Normalize() Criteria {
	c.Text = strings.TrimSpace(c.Text)
	if strings.EqualFold(strings.TrimSpace(c.Department), AllDepartments) {
		c.Department = ""
	}
	return c.WithProvince(c.Province)
}

// IsZero reports whether c narrows nothing.
func (c Criteria) IsZero() bool {
	n := c.Normalize()
	return n.Text == "" && n.Department == "" && n.Province == "" && n.City == ""
}

// Apply returns the businesses matching every active facet, in input order.
// The input slice is never modified.
func Apply(businesses []Business, c Criteria) []Business {
	text := strings.ToLower(strings.TrimSpace(c.Text))
	department := c.Department
	if strings.EqualFold(strings.TrimSpace(department), AllDepartments) {
		department = ""
	}

	out := make([]Business, 0, len(businesses))
	for _, b := range businesses {
		if text != "" && !matchesText(b, text) {
			continue
		}
		if department != "" && b.Department != department {
			continue
		}
		if c.Province != "" {
			if b.Province != c.Province {
				continue
			}
			if c.City != "" && b.City != c.City {
				continue
			}
		}
		out = append(out, b.Clone())
	}
	return out
}

// matchesText expects needle to be lowercased already.
func matchesText(b Business, needle string) bool {
	return strings.Contains(strings.ToLower(b.Name), needle) ||
		strings.Contains(strings.ToLower(b.Description), needle) ||
		strings.Contains(strings.ToLower(b.Category), needle)
}
