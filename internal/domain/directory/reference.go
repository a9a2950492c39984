package directory

import "slices"

// Department is a static grouping businesses register under.
type Department struct {
	Name          string
	Subcategories []string
}

type province struct {
	name   string
	cities []string
}

// provinces is ordered for display; each city list is ordered as shown in
// the city selector.
var provinces = []province{
	{name: "Eastern Cape", cities: []string{"Gqeberha", "East London", "Mthatha", "Makhanda"}},
	{name: "Free State", cities: []string{"Bloemfontein", "Welkom", "Bethlehem", "Kroonstad"}},
	{name: "Gauteng", cities: []string{"Johannesburg", "Pretoria", "Soweto", "Centurion"}},
	{name: "KwaZulu-Natal", cities: []string{"Durban", "Pietermaritzburg", "Richards Bay", "Newcastle"}},
	{name: "Limpopo", cities: []string{"Polokwane", "Thohoyandou", "Tzaneen", "Mokopane"}},
	{name: "Mpumalanga", cities: []string{"Mbombela", "eMalahleni", "Secunda", "Middelburg"}},
	{name: "North West", cities: []string{"Mahikeng", "Rustenburg", "Klerksdorp", "Potchefstroom"}},
	{name: "Northern Cape", cities: []string{"Kimberley", "Upington", "Springbok", "Kuruman"}},
	{name: "Western Cape", cities: []string{"Cape Town", "Stellenbosch", "Paarl", "George"}},
}

var departments = []Department{
	{Name: "Fashion & Apparel", Subcategories: []string{"Traditional Wear", "Streetwear", "Tailoring", "Accessories"}},
	{Name: "Food & Catering", Subcategories: []string{"Catering", "Bakery", "Butchery", "Restaurants"}},
	{Name: "Arts & Crafts", Subcategories: []string{"Beadwork", "Pottery", "Woodwork", "Painting"}},
	{Name: "Health & Wellness", Subcategories: []string{"Fitness", "Traditional Healing", "Barbershop", "Spa"}},
	{Name: "Construction & Trades", Subcategories: []string{"Building", "Plumbing", "Electrical", "Carpentry"}},
	{Name: "Professional Services", Subcategories: []string{"Accounting", "Legal", "Consulting", "Marketing"}},
	{Name: "Technology", Subcategories: []string{"Software", "Repairs", "Networking", "Design"}},
	{Name: "Transport & Logistics", Subcategories: []string{"Taxi", "Courier", "Removals", "Car Hire"}},
	{Name: "Agriculture", Subcategories: []string{"Livestock", "Crop Farming", "Nursery", "Agri Supplies"}},
	{Name: "Events & Entertainment", Subcategories: []string{"Music", "Photography", "Decor", "Venues"}},
}

// Provinces returns the province names in display order.
func Provinces() []string {
	out := make([]string, len(provinces))
	for i, p := range provinces {
		out[i] = p.name
	}
	return out
}

// CitiesForProvince returns the ordered cities of the named province. The
// result is empty for an unset or unknown province.
func CitiesForProvince(name string) []string {
	if name == "" {
		return []string{}
	}
	for _, p := range provinces {
		if p.name == name {
			return slices.Clone(p.cities)
		}
	}
	return []string{}
}

// IsProvince reports whether name is a known province.
func IsProvince(name string) bool {
	return slices.ContainsFunc(provinces, func(p province) bool { return p.name == name })
}

// CityInProvince reports whether city is listed under the named province.
func CityInProvince(name, city string) bool {
	for _, p := range provinces {
		if p.name == name {
			return slices.Contains(p.cities, city)
		}
	}
	return false
}

// Departments returns a copy of the department reference list.
func Departments() []Department {
	out := make([]Department, len(departments))
	for i, d := range departments {
		out[i] = Department{Name: d.Name, Subcategories: slices.Clone(d.Subcategories)}
	}
	return out
}

// LookupDepartment returns the department with the given name.
func LookupDepartment(name string) (Department, bool) {
	for _, d := range departments {
		if d.Name == name {
			return Department{Name: d.Name, Subcategories: slices.Clone(d.Subcategories)}, true
		}
	}
	return Department{}, false
}
