package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCitiesForProvince(t *testing.T) {
	assert.Equal(t, []string{"Johannesburg", "Pretoria", "Soweto", "Centurion"}, CitiesForProvince("Gauteng"))
	assert.Equal(t, []string{}, CitiesForProvince(""))
	assert.Equal(t, []string{}, CitiesForProvince("Atlantis"))
	assert.Equal(t, []string{}, CitiesForProvince("gauteng"), "province names are exact")
}

func TestCitiesForProvince_ReturnsCopy(t *testing.T) {
	cities := CitiesForProvince("Gauteng")
	cities[0] = "Gotham"

	assert.Equal(t, "Johannesburg", CitiesForProvince("Gauteng")[0])
}

func TestCitiesBelongToProvince(t *testing.T) {
	names := Provinces()
	require.Len(t, names, 9)

	for _, p := range names {
		cities := CitiesForProvince(p)
		require.NotEmpty(t, cities, p)
		for _, c := range cities {
			assert.True(t, CityInProvince(p, c), "%s in %s", c, p)
			assert.Equal(t, c, Criteria{Province: p, City: c}.WithProvince(p).City)
		}
	}
}

func TestDepartments(t *testing.T) {
	depts := Departments()
	require.NotEmpty(t, depts)

	seen := make(map[string]bool, len(depts))
	for _, d := range depts {
		assert.False(t, seen[d.Name], "duplicate department %s", d.Name)
		seen[d.Name] = true
		assert.NotEmpty(t, d.Subcategories, d.Name)
	}

	depts[0].Subcategories[0] = "mutated"
	assert.NotEqual(t, "mutated", Departments()[0].Subcategories[0])

	_, ok := LookupDepartment(AllDepartments)
	assert.False(t, ok)
}

func TestBusiness_Validate(t *testing.T) {
	valid := Business{
		Name:        "Zulu Attire",
		Department:  "Fashion & Apparel",
		Subcategory: "Traditional Wear",
		Province:    "KwaZulu-Natal",
		City:        "Durban",
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		modify func(b *Business)
		field  string
	}{
		{name: "blank name", modify: func(b *Business) { b.Name = "  " }, field: "name"},
		{name: "unknown department", modify: func(b *Business) { b.Department = "Mining" }, field: "department"},
		{name: "foreign subcategory", modify: func(b *Business) { b.Subcategory = "Pottery" }, field: "subcategory"},
		{name: "unknown province", modify: func(b *Business) { b.Province = "Natal"; b.City = "" }, field: "province"},
		{name: "city outside province", modify: func(b *Business) { b.City = "Soweto" }, field: "city"},
		{name: "city without province", modify: func(b *Business) { b.Province = "" }, field: "city"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := valid
			tt.modify(&b)

			var vErr *ValidationError
			require.ErrorAs(t, b.Validate(), &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}
